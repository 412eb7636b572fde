package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = core.NewFieldError("email", "email already taken")
)

type (
	Repository interface {
		// GetUserByEmail matches the email case-insensitively. Returns ErrNotFound when absent.
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// EmailExists never mistakes an unreadable table for an empty one.
		EmailExists(ctx context.Context, email string) (bool, error)
		CreateUser(ctx context.Context, usr User) (User, error)
	}

	SignupRepository interface {
		CreateSignupRequest(ctx context.Context, req SignupRequest) error
	}

	ServiceInterface interface {
		Login(ctx context.Context, req LoginRequest) (LoginResult, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Create(ctx context.Context, nu NewUser) (User, error)
		RequestSignup(ctx context.Context, req SignupRequest) (SignupRequest, error)
	}

	Options struct {
		Repo        Repository
		Signups     SignupRepository
		Validate    *validator.Validate
		MailSvc     core.EmailService
		Events      core.EventPublisher
		Logger      core.Logger
		AdminEmails []string
	}

	service struct {
		repo        Repository
		signups     SignupRepository
		validate    *validator.Validate
		mailSvc     core.EmailService
		events      core.EventPublisher
		logger      core.Logger
		adminEmails []string
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(opts Options) ServiceInterface {
	return &service{
		repo:        opts.Repo,
		signups:     opts.Signups,
		validate:    opts.Validate,
		mailSvc:     opts.MailSvc,
		events:      opts.Events,
		logger:      opts.Logger,
		adminEmails: opts.AdminEmails,
	}
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Create adds a user row. Emails are unique, case-insensitively.
func (svc *service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if err := svc.validate.Struct(nu); err != nil {
		return User{}, err
	}
	taken, err := svc.repo.EmailExists(ctx, nu.Email)
	if err != nil {
		return User{}, errors.Wrap(err, "checking email")
	}
	if taken {
		return User{}, ErrEmailTaken
	}

	usr, err := svc.repo.CreateUser(ctx, User{Email: nu.Email, Name: nu.Name, Role: nu.Role, IsActive: nu.IsActive})
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

// Login resolves the next session state for `req`:
// an active user logs in, anybody else is sent to the signup request form.
func (svc *service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	req.Clean()
	if err := svc.validate.Struct(req); err != nil {
		return LoginResult{}, err
	}

	res := LoginResult{Email: req.Email, Name: req.Name}
	usr, err := svc.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return LoginResult{}, errors.Wrap(err, "finding user by email")
		}
		res.State = StatePendingSignup
		return res, nil
	}

	if !usr.IsActive {
		res.State = StatePendingSignup
		res.Known = true
		if res.Name == "" {
			res.Name = usr.Name
		}
		return res, nil
	}

	res.State = StateLoggedIn
	res.User = usr
	if usr.Name != "" {
		res.Name = usr.Name
	} else if res.Name == "" {
		res.Name = EmailLocalPart(usr.Email)
	}
	return res, nil
}

// RequestSignup appends one row to the signup table, then notifies admins.
// Notifications are best effort: a failure there does not fail the request.
func (svc *service) RequestSignup(ctx context.Context, req SignupRequest) (SignupRequest, error) {
	req.Clean()
	if err := svc.validate.Struct(req); err != nil {
		return SignupRequest{}, err
	}
	req.CreatedAt = NowFunc().UTC()

	if err := svc.signups.CreateSignupRequest(ctx, req); err != nil {
		return SignupRequest{}, errors.Wrap(err, "saving signup request")
	}

	svc.notifyAdmins(req)
	if svc.events != nil {
		evt := core.Event{Name: core.EventSignupRequested, OccurredAt: req.CreatedAt, Payload: req}
		if err := svc.events.Publish(ctx, evt); err != nil {
			svc.logger.Warn(fmt.Sprintf("publishing %s: %v", evt.Name, err), err)
		}
	}
	return req, nil
}

func (svc *service) notifyAdmins(req SignupRequest) {
	if svc.mailSvc == nil || len(svc.adminEmails) == 0 {
		return
	}
	to := make([]mail.Address, 0, len(svc.adminEmails))
	for _, addr := range svc.adminEmails {
		a, err := mail.ParseAddress(addr)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("invalid admin email %q", addr), err)
			continue
		}
		to = append(to, *a)
	}

	group := req.Group
	if group == "" {
		group = "-"
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           to,
		Subject:      "New access request: " + req.Email,
		TemplateName: "signup_request",
		TemplateData: struct {
			Name, Email, Group, Comment, Timestamp string
			Known                                  bool
		}{
			Name:      req.Name,
			Email:     req.Email,
			Group:     group,
			Comment:   req.Comment,
			Timestamp: core.FormatTimestamp(req.CreatedAt),
			Known:     req.Known,
		},
	})
}
