package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type repoMock struct {
	mu      sync.Mutex
	users   []User
	signups []SignupRequest
	err     error
}

func (r *repoMock) GetUserByEmail(_ context.Context, email string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return User{}, r.err
	}
	for _, usr := range r.users {
		if strings.EqualFold(usr.Email, email) {
			return usr, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *repoMock) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := r.GetUserByEmail(ctx, email)
	switch err {
	case nil:
		return true, nil
	case ErrNotFound:
		return false, nil
	}
	return false, err
}

func (r *repoMock) CreateUser(_ context.Context, usr User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, usr)
	return usr, nil
}

func (r *repoMock) CreateSignupRequest(_ context.Context, req SignupRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signups = append(r.signups, req)
	return nil
}

type mailMock struct {
	messages []*core.EmailMessage
}

func (m *mailMock) SendMessages(messages ...*core.EmailMessage) {
	m.messages = append(m.messages, messages...)
}

type eventsMock struct {
	events []core.Event
	err    error
}

func (e *eventsMock) Publish(_ context.Context, evt core.Event) error {
	e.events = append(e.events, evt)
	return e.err
}

func setup(users ...User) (ServiceInterface, *repoMock, *mailMock, *eventsMock) {
	repo := &repoMock{users: users}
	mailSvc := &mailMock{}
	events := &eventsMock{}

	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	InitValidators(validate, translator)

	svc := NewService(Options{
		Repo:        repo,
		Signups:     repo,
		Validate:    validate,
		MailSvc:     mailSvc,
		Events:      events,
		Logger:      nopLogger{},
		AdminEmails: []string{"Admin <admin@school.io>", "not an email"},
	})
	return svc, repo, mailSvc, events
}

func TestService_Login(t *testing.T) {
	svc, _, _, _ := setup(
		User{Email: "ann@school.io", Name: "Ann", Role: RoleStudent, IsActive: true},
		User{Email: "bob@school.io", Role: RoleStudent, IsActive: true},
		User{Email: "carl@school.io", Name: "Carl", Role: RoleStudent},
	)

	tests := []struct {
		name      string
		req       LoginRequest
		wantState SessionState
		wantKnown bool
		wantName  string
		wantErr   bool
	}{
		{name: "invalid email", req: LoginRequest{Email: "ann"}, wantErr: true},
		{name: "active user", req: LoginRequest{Email: " ANN@school.io "}, wantState: StateLoggedIn, wantName: "Ann"},
		{name: "active user without name", req: LoginRequest{Email: "bob@school.io"}, wantState: StateLoggedIn, wantName: "bob"},
		{name: "typed name used when the row has none", req: LoginRequest{Email: "bob@school.io", Name: "Bobby"}, wantState: StateLoggedIn, wantName: "Bobby"},
		{name: "inactive user", req: LoginRequest{Email: "carl@school.io"}, wantState: StatePendingSignup, wantKnown: true, wantName: "Carl"},
		{name: "unknown user", req: LoginRequest{Email: "dan@school.io", Name: "Dan"}, wantState: StatePendingSignup, wantName: "Dan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Login(context.Background(), tt.req)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantState, res.State)
			assert.Equal(t, tt.wantKnown, res.Known)
			assert.Equal(t, tt.wantName, res.Name)
		})
	}
}

func TestService_LoginRepoError(t *testing.T) {
	svc, repo, _, _ := setup()
	repo.err = errors.New("unavailable")

	_, err := svc.Login(context.Background(), LoginRequest{Email: "a@b.io"})
	assert.Error(t, err, "failed! a store error must not look like an unknown user")
}

func TestService_RequestSignup(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	NowFunc = func() time.Time { return now }
	defer func() { NowFunc = time.Now }()

	t.Run("invalid", func(t *testing.T) {
		svc, repo, mailSvc, _ := setup()
		_, err := svc.RequestSignup(context.Background(), SignupRequest{Name: "  ", Email: "a@b.io", Group: "middle"})
		assert.Error(t, err)
		assert.Empty(t, repo.signups)
		assert.Empty(t, mailSvc.messages)
	})

	t.Run("valid", func(t *testing.T) {
		svc, repo, mailSvc, events := setup()
		events.err = errors.New("broker down")

		req, err := svc.RequestSignup(context.Background(), SignupRequest{
			Name: " Dan ", Email: "DAN@school.io", Group: "Младшая", Comment: " hi ",
		})
		require.NoError(t, err, "failed! a notification error must not fail the request")
		assert.Equal(t, now, req.CreatedAt)
		assert.Equal(t, SignupPayload{Group: "junior", Comment: "hi"}, req.Payload())

		require.Len(t, repo.signups, 1)
		assert.Equal(t, "dan@school.io", repo.signups[0].Email)

		require.Len(t, mailSvc.messages, 1)
		msg := mailSvc.messages[0]
		require.Len(t, msg.To, 1)
		assert.Equal(t, "admin@school.io", msg.To[0].Address)
		assert.Equal(t, "signup_request", msg.TemplateName)

		require.Len(t, events.events, 1)
		assert.Equal(t, core.EventSignupRequested, events.events[0].Name)
	})
}

func TestService_Create(t *testing.T) {
	svc, repo, _, _ := setup(User{Email: "ann@school.io", IsActive: true})

	tests := []struct {
		name    string
		nu      NewUser
		wantErr bool
	}{
		{name: "taken email", nu: NewUser{Email: "ANN@school.io", Name: "Ann"}, wantErr: true},
		{name: "bad role", nu: NewUser{Email: "x@school.io", Role: "janitor"}, wantErr: true},
		{name: "active without name", nu: NewUser{Email: "y@school.io", IsActive: true}, wantErr: true},
		{name: "inactive without name", nu: NewUser{Email: "z@school.io"}},
		{name: "teacher", nu: NewUser{Email: "T@school.io", Name: "T", Role: "Teacher", IsActive: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.nu)
			if (err != nil) != tt.wantErr {
				t.Errorf("failed! Create() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	require.Len(t, repo.users, 3)
	assert.Equal(t, User{Email: "z@school.io", Role: RoleStudent}, repo.users[1])
	assert.Equal(t, User{Email: "t@school.io", Name: "T", Role: RoleTeacher, IsActive: true}, repo.users[2])
}

func TestService_CreateRepoError(t *testing.T) {
	svc, repo, _, _ := setup()
	repo.err = errors.New("users table unavailable")

	_, err := svc.Create(context.Background(), NewUser{Email: "ann@school.io", Name: "Ann", IsActive: true})
	assert.Error(t, err)
	assert.Empty(t, repo.users)
}
