package quiz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotSubmitted        = errors.New("quiz not submitted")
	ErrDuplicateSubmission = errors.New("submission already recorded")
	ErrUnknownSubject      = errors.New("unknown subject")
	ErrNoQuestions         = errors.New("no questions for this subject")
	ErrUnknownGroup        = core.NewFieldError("group", "group must be one of [junior senior]")
)

// DefaultSubmissionTTL is how long a claimed submission key is remembered.
const DefaultSubmissionTTL = 24 * time.Hour

type (
	QuestionRepository interface {
		// QueryQuestionRows returns the raw rows of the `tests` table.
		QueryQuestionRows(ctx context.Context) ([]RawRow, error)
	}

	ResultRepository interface {
		CreateResult(ctx context.Context, rec Record) error
		CountResultsByEmail(ctx context.Context, email string) (int, error)
	}

	// SubmissionStore remembers claimed keys so a replayed submission is not written twice.
	SubmissionStore interface {
		// Claim returns false if `key` was already claimed and not released.
		Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
		Release(ctx context.Context, key string) error
	}

	ServiceInterface interface {
		Subjects(ctx context.Context, group string) ([]SubjectSummary, error)
		LoadBank(ctx context.Context, group string) (Bank, LoadReport, error)
		Form(ctx context.Context, subject, group string) (*Form, error)
		Submit(ctx context.Context, req SubmitRequest) (Record, error)
		CountResults(ctx context.Context, email string) (int, error)
	}

	ServiceOptions struct {
		Questions   QuestionRepository
		Results     ResultRepository
		Submissions SubmissionStore
		Subjects    []core.Subject
		TTL         time.Duration // submission keys, DefaultSubmissionTTL when zero
		Validate    *validator.Validate
		Events      core.EventPublisher
		Logger      core.Logger
	}

	service struct {
		questions   QuestionRepository
		results     ResultRepository
		submissions SubmissionStore
		subjects    []core.Subject
		ttl         time.Duration
		validate    *validator.Validate
		events      core.EventPublisher
		logger      core.Logger
	}
)

// SubjectSummary is a configured subject with the number of questions available.
type SubjectSummary struct {
	core.Subject
	Questions int `json:"questions"`
}

// SubmitRequest carries the answers of one attempt.
// Token is issued with the form and makes the submission idempotent.
type SubmitRequest struct {
	Email   string  `json:"-" validate:"required,email"`
	Subject string  `json:"-" validate:"required"`
	Token   string  `json:"token" validate:"required,uuid4"`
	Group   string  `json:"group" validate:"omitempty,oneof=junior senior"`
	Answers Answers `json:"answers" validate:"max=200,dive,keys,max=64,endkeys,max=2000"`
}

func (sr *SubmitRequest) Clean() {
	sr.Email = core.CleanString(sr.Email, true /* lower */)
	sr.Subject = NormalizeSubject(sr.Subject)
	sr.Token = core.CleanString(sr.Token, true /* lower */)
	sr.Group = core.NormalizeGroup(sr.Group)
}

// IdempotencyKey identifies a submission: one per user, subject and form token.
func (sr SubmitRequest) IdempotencyKey() string {
	return strings.Join([]string{"submission", sr.Email, sr.Subject, sr.Token}, ":")
}

var _ ServiceInterface = (*service)(nil)

func NewService(opts ServiceOptions) ServiceInterface {
	if opts.TTL <= 0 {
		opts.TTL = DefaultSubmissionTTL
	}
	return &service{
		questions:   opts.Questions,
		results:     opts.Results,
		submissions: opts.Submissions,
		subjects:    opts.Subjects,
		ttl:         opts.TTL,
		validate:    opts.Validate,
		events:      opts.Events,
		logger:      opts.Logger,
	}
}

// LoadBank loads the bank for `group`. An unknown group fails with ErrUnknownGroup
// rather than silently matching only untagged questions.
func (svc *service) LoadBank(ctx context.Context, group string) (Bank, LoadReport, error) {
	if !core.IsKnownGroup(group) {
		return nil, LoadReport{}, ErrUnknownGroup
	}
	rows, err := svc.questions.QueryQuestionRows(ctx)
	if err != nil {
		return nil, LoadReport{}, errors.Wrap(err, "querying question rows")
	}
	bank, report := LoadBank(rows, group)
	for _, e := range report.Skipped {
		svc.logger.Warn(fmt.Sprintf("skipping question row: %v", e))
	}
	return bank, report, nil
}

// Subjects lists the configured subjects in configuration order.
func (svc *service) Subjects(ctx context.Context, group string) ([]SubjectSummary, error) {
	bank, _, err := svc.LoadBank(ctx, group)
	if err != nil {
		return nil, err
	}
	res := make([]SubjectSummary, 0, len(svc.subjects))
	for _, sub := range svc.subjects {
		res = append(res, SubjectSummary{Subject: sub, Questions: len(NewForm(sub.Code, bank[sub.Code]).Questions)})
	}
	return res, nil
}

func (svc *service) isConfigured(code string) bool {
	for _, sub := range svc.subjects {
		if sub.Code == code {
			return true
		}
	}
	return false
}

// Form builds the presentable form of `subject` from a freshly loaded bank.
func (svc *service) Form(ctx context.Context, subject, group string) (*Form, error) {
	subject = NormalizeSubject(subject)
	if !svc.isConfigured(subject) {
		return nil, ErrUnknownSubject
	}
	bank, _, err := svc.LoadBank(ctx, group)
	if err != nil {
		return nil, err
	}
	form := NewForm(subject, bank[subject])
	for _, q := range form.Skipped {
		svc.logger.Warn(fmt.Sprintf("skipping incomplete question %s of %s", q.Key(), subject))
	}
	if form.IsEmpty() {
		return nil, ErrNoQuestions
	}
	return form, nil
}

// Submit scores `req` and appends exactly one results row.
// A replay of the same token is rejected with ErrDuplicateSubmission and writes nothing.
func (svc *service) Submit(ctx context.Context, req SubmitRequest) (Record, error) {
	req.Clean()
	if err := svc.validate.Struct(req); err != nil {
		return Record{}, err
	}

	form, err := svc.Form(ctx, req.Subject, req.Group)
	if err != nil {
		return Record{}, err
	}

	key := req.IdempotencyKey()
	ok, err := svc.submissions.Claim(ctx, key, svc.ttl)
	if err != nil {
		return Record{}, errors.Wrap(err, "claiming submission")
	}
	if !ok {
		return Record{}, ErrDuplicateSubmission
	}

	attempt := NewAttempt(form)
	if _, err := attempt.Submit(req.Answers); err != nil {
		return Record{}, err
	}
	rec, err := attempt.Record(req.Email, NowFunc())
	if err != nil {
		return Record{}, err
	}

	if err := svc.results.CreateResult(ctx, rec); err != nil {
		if rerr := svc.submissions.Release(context.Background(), key); rerr != nil {
			svc.logger.Error(fmt.Sprintf("releasing submission %s: %v", key, rerr), rerr)
		}
		return Record{}, errors.Wrap(err, "saving result")
	}

	if svc.events != nil {
		evt := core.Event{Name: core.EventResultRecorded, OccurredAt: rec.Timestamp, Payload: rec}
		if err := svc.events.Publish(ctx, evt); err != nil {
			svc.logger.Warn(fmt.Sprintf("publishing %s: %v", evt.Name, err), err)
		}
	}
	return rec, nil
}

// CountResults is the number of results rows recorded for `email`.
func (svc *service) CountResults(ctx context.Context, email string) (int, error) {
	n, err := svc.results.CountResultsByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return 0, errors.Wrap(err, "counting results")
	}
	return n, nil
}
