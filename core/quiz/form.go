package quiz

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrAlreadySubmitted = errors.New("quiz already submitted")
)

// Form is the set of questions presented for one subject.
// MCQs missing an option are neither presented nor scored.
type Form struct {
	Subject   string
	Questions []Question // presented, in order
	Skipped   []Question // incomplete MCQs
}

func NewForm(subject string, questions []Question) *Form {
	f := &Form{Subject: subject, Questions: make([]Question, 0, len(questions))}
	for _, q := range questions {
		if q.Validate() != nil {
			f.Skipped = append(f.Skipped, q)
			continue
		}
		f.Questions = append(f.Questions, q)
	}
	return f
}

// Total is the number of presented, scoreable questions.
func (f *Form) Total() int {
	var n int
	for _, q := range f.Questions {
		if q.Scoreable() {
			n++
		}
	}
	return n
}

func (f *Form) IsEmpty() bool { return len(f.Questions) == 0 }

// Score grades `answers` against the presented questions.
// MCQ choices are compared as lower-case labels, one point per match.
// Open answers are recorded but never scored. Answers to questions that
// are not on the form are dropped.
func (f *Form) Score(answers Answers) Result {
	res := Result{Subject: f.Subject, Total: f.Total(), Answers: make(Answers, len(answers))}
	for _, q := range f.Questions {
		raw, ok := answers[q.Key()]
		if !ok {
			continue
		}
		if q.IsOpen() {
			res.Answers[q.Key()] = core.CleanString(raw)
			continue
		}
		choice := parseLabel(raw)
		if choice == "" {
			continue
		}
		res.Answers[q.Key()] = choice
		if q.Correct != "" && choice == q.Correct {
			res.Score++
		}
	}
	return res
}

// AttemptState is QuizNotSubmitted until the user submits, then QuizSubmitted for good.
type AttemptState string

const (
	QuizNotSubmitted AttemptState = "not_submitted"
	QuizSubmitted    AttemptState = "submitted"
)

// Attempt is one pass of a user over a Form. It accepts a single submission.
type Attempt struct {
	form   *Form
	mu     sync.Mutex
	state  AttemptState
	result Result
}

func NewAttempt(form *Form) *Attempt {
	return &Attempt{form: form, state: QuizNotSubmitted}
}

func (a *Attempt) State() AttemptState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Submit scores `answers` and moves the attempt to QuizSubmitted.
func (a *Attempt) Submit(answers Answers) (Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == QuizSubmitted {
		return Result{}, ErrAlreadySubmitted
	}
	a.result = a.form.Score(answers)
	a.state = QuizSubmitted
	return a.result, nil
}

// Result returns the graded result. ok is false while nothing was submitted,
// so a zero Total is never mistaken for a pending attempt.
func (a *Attempt) Result() (res Result, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != QuizSubmitted {
		return Result{}, false
	}
	return a.result, true
}

// Record stamps the submitted result for `email`. Returns ErrNotSubmitted before Submit.
func (a *Attempt) Record(email string, at time.Time) (Record, error) {
	res, ok := a.Result()
	if !ok {
		return Record{}, ErrNotSubmitted
	}
	return Record{Timestamp: at.UTC(), Email: email, Result: res}, nil
}
