package echoapi

import (
	"github.com/trezcool/shule/core/quiz"
	"github.com/trezcool/shule/core/user"
)

type (
	SuccessResponse struct {
		Success string `json:"success"`
	}

	LoginResponse struct {
		Token string            `json:"token"`
		State user.SessionState `json:"state"`
		Email string            `json:"email"`
		Name  string            `json:"name"`
		Known bool              `json:"known"`
	}

	// SignupData is the signup form. Email comes from the session, the name defaults to it too.
	SignupData struct {
		Name    string `json:"name"`
		Group   string `json:"group"`
		Comment string `json:"comment"`
	}

	MeResponse struct {
		Email       string `json:"email"`
		Name        string `json:"name"`
		Role        string `json:"role"`
		TestsPassed int    `json:"tests_passed"`
	}

	OptionView struct {
		Label string `json:"label"`
		Text  string `json:"text"`
	}

	QuestionView struct {
		Key     string       `json:"key"`
		Label   string       `json:"label"`
		Type    quiz.Type    `json:"type"`
		Options []OptionView `json:"options,omitempty"`
	}

	// FormResponse never carries the answer key.
	FormResponse struct {
		Subject   string         `json:"subject"`
		Group     string         `json:"group"`
		Token     string         `json:"token"` // send back with the submission
		Total     int            `json:"total"`
		Questions []QuestionView `json:"questions"`
	}

	SubmissionResponse struct {
		Subject string `json:"subject"`
		Score   int    `json:"score"`
		Total   int    `json:"total"`
	}

	BankSubject struct {
		Code       string `json:"code"`
		Questions  int    `json:"questions"`
		Configured bool   `json:"configured"`
		Suggestion string `json:"suggestion,omitempty"`
	}

	BankResponse struct {
		Rows     int           `json:"rows"`
		Kept     int           `json:"kept"`
		Filtered int           `json:"filtered"`
		Skipped  []string      `json:"skipped"`
		Subjects []BankSubject `json:"subjects"`
	}
)

func newQuestionView(q quiz.Question) QuestionView {
	view := QuestionView{Key: q.Key(), Label: q.Label(), Type: q.Type}
	if !q.IsOpen() {
		for _, l := range quiz.OptionLabels {
			view.Options = append(view.Options, OptionView{Label: l, Text: q.Options.Get(l)})
		}
	}
	return view
}
