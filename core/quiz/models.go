package quiz

import (
	"fmt"
	"strconv"
	"time"

	"github.com/volatiletech/null/v8"
)

// Type is the kind of question.
type Type string

const (
	TypeMCQ  Type = "mcq"
	TypeOpen Type = "open"
)

// OptionLabels are the labels of a multiple-choice question, in display order.
var OptionLabels = []string{"a", "b", "c", "d"}

// Options holds the four labeled answers of an MCQ.
type Options struct {
	A string `json:"a"`
	B string `json:"b"`
	C string `json:"c"`
	D string `json:"d"`
}

// Get returns the option text for `label`; "" for unknown labels.
func (o Options) Get(label string) string {
	switch label {
	case "a":
		return o.A
	case "b":
		return o.B
	case "c":
		return o.C
	case "d":
		return o.D
	}
	return ""
}

// Complete reports whether all four options have a value.
func (o Options) Complete() bool {
	return o.A != "" && o.B != "" && o.C != "" && o.D != ""
}

// Empty reports whether no option has a value.
func (o Options) Empty() bool {
	return o.A == "" && o.B == "" && o.C == "" && o.D == ""
}

// Question is one normalized row of the `tests` table.
// Questions are immutable once loaded.
type Question struct {
	Subject  string   `json:"subject"`
	QID      null.Int `json:"qid"`
	Position int      `json:"position"` // 1-based position of the row in the table
	Text     string   `json:"text"`
	Options  Options  `json:"options"`
	Correct  string   `json:"-"` // "" when unscoreable
	Group    string   `json:"group"`
	Type     Type     `json:"type"`
}

// Key identifies the question inside an answer set: its qid, or "#<position>" without one.
func (q Question) Key() string {
	if q.QID.Valid {
		return strconv.Itoa(q.QID.Int)
	}
	return "#" + strconv.Itoa(q.Position)
}

// Label is the prompt shown to the user.
func (q Question) Label() string {
	if q.Text != "" {
		return q.Text
	}
	if q.QID.Valid {
		return fmt.Sprintf("Question %d", q.QID.Int)
	}
	return fmt.Sprintf("Question %d", q.Position)
}

func (q Question) IsOpen() bool { return q.Type == TypeOpen }

// Validate reports a DataShapeError for an MCQ missing any of its options.
func (q Question) Validate() error {
	if q.Type == TypeMCQ && !q.Options.Complete() {
		return &DataShapeError{Position: q.Position, Field: "options", Reason: "mcq is missing an option"}
	}
	return nil
}

// Scoreable reports whether the question counts toward a score.
func (q Question) Scoreable() bool {
	return q.Type == TypeMCQ && q.Validate() == nil
}

// Answers maps a question Key to the selected option label or the free text.
type Answers map[string]string

// Result is the outcome of a submitted attempt.
type Result struct {
	Subject string  `json:"subject"`
	Score   int     `json:"score"`
	Total   int     `json:"total"`
	Answers Answers `json:"answers"`
}

// Record is a row of the `results` table.
type Record struct {
	Timestamp time.Time `json:"timestamp"` // UTC
	Email     string    `json:"email"`
	Result
}

// DataShapeError flags a malformed row. The row is skipped, the load goes on.
type DataShapeError struct {
	Position int
	Field    string
	Reason   string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Position, e.Field, e.Reason)
}
