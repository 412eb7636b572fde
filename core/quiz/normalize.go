package quiz

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
)

// RawRow is a row of the `tests` table keyed by column name.
type RawRow map[string]string

var subjectAliases = map[string]string{
	"биология":         "biology",
	"biology":          "biology",
	"физика":           "physics",
	"physics":          "physics",
	"химия":            "chemistry",
	"chemistry":        "chemistry",
	"математика":       "math",
	"mathematics":      "math",
	"maths":            "math",
	"math":             "math",
	"информатика":      "cs",
	"informatics":      "cs",
	"computer science": "cs",
	"cs":               "cs",
}

// NormalizeSubject maps a subject cell (english or russian, any case) to its code.
// Unknown subjects are returned cleaned and lowered.
func NormalizeSubject(s string) string {
	s = core.CleanString(s, true /* lower */)
	if code, ok := subjectAliases[s]; ok {
		return code
	}
	return s
}

// get looks `key` up ignoring header case and surrounding spaces.
func (r RawRow) get(key string) string {
	if v, ok := r[key]; ok {
		return core.CleanString(v)
	}
	for k, v := range r {
		if core.CleanString(k, true /* lower */) == key {
			return core.CleanString(v)
		}
	}
	return ""
}

// NormalizeRow turns a raw `tests` row into a Question.
// position is the 1-based position of the row, used when the qid is missing.
// Rows without a subject are rejected with a *DataShapeError.
func NormalizeRow(row RawRow, position int) (Question, error) {
	subject := NormalizeSubject(row.get("subject"))
	if subject == "" {
		return Question{}, &DataShapeError{Position: position, Field: "subject", Reason: "blank subject"}
	}

	text := row.get("text")
	if text == "" {
		text = row.get("question")
	}

	opts, ok := parseOptions(row.get("options"))
	if !ok {
		opts = Options{A: row.get("a"), B: row.get("b"), C: row.get("c"), D: row.get("d")}
	}

	qtype := parseType(row.get("type"), opts)

	var correct string
	if qtype == TypeMCQ {
		correct = parseLabel(row.get("correct"))
	}

	return Question{
		Subject:  subject,
		QID:      parseQID(row.get("qid")),
		Position: position,
		Text:     text,
		Options:  opts,
		Correct:  correct,
		Group:    core.NormalizeGroup(row.get("group")),
		Type:     qtype,
	}, nil
}

// parseType: an explicit type wins, a blank one is inferred from the options,
// anything unrecognized is an mcq.
func parseType(s string, opts Options) Type {
	switch core.CleanString(s, true /* lower */) {
	case "":
		if opts.Empty() {
			return TypeOpen
		}
		return TypeMCQ
	case string(TypeOpen):
		return TypeOpen
	default:
		return TypeMCQ
	}
}

// parseLabel returns the lowered label if it is one of OptionLabels, "" otherwise.
func parseLabel(s string) string {
	s = core.CleanString(s, true /* lower */)
	for _, l := range OptionLabels {
		if s == l {
			return s
		}
	}
	return ""
}

// parseQID accepts integers, optionally written as integral floats ("3.0").
func parseQID(s string) null.Int {
	if s == "" {
		return null.Int{}
	}
	if i, err := strconv.Atoi(s); err == nil {
		return null.IntFrom(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) && math.Abs(f) < math.MaxInt32 {
		return null.IntFrom(int(f))
	}
	return null.Int{}
}

// parseOptions reads a structured options cell: a JSON object whose keys are all within a-d.
func parseOptions(s string) (Options, bool) {
	if s == "" {
		return Options{}, false
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(s), &raw); err != nil || len(raw) == 0 {
		return Options{}, false
	}

	vals := make(map[string]string, len(raw))
	for k, v := range raw {
		label := parseLabel(k)
		if label == "" {
			return Options{}, false
		}
		if v != nil {
			vals[label] = core.CleanString(fmt.Sprint(v))
		}
	}
	return Options{A: vals["a"], B: vals["b"], C: vals["c"], D: vals["d"]}, true
}
