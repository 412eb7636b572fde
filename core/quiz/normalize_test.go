package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volatiletech/null/v8"
)

func TestNormalizeRow(t *testing.T) {
	tests := []struct {
		name     string
		row      RawRow
		position int
		want     Question
		wantErr  bool
	}{
		{
			name:     "blank subject",
			row:      RawRow{"subject": "  ", "question": "Q?"},
			position: 3,
			wantErr:  true,
		},
		{
			name: "flat mcq",
			row: RawRow{
				"subject": " Math ", "qid": "2", "question": "2+2?",
				"a": "3", "b": "4", "c": "5", "d": "6", "correct": " B ", "group": "Junior",
			},
			position: 1,
			want: Question{
				Subject: "math", QID: null.IntFrom(2), Position: 1, Text: "2+2?",
				Options: Options{A: "3", B: "4", C: "5", D: "6"}, Correct: "b", Group: "junior", Type: TypeMCQ,
			},
		},
		{
			name:     "russian subject and group, float qid",
			row:      RawRow{"Subject": "Математика", "QID": "3.0", "Group": "Старшая", "A": "x", "B": "y", "C": "z", "D": "w"},
			position: 5,
			want: Question{
				Subject: "math", QID: null.IntFrom(3), Position: 5,
				Options: Options{A: "x", B: "y", C: "z", D: "w"}, Group: "senior", Type: TypeMCQ,
			},
		},
		{
			name:     "inferred open",
			row:      RawRow{"subject": "physics", "qid": "abc", "text": "Explain gravity", "correct": "a"},
			position: 7,
			want:     Question{Subject: "physics", Position: 7, Text: "Explain gravity", Type: TypeOpen},
		},
		{
			name:     "explicit open keeps options but no answer key",
			row:      RawRow{"subject": "cs", "type": "OPEN", "a": "1", "correct": "a"},
			position: 2,
			want:     Question{Subject: "cs", Position: 2, Options: Options{A: "1"}, Type: TypeOpen},
		},
		{
			name:     "unknown type is mcq, invalid correct dropped",
			row:      RawRow{"subject": "cs", "type": "quiz", "correct": "e"},
			position: 4,
			want:     Question{Subject: "cs", Position: 4, Type: TypeMCQ},
		},
		{
			name:     "structured options",
			row:      RawRow{"subject": "biology", "options": `{"A": "cell", "b": "atom", "c": 3, "d": "gene"}`, "correct": "a"},
			position: 1,
			want: Question{
				Subject: "biology", Position: 1,
				Options: Options{A: "cell", B: "atom", C: "3", D: "gene"}, Correct: "a", Type: TypeMCQ,
			},
		},
		{
			name:     "structured options with foreign key falls back to flat columns",
			row:      RawRow{"subject": "biology", "options": `{"e": "x"}`, "a": "1", "b": "2", "c": "3", "d": "4"},
			position: 1,
			want: Question{
				Subject: "biology", Position: 1, Options: Options{A: "1", B: "2", C: "3", D: "4"}, Type: TypeMCQ,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeRow(tt.row, tt.position)
			if tt.wantErr {
				if _, ok := err.(*DataShapeError); !ok {
					t.Fatalf("failed! NormalizeRow() error = %v, want *DataShapeError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("failed! NormalizeRow() unexpected error: %v", err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQID(t *testing.T) {
	tests := []struct {
		in   string
		want null.Int
	}{
		{"", null.Int{}},
		{"12", null.IntFrom(12)},
		{"12.0", null.IntFrom(12)},
		{"12.5", null.Int{}},
		{"twelve", null.Int{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseQID(tt.in); got != tt.want {
				t.Errorf("failed! parseQID(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuestionLabel(t *testing.T) {
	tests := []struct {
		name string
		q    Question
		want string
	}{
		{name: "text", q: Question{Text: "Why?", QID: null.IntFrom(4), Position: 9}, want: "Why?"},
		{name: "qid", q: Question{QID: null.IntFrom(4), Position: 9}, want: "Question 4"},
		{name: "position", q: Question{Position: 9}, want: "Question 9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Label())
		})
	}
}
