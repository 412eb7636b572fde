package quiz

import (
	"fmt"
	"sort"

	"github.com/trezcool/shule/core"
)

// Bank maps a subject code to its questions, sorted by qid.
type Bank map[string][]Question

// LoadReport summarizes a LoadBank pass.
type LoadReport struct {
	Rows     int     // rows received
	Kept     int     // questions in the bank
	Filtered int     // questions of another group
	Skipped  []error // rows dropped, as *DataShapeError
}

// LoadBank normalizes `rows` into a Bank. With a non-empty `group`, questions tagged with
// another group are left out; untagged questions apply to every group.
// A qid is unique within a subject: later rows repeating it are skipped.
// The result only depends on `rows` and `group`.
func LoadBank(rows []RawRow, group string) (Bank, LoadReport) {
	group = core.NormalizeGroup(group)
	bank := make(Bank)
	report := LoadReport{Rows: len(rows)}
	seen := make(map[string]map[int]bool) // {subject: {qid}}

	for i, row := range rows {
		q, err := NormalizeRow(row, i+1)
		if err != nil {
			report.Skipped = append(report.Skipped, err)
			continue
		}
		if group != core.GroupAll && q.Group != core.GroupAll && q.Group != group {
			report.Filtered++
			continue
		}
		if q.QID.Valid {
			if seen[q.Subject] == nil {
				seen[q.Subject] = make(map[int]bool)
			}
			if seen[q.Subject][q.QID.Int] {
				report.Skipped = append(report.Skipped, &DataShapeError{
					Position: q.Position, Field: "qid", Reason: fmt.Sprintf("duplicate qid %d in %s", q.QID.Int, q.Subject),
				})
				continue
			}
			seen[q.Subject][q.QID.Int] = true
		}
		bank[q.Subject] = append(bank[q.Subject], q)
		report.Kept++
	}

	for _, questions := range bank {
		SortQuestions(questions)
	}
	return bank, report
}

// SortQuestions sorts by ascending qid; questions without a valid qid go last,
// keeping their relative order.
func SortQuestions(questions []Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		qi, qj := questions[i].QID, questions[j].QID
		if qi.Valid && qj.Valid {
			return qi.Int < qj.Int
		}
		return qi.Valid && !qj.Valid
	})
}

// Subjects returns the subject codes of the bank, sorted.
func (b Bank) Subjects() []string {
	codes := make([]string, 0, len(b))
	for code := range b {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Count returns the number of questions of `subject`.
func (b Bank) Count(subject string) int {
	return len(b[subject])
}
