package sheets

import "github.com/trezcool/shule/core"

// Tables
const (
	TableUsers   = "users"
	TableTests   = "tests"
	TableResults = "results"
	TableSignup  = "signup"
)

// Schemas holds the header of every table. Column order is part of the contract
// with the spreadsheet editors and must not change.
var Schemas = map[string][]string{
	TableUsers:   {"email", "name", "role", "active"},
	TableTests:   {"subject", "qid", "question", "a", "b", "c", "d", "correct", "group", "type"},
	TableResults: {"timestamp", "email", "subject", "score", "total", "answers"},
	TableSignup:  {"timestamp", "name", "email", "request"},
}

// Tables lists the tables in creation order.
var Tables = []string{TableUsers, TableTests, TableResults, TableSignup}

// Row is a data row keyed by normalized header.
type Row map[string]string

// Get returns the cell of `col`, "" if absent.
func (r Row) Get(col string) string {
	return r[normalizeHeader(col)]
}

func normalizeHeader(h string) string {
	return core.CleanString(h, true /* lower */)
}

// toRows maps raw sheet values to Rows using the first row as header.
// Blank header cells are ignored, short rows are padded with "".
func toRows(values [][]string) []Row {
	if len(values) == 0 {
		return []Row{}
	}
	header := make([]string, len(values[0]))
	for i, h := range values[0] {
		header[i] = normalizeHeader(h)
	}

	rows := make([]Row, 0, len(values)-1)
	for _, vals := range values[1:] {
		if isBlank(vals) {
			continue
		}
		row := make(Row, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if _, dup := row[h]; dup {
				continue // first column wins
			}
			if i < len(vals) {
				row[h] = vals[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func isBlank(vals []string) bool {
	for _, v := range vals {
		if core.CleanString(v) != "" {
			return false
		}
	}
	return true
}
