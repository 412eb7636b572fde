package quiz

import (
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/shule/core"
)

// minSuggestRatio is the similarity under which no suggestion is made.
const minSuggestRatio = .6

// SuggestSubject returns the configured subject code closest to `s`, or "" if none is similar enough.
func SuggestSubject(s string, subjects []core.Subject) string {
	s = core.CleanString(s, true /* lower */)
	if s == "" {
		return ""
	}
	var (
		best      string
		bestRatio float64
	)
	for _, sub := range subjects {
		for _, candidate := range []string{sub.Code, strings.ToLower(sub.Label)} {
			ratio := difflib.NewMatcher(strings.Split(s, ""), strings.Split(candidate, "")).Ratio()
			if ratio > bestRatio {
				best, bestRatio = sub.Code, ratio
			}
		}
	}
	if bestRatio < minSuggestRatio {
		return ""
	}
	return best
}

// UnknownSubject is a subject of the bank that is not configured.
type UnknownSubject struct {
	Code       string
	Questions  int
	Suggestion string // closest configured code, may be empty
}

// Unconfigured lists the bank subjects missing from `subjects`, sorted by code.
// Their questions are never shown to users.
func (b Bank) Unconfigured(subjects []core.Subject) []UnknownSubject {
	known := make(map[string]bool, len(subjects))
	for _, sub := range subjects {
		known[sub.Code] = true
	}
	var res []UnknownSubject
	for _, code := range b.Subjects() {
		if known[code] {
			continue
		}
		res = append(res, UnknownSubject{Code: code, Questions: b.Count(code), Suggestion: SuggestSubject(code, subjects)})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Code < res[j].Code })
	return res
}
