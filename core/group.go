package core

// Groups
const (
	GroupAll    = "" // questions without a group apply to everybody
	GroupJunior = "junior"
	GroupSenior = "senior"
)

var (
	Groups = []string{GroupJunior, GroupSenior}

	groupAliases = map[string]string{
		"junior":  GroupJunior,
		"младшая": GroupJunior,
		"младшие": GroupJunior,
		"senior":  GroupSenior,
		"старшая": GroupSenior,
		"старшие": GroupSenior,
	}
)

// NormalizeGroup maps a group tag (english or russian, any case) to its code.
// Unknown tags are returned cleaned and lowered so they still compare case-insensitively.
func NormalizeGroup(s string) string {
	s = CleanString(s, true /* lower */)
	if g, ok := groupAliases[s]; ok {
		return g
	}
	return s
}

// IsKnownGroup reports whether `s` names a group or is empty (every group).
func IsKnownGroup(s string) bool {
	s = NormalizeGroup(s)
	if s == GroupAll {
		return true
	}
	_, ok := groupAliases[s]
	return ok
}
