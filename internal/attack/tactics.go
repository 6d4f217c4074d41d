package attack

import (
	"regexp"
	"strings"
)

// Tactics is the closed vocabulary of enterprise tactic names, in the order
// used when a query mentions more than one.
var Tactics = []string{
	"reconnaissance",
	"resource development",
	"initial access",
	"execution",
	"persistence",
	"privilege escalation",
	"defense evasion",
	"credential access",
	"discovery",
	"lateral movement",
	"collection",
	"command and control",
	"exfiltration",
	"impact",
}

var tacticPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(Tactics))
	for i, t := range Tactics {
		out[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b`)
	}
	return out
}()

// NormalizeTactic lowercases a kill chain phase name and turns separators into
// single spaces: "Credential-Access" becomes "credential access".
func NormalizeTactic(phase string) string {
	s := strings.ToLower(phase)
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// MatchTactic returns the first vocabulary tactic mentioned in text as a whole
// phrase. Matching is case-insensitive and tolerates hyphenated spellings.
func MatchTactic(text string) (string, bool) {
	normalized := NormalizeTactic(text)
	for i, re := range tacticPatterns {
		if re.MatchString(normalized) {
			return Tactics[i], true
		}
	}
	return "", false
}
