package attack

import (
	"regexp"
	"strings"
)

// catalogIDPattern matches technique (T1234, T1234.001) and mitigation (M1043)
// identifiers.
var catalogIDPattern = regexp.MustCompile(`(?i)\b([TM]\d{4}(?:\.\d{3})?)\b`)

// FindCatalogID returns the first catalog id in text, upper-cased.
func FindCatalogID(text string) (string, bool) {
	m := catalogIDPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// IsCatalogID reports whether s is exactly one catalog id.
func IsCatalogID(s string) bool {
	loc := catalogIDPattern.FindStringIndex(s)
	return loc != nil && loc[0] == 0 && loc[1] == len(s)
}
