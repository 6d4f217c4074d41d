package router

import (
	"regexp"
	"strings"

	"github.com/Jaiwincr7/rag-based-model/internal/attack"
)

// IntentKind identifies which handler answers a query.
type IntentKind string

const (
	IntentMitigationsFor IntentKind = "mitigations_for"
	IntentMitigatedBy    IntentKind = "mitigated_by"
	IntentTacticList     IntentKind = "tactic_list"
	IntentCatalogLookup  IntentKind = "catalog_lookup"
	IntentSemanticSearch IntentKind = "semantic_search"
)

func (k IntentKind) String() string {
	return string(k)
}

// Intent is the result of classifying a query. Only the fields relevant to
// Kind are set.
type Intent struct {
	Kind IntentKind

	// Mention is the entity text left after removing the trigger phrase.
	Mention string

	// Tactic is the vocabulary tactic named by a listing query.
	Tactic string

	// CatalogID is the upper-cased catalog id found in the query.
	CatalogID string
}

// classifier inspects the lower-cased query and reports whether it claims it.
type classifier func(q string) (Intent, bool)

// classifiers are evaluated in priority order; the first match wins.
var classifiers = []classifier{
	classifyMitigationsFor,
	classifyMitigatedBy,
	classifyTacticList,
	classifyCatalogLookup,
}

var (
	defenseTriggers = []string{"defenses for", "mitigations for", "mitigation for", "how to stop"}
	preventPattern  = regexp.MustCompile(`\bprevent(s|ing|ion)?\b`)
	inversePhrases  = []string{"mitigated by", "prevented by"}
	listPattern     = regexp.MustCompile(`\blist\b`)
)

// Classify maps a query to its intent. Queries that no classifier claims go
// to semantic search.
func Classify(query string) Intent {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, c := range classifiers {
		if intent, ok := c(q); ok {
			return intent
		}
	}
	return Intent{Kind: IntentSemanticSearch, Mention: q}
}

func classifyMitigationsFor(q string) (Intent, bool) {
	// "prevented by" is the inverse question and belongs to the next classifier.
	if strings.Contains(q, "prevented by") {
		return Intent{}, false
	}

	matched := preventPattern.MatchString(q)
	for _, t := range defenseTriggers {
		if strings.Contains(q, t) {
			matched = true
		}
	}
	if !matched {
		return Intent{}, false
	}

	mention := q
	for _, t := range defenseTriggers {
		mention = strings.ReplaceAll(mention, t, " ")
	}
	mention = preventPattern.ReplaceAllString(mention, " ")
	return Intent{Kind: IntentMitigationsFor, Mention: cleanMention(mention)}, true
}

func classifyMitigatedBy(q string) (Intent, bool) {
	cut := -1
	for _, p := range inversePhrases {
		if i := strings.LastIndex(q, p); i >= 0 && i+len(p) > cut {
			cut = i + len(p)
		}
	}
	if cut < 0 {
		return Intent{}, false
	}
	return Intent{Kind: IntentMitigatedBy, Mention: cleanMention(q[cut:])}, true
}

func classifyTacticList(q string) (Intent, bool) {
	if !listPattern.MatchString(q) {
		return Intent{}, false
	}
	tactic, ok := attack.MatchTactic(q)
	if !ok {
		return Intent{}, false
	}
	return Intent{Kind: IntentTacticList, Tactic: tactic}, true
}

func classifyCatalogLookup(q string) (Intent, bool) {
	id, ok := attack.FindCatalogID(q)
	if !ok {
		return Intent{}, false
	}
	return Intent{Kind: IntentCatalogLookup, CatalogID: id}, true
}

// cleanMention collapses whitespace and trims trailing punctuation.
func cleanMention(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRight(s, "?!.,;: ")
}
