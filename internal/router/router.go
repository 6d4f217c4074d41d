// Package router answers free-text ATT&CK questions. A query is classified
// into one of a fixed, ordered set of intents; structured intents resolve an
// anchor node through confidence-gated similarity search and answer from the
// anchor's denormalized links, everything else falls back to ranked semantic
// search.
package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/Jaiwincr7/rag-based-model/internal/attack"
	"github.com/Jaiwincr7/rag-based-model/internal/retrieval"
)

const (
	// DefaultConfidenceThreshold is the largest distance accepted as a match.
	DefaultConfidenceThreshold = 1.2

	// DefaultQueryTimeout bounds each similarity call.
	DefaultQueryTimeout = 10 * time.Second

	detectionDisplayLen = 300
	excerptLen          = 200
	tacticSearchK       = 100
	tacticListCap       = 15
	fallbackK           = 3
)

// Metric names.
const (
	MetricQueries = "mitrerag.router.queries"
	MetricLatency = "mitrerag.router.latency"
)

// Outcome classifies how a query was resolved.
type Outcome string

const (
	// OutcomeAnswered means a structured or semantic answer was produced.
	OutcomeAnswered Outcome = "answered"
	// OutcomeNoAnchor means the mention did not resolve to a confident node.
	OutcomeNoAnchor Outcome = "no_anchor"
	// OutcomeEmpty means the anchor or tactic had nothing to list.
	OutcomeEmpty Outcome = "empty"
	// OutcomeRejected means semantic search found nothing confident.
	OutcomeRejected Outcome = "rejected"
	// OutcomeRetrievalFailed means the similarity index errored or timed out.
	OutcomeRetrievalFailed Outcome = "retrieval_failed"
)

// Answer is the router's response to one query.
type Answer struct {
	Intent  IntentKind `json:"intent"`
	Outcome Outcome    `json:"outcome"`
	Text    string     `json:"answer"`
}

// Solver answers queries. Router implements it; decorators such as the
// answer cache wrap it.
type Solver interface {
	Answer(ctx context.Context, query string) Answer
}

// Router is safe for concurrent use. It holds no per-query state.
type Router struct {
	searcher  retrieval.Searcher
	threshold float64
	timeout   time.Duration
	logger    *slog.Logger
	meter     metric.Meter

	queries metric.Int64Counter
	latency metric.Float64Histogram
}

// Option configures a Router.
type Option func(*Router)

// WithConfidenceThreshold sets the maximum accepted distance.
func WithConfidenceThreshold(threshold float64) Option {
	return func(r *Router) { r.threshold = threshold }
}

// WithQueryTimeout bounds each similarity call. Zero disables the bound.
func WithQueryTimeout(timeout time.Duration) Option {
	return func(r *Router) { r.timeout = timeout }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMeter records query counts and latency on meter.
func WithMeter(meter metric.Meter) Option {
	return func(r *Router) {
		if meter != nil {
			r.meter = meter
		}
	}
}

// New creates a router over searcher.
func New(searcher retrieval.Searcher, opts ...Option) (*Router, error) {
	if searcher == nil {
		return nil, errors.New("router: searcher is required")
	}

	r := &Router{
		searcher:  searcher,
		threshold: DefaultConfidenceThreshold,
		timeout:   DefaultQueryTimeout,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		meter:     noop.NewMeterProvider().Meter("mitrerag/router"),
	}
	for _, opt := range opts {
		opt(r)
	}

	var err error
	r.queries, err = r.meter.Int64Counter(MetricQueries,
		metric.WithDescription("Queries answered, by intent and outcome"))
	if err != nil {
		return nil, err
	}
	r.latency, err = r.meter.Float64Histogram(MetricLatency,
		metric.WithDescription("Query latency"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Solve returns only the answer text.
func (r *Router) Solve(ctx context.Context, query string) string {
	return r.Answer(ctx, query).Text
}

// Answer classifies query and runs the matching handler. It never fails:
// misses become explicit messages and retrieval errors become
// OutcomeRetrievalFailed.
func (r *Router) Answer(ctx context.Context, query string) Answer {
	start := time.Now()
	intent := Classify(query)

	ans, err := r.dispatch(ctx, query, intent)
	if err != nil {
		r.logger.WarnContext(ctx, "retrieval failed",
			"intent", intent.Kind,
			"error", err)
		ans = Answer{Intent: ans.Intent, Outcome: OutcomeRetrievalFailed, Text: formatRetrievalFailed()}
		if ans.Intent == "" {
			ans.Intent = intent.Kind
		}
	}

	elapsed := time.Since(start)
	attrs := metric.WithAttributes(
		attribute.String("intent", string(ans.Intent)),
		attribute.String("outcome", string(ans.Outcome)),
	)
	r.queries.Add(ctx, 1, attrs)
	r.latency.Record(ctx, elapsed.Seconds(), attrs)

	r.logger.DebugContext(ctx, "query answered",
		"intent", ans.Intent,
		"outcome", ans.Outcome,
		"duration", elapsed)
	return ans
}

func (r *Router) dispatch(ctx context.Context, query string, intent Intent) (Answer, error) {
	if strings.TrimSpace(query) == "" {
		return Answer{Intent: IntentSemanticSearch, Outcome: OutcomeRejected, Text: formatRejection()}, nil
	}

	switch intent.Kind {
	case IntentMitigationsFor:
		return r.mitigationsFor(ctx, intent.Mention)
	case IntentMitigatedBy:
		return r.mitigatedBy(ctx, intent.Mention)
	case IntentTacticList:
		return r.tacticList(ctx, intent.Tactic)
	case IntentCatalogLookup:
		ans, found, err := r.catalogLookup(ctx, query, intent.CatalogID)
		if err != nil || found {
			return ans, err
		}
		// Unknown id: fall through to semantic search.
	}
	return r.semanticSearch(ctx, query)
}

// search runs one bounded similarity call.
func (r *Router) search(ctx context.Context, q retrieval.Query) ([]retrieval.Hit, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.searcher.Search(ctx, q)
}

// resolveAnchor returns the best node of type t for mention, or nil when the
// best match is missing or farther than the confidence threshold.
func (r *Router) resolveAnchor(ctx context.Context, mention string, t attack.NodeType) (*attack.Metadata, error) {
	if strings.TrimSpace(mention) == "" {
		return nil, nil
	}
	hits, err := r.search(ctx, retrieval.Query{Text: mention, K: 1, Filter: retrieval.TypeFilter(t)})
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 || !r.confident(hits[0].Distance) {
		return nil, nil
	}
	md := hits[0].Record.Metadata
	return &md, nil
}

func (r *Router) confident(distance float64) bool {
	return distance <= r.threshold
}

func (r *Router) mitigationsFor(ctx context.Context, mention string) (Answer, error) {
	ans := Answer{Intent: IntentMitigationsFor}
	anchor, err := r.resolveAnchor(ctx, mention, attack.NodeTypeTechnique)
	if err != nil {
		return ans, err
	}
	if anchor == nil {
		ans.Outcome = OutcomeNoAnchor
		ans.Text = formatUnknownTechnique(mention)
		return ans, nil
	}
	ans.Outcome = OutcomeAnswered
	ans.Text = formatDefenses(*anchor)
	return ans, nil
}

func (r *Router) mitigatedBy(ctx context.Context, mention string) (Answer, error) {
	ans := Answer{Intent: IntentMitigatedBy}
	anchor, err := r.resolveAnchor(ctx, mention, attack.NodeTypeMitigation)
	if err != nil {
		return ans, err
	}
	switch {
	case anchor == nil:
		ans.Outcome = OutcomeNoAnchor
		ans.Text = formatUnknownMitigation(mention)
	case len(anchor.LinkedTechniques) == 0:
		ans.Outcome = OutcomeEmpty
		ans.Text = formatNoMappedTechniques(anchor.Name)
	default:
		ans.Outcome = OutcomeAnswered
		ans.Text = formatMitigatedTechniques(anchor.Name, anchor.LinkedTechniques)
	}
	return ans, nil
}

// tacticList keeps only hits whose own tactic set contains tactic, however
// close the others are.
func (r *Router) tacticList(ctx context.Context, tactic string) (Answer, error) {
	ans := Answer{Intent: IntentTacticList}
	hits, err := r.search(ctx, retrieval.Query{
		Text:   tactic,
		K:      tacticSearchK,
		Filter: retrieval.TypeFilter(attack.NodeTypeTechnique),
	})
	if err != nil {
		return ans, err
	}

	seen := make(map[string]struct{})
	var entries []string
	for _, h := range hits {
		if !h.Record.Metadata.HasTactic(tactic) {
			continue
		}
		entry := formatTagged(h.Record.Metadata)
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		ans.Outcome = OutcomeEmpty
		ans.Text = formatNoTaggedTechniques(tactic)
		return ans, nil
	}
	sort.Strings(entries)
	if len(entries) > tacticListCap {
		entries = entries[:tacticListCap]
	}
	ans.Outcome = OutcomeAnswered
	ans.Text = formatTacticList(tactic, entries)
	return ans, nil
}

func (r *Router) catalogLookup(ctx context.Context, query, id string) (Answer, bool, error) {
	ans := Answer{Intent: IntentCatalogLookup}
	hits, err := r.search(ctx, retrieval.Query{Text: query, K: 1, Filter: retrieval.IDFilter(id)})
	if err != nil {
		return ans, false, err
	}
	if len(hits) == 0 {
		return ans, false, nil
	}
	ans.Outcome = OutcomeAnswered
	ans.Text = formatCatalogEntry(hits[0].Record)
	return ans, true, nil
}

func (r *Router) semanticSearch(ctx context.Context, query string) (Answer, error) {
	ans := Answer{Intent: IntentSemanticSearch}
	hits, err := r.search(ctx, retrieval.Query{
		Text:   query,
		K:      fallbackK,
		Filter: retrieval.TypeFilter(attack.NodeTypeTechnique),
	})
	if err != nil {
		return ans, err
	}

	var matches []attack.Metadata
	for _, h := range hits {
		if r.confident(h.Distance) {
			matches = append(matches, h.Record.Metadata)
		}
	}
	if len(matches) == 0 {
		ans.Outcome = OutcomeRejected
		ans.Text = formatRejection()
		return ans, nil
	}
	ans.Outcome = OutcomeAnswered
	ans.Text = formatSemanticMatches(matches)
	return ans, nil
}
