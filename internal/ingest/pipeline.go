// Package ingest is the offline write path: load a STIX bundle, normalize it,
// build the mitigates graph, project index records and load them into the
// similarity index in one batch.
package ingest

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Jaiwincr7/rag-based-model/internal/attack"
	"github.com/Jaiwincr7/rag-based-model/internal/retrieval"
	"github.com/Jaiwincr7/rag-based-model/internal/stix"
)

// Report summarises one ingestion run.
type Report struct {
	RunID       string                `json:"run_id"`
	BundlePath  string                `json:"bundle_path"`
	Normalize   attack.NormalizeStats `json:"normalize"`
	Graph       attack.GraphStats     `json:"graph"`
	Records     int                   `json:"records"`
	Techniques  int                   `json:"techniques"`
	Mitigations int                   `json:"mitigations"`
	Rebuilt     bool                  `json:"rebuilt"`
	Exported    bool                  `json:"exported"`
	GraphCounts *GraphCounts          `json:"graph_counts,omitempty"`
	Duration    time.Duration         `json:"duration"`
}

// Pipeline runs ingestion against a similarity index.
type Pipeline struct {
	index    retrieval.SimilarityIndex
	exporter *GraphExporter
	rebuild  bool
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRebuild replaces the whole collection instead of upserting into it.
func WithRebuild(rebuild bool) Option {
	return func(p *Pipeline) { p.rebuild = rebuild }
}

// WithGraphExporter mirrors the graph to a graph database after indexing.
func WithGraphExporter(e *GraphExporter) Option {
	return func(p *Pipeline) { p.exporter = e }
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a pipeline. Rebuild is on by default so a rerun yields
// exactly the records of the new bundle.
func NewPipeline(index retrieval.SimilarityIndex, opts ...Option) *Pipeline {
	p := &Pipeline{
		index:   index,
		rebuild: true,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run ingests the bundle at path. It either completes or fails as a whole: a
// missing bundle aborts before the index is touched, and the batch write is
// the only step that mutates the index.
func (p *Pipeline) Run(ctx context.Context, path string) (*Report, error) {
	start := time.Now()
	report := &Report{RunID: uuid.NewString(), BundlePath: path, Rebuilt: p.rebuild}
	logger := p.logger.With("run_id", report.RunID)

	bundle, err := stix.LoadBundle(path)
	if err != nil {
		logger.ErrorContext(ctx, "failed to load bundle", "path", path, "error", err)
		return report, err
	}
	logger.InfoContext(ctx, "bundle loaded", "path", path, "objects", len(bundle.Objects))

	report, err = p.RunBundle(ctx, bundle, report)
	report.Duration = time.Since(start)
	return report, err
}

// RunBundle ingests an already decoded bundle. report may be nil.
func (p *Pipeline) RunBundle(ctx context.Context, bundle *stix.Bundle, report *Report) (*Report, error) {
	if report == nil {
		report = &Report{RunID: uuid.NewString(), Rebuilt: p.rebuild}
	}
	logger := p.logger.With("run_id", report.RunID)

	reg := attack.Normalize(bundle)
	report.Normalize = reg.Stats()
	report.Techniques = len(reg.NodesOfType(attack.NodeTypeTechnique))
	report.Mitigations = len(reg.NodesOfType(attack.NodeTypeMitigation))
	logger.InfoContext(ctx, "bundle normalized",
		"retained", report.Normalize.Retained,
		"techniques", report.Techniques,
		"mitigations", report.Mitigations,
		"inactive", report.Normalize.Inactive,
		"missing_id", report.Normalize.MissingID)

	g := attack.BuildGraph(reg, bundle.Objects)
	report.Graph = g.Stats()
	logger.InfoContext(ctx, "relationship graph built",
		"kept", report.Graph.Kept,
		"unresolved", report.Graph.Unresolved,
		"misoriented", report.Graph.Misoriented,
		"duplicates", report.Graph.Duplicates)

	records := BuildRecords(reg, g)
	report.Records = len(records)

	write := p.index.Upsert
	if p.rebuild {
		write = p.index.Rebuild
	}
	if err := write(ctx, records); err != nil {
		logger.ErrorContext(ctx, "failed to write records", "records", len(records), "error", err)
		return report, err
	}
	logger.InfoContext(ctx, "records indexed", "records", len(records), "rebuild", p.rebuild)

	if p.exporter != nil {
		summary, err := p.exporter.Export(ctx, reg, g)
		if err != nil {
			logger.ErrorContext(ctx, "graph export failed", "error", err)
			return report, err
		}
		report.Exported = true
		logger.InfoContext(ctx, "graph exported",
			"nodes_created", summary.NodesCreated,
			"relationships_created", summary.RelationshipsCreated)

		counts, err := p.exporter.Counts(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "graph export verification failed", "error", err)
			return report, err
		}
		report.GraphCounts = &counts
		if counts.Techniques != report.Techniques || counts.Mitigations != report.Mitigations || counts.Edges != report.Graph.Kept {
			logger.WarnContext(ctx, "exported graph does not match bundle",
				"techniques", counts.Techniques,
				"mitigations", counts.Mitigations,
				"edges", counts.Edges)
		}
	}

	if report.Records == 0 {
		logger.WarnContext(ctx, "bundle produced no indexable records")
	}
	return report, nil
}
