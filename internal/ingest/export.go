package ingest

import (
	"context"
	"fmt"

	"github.com/Jaiwincr7/rag-based-model/internal/attack"
	"github.com/Jaiwincr7/rag-based-model/internal/graphrag/graph"
	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// Cypher used to mirror the mitigates graph. The previous export is removed
// in the same transaction so the database always holds exactly one bundle.
const (
	cypherClear = `MATCH (n) WHERE n:Technique OR n:Mitigation DETACH DELETE n`

	cypherTechniques = `UNWIND $rows AS row
MERGE (t:Technique {stix_id: row.stix_id})
SET t.mitre_id = row.mitre_id, t.name = row.name, t.description = row.description,
    t.tactics = row.tactics, t.detection = row.detection`

	cypherMitigations = `UNWIND $rows AS row
MERGE (m:Mitigation {stix_id: row.stix_id})
SET m.mitre_id = row.mitre_id, m.name = row.name, m.description = row.description`

	cypherEdges = `UNWIND $edges AS e
MATCH (m:Mitigation {stix_id: e.mitigation}), (t:Technique {stix_id: e.technique})
MERGE (m)-[:MITIGATES]->(t)`

	cypherCounts = `OPTIONAL MATCH (t:Technique) WITH count(t) AS techniques
OPTIONAL MATCH (m:Mitigation) WITH techniques, count(m) AS mitigations
OPTIONAL MATCH (:Mitigation)-[r:MITIGATES]->(:Technique)
RETURN techniques, mitigations, count(r) AS edges`
)

// GraphCounts is what the graph database holds after an export.
type GraphCounts struct {
	Techniques  int `json:"techniques"`
	Mitigations int `json:"mitigations"`
	Edges       int `json:"edges"`
}

// GraphExporter writes the registry and graph to a graph database.
type GraphExporter struct {
	client graph.GraphClient
}

// NewGraphExporter wraps a connected client.
func NewGraphExporter(client graph.GraphClient) *GraphExporter {
	return &GraphExporter{client: client}
}

// Export replaces the Technique/Mitigation subgraph with the given bundle
// contents in one write transaction.
func (e *GraphExporter) Export(ctx context.Context, reg *attack.Registry, g *attack.Graph) (graph.QuerySummary, error) {
	var techniques, mitigations []map[string]any
	for _, n := range reg.Nodes() {
		row := map[string]any{
			"stix_id":     n.StixID,
			"mitre_id":    n.MitreID,
			"name":        n.Name,
			"description": n.Description,
		}
		switch n.Type {
		case attack.NodeTypeTechnique:
			row["tactics"] = append([]string{}, n.Tactics...)
			row["detection"] = n.DetectionText
			techniques = append(techniques, row)
		case attack.NodeTypeMitigation:
			mitigations = append(mitigations, row)
		}
	}

	edges := make([]map[string]any, 0, len(g.Edges()))
	for _, edge := range g.Edges() {
		edges = append(edges, map[string]any{
			"mitigation": edge.MitigationID,
			"technique":  edge.TechniqueID,
		})
	}

	summary, err := e.client.ExecuteWrite(ctx, []graph.Statement{
		{Cypher: cypherClear},
		{Cypher: cypherTechniques, Params: map[string]any{"rows": techniques}},
		{Cypher: cypherMitigations, Params: map[string]any{"rows": mitigations}},
		{Cypher: cypherEdges, Params: map[string]any{"edges": edges}},
	})
	if err != nil {
		return graph.QuerySummary{}, types.WrapError(types.INGEST_EXPORT_FAILED, "failed to export graph", err)
	}
	return summary, nil
}

// Counts reads back the exported node and edge totals.
func (e *GraphExporter) Counts(ctx context.Context) (GraphCounts, error) {
	res, err := e.client.Query(ctx, cypherCounts, nil)
	if err != nil {
		return GraphCounts{}, types.WrapError(types.INGEST_EXPORT_FAILED, "failed to count exported graph", err)
	}
	if len(res.Records) == 0 {
		return GraphCounts{}, nil
	}
	row := res.Records[0]

	var counts GraphCounts
	for key, dst := range map[string]*int{
		"techniques":  &counts.Techniques,
		"mitigations": &counts.Mitigations,
		"edges":       &counts.Edges,
	} {
		n, err := asInt(row[key])
		if err != nil {
			return GraphCounts{}, types.WrapError(types.INGEST_EXPORT_FAILED, "unexpected count column "+key, err)
		}
		*dst = n
	}
	return counts, nil
}

// asInt accepts the integer shapes the driver and the mock produce.
func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("%T is not an integer", v)
	}
}
