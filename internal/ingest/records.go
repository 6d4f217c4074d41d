package ingest

import (
	"fmt"
	"strings"

	"github.com/Jaiwincr7/rag-based-model/internal/attack"
	"github.com/Jaiwincr7/rag-based-model/internal/retrieval"
)

// EmbeddingText renders the text that is embedded for a node.
func EmbeddingText(n *attack.Node) string {
	return fmt.Sprintf("ID: %s\nName: %s\nType: %s\nDescription: %s\nTactics: %s",
		n.MitreID, n.Name, n.Type, n.Description, strings.Join(n.Tactics, ", "))
}

// BuildRecords projects every retained technique and mitigation, with its
// adjacency, into an index record. Records follow registry (bundle) order and
// are keyed by STIX id. Detection text is stored in full.
func BuildRecords(reg *attack.Registry, g *attack.Graph) []retrieval.Record {
	nodes := reg.Nodes()
	records := make([]retrieval.Record, 0, len(nodes))
	for _, n := range nodes {
		if !n.Type.IsValid() {
			continue
		}
		records = append(records, retrieval.Record{
			ID:       n.StixID,
			Text:     EmbeddingText(n),
			Metadata: attack.MetadataFor(n, g),
		})
	}
	return records
}
