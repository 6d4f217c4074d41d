package attack

// Metadata is the typed payload stored beside each indexed record. The
// neighbor lists are the denormalized graph: a technique carries
// LinkedMitigations, a mitigation carries LinkedTechniques.
type Metadata struct {
	StixID            string            `json:"stix_id"`
	MitreID           string            `json:"mitre_id"`
	Name              string            `json:"name"`
	Type              NodeType          `json:"type"`
	Tactics           []string          `json:"tactics"`
	LinkedMitigations []NeighborSummary `json:"linked_mitigations"`
	LinkedTechniques  []NeighborSummary `json:"linked_techniques"`
	DetectionText     string            `json:"detection_text"`
}

// Metadata field names usable in similarity filters.
const (
	FieldType    = "type"
	FieldMitreID = "mitre_id"
)

// MetadataFor projects a node and its adjacency into a Metadata value.
func MetadataFor(n *Node, g *Graph) Metadata {
	md := Metadata{
		StixID:            n.StixID,
		MitreID:           n.MitreID,
		Name:              n.Name,
		Type:              n.Type,
		Tactics:           append([]string{}, n.Tactics...),
		LinkedMitigations: []NeighborSummary{},
		LinkedTechniques:  []NeighborSummary{},
		DetectionText:     n.DetectionText,
	}
	switch n.Type {
	case NodeTypeTechnique:
		if links := g.MitigationsOf(n.StixID); links != nil {
			md.LinkedMitigations = links
		}
	case NodeTypeMitigation:
		if links := g.TechniquesMitigatedBy(n.StixID); links != nil {
			md.LinkedTechniques = links
		}
	}
	return md
}

// Summary returns the neighbor summary for the record's own node.
func (m Metadata) Summary() NeighborSummary {
	return NeighborSummary{MitreID: m.MitreID, Name: m.Name}
}

// HasTactic reports whether the record's own tactic list literally contains
// tactic.
func (m Metadata) HasTactic(tactic string) bool {
	for _, t := range m.Tactics {
		if t == tactic {
			return true
		}
	}
	return false
}
