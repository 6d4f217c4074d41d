// Package attack holds the MITRE ATT&CK domain model: the node registry built
// from a STIX bundle and the mitigates graph between mitigations and techniques.
package attack

import (
	"slices"

	"github.com/Jaiwincr7/rag-based-model/internal/stix"
)

const (
	// CatalogSource is the external_references source_name carrying ATT&CK ids.
	CatalogSource = "mitre-attack"

	// KillChainName is the kill chain namespace whose phases are ATT&CK tactics.
	KillChainName = "mitre-attack"

	// DefaultDetectionText is used when an object has no detection field.
	DefaultDetectionText = "No specific detection logic provided in STIX."
)

// NodeType distinguishes the two indexed ATT&CK object kinds.
type NodeType string

const (
	NodeTypeTechnique  NodeType = "technique"
	NodeTypeMitigation NodeType = "mitigation"
)

func (t NodeType) String() string {
	return string(t)
}

// IsValid reports whether t is a known node type.
func (t NodeType) IsValid() bool {
	return t == NodeTypeTechnique || t == NodeTypeMitigation
}

// NodeTypeFromSTIX maps a STIX object type onto a NodeType. Object types
// other than attack-pattern and course-of-action are not indexed.
func NodeTypeFromSTIX(stixType string) (NodeType, bool) {
	switch stixType {
	case stix.TypeAttackPattern:
		return NodeTypeTechnique, true
	case stix.TypeCourseOfAction:
		return NodeTypeMitigation, true
	default:
		return "", false
	}
}

// NeighborSummary identifies a linked node by catalog id and name so an
// indexed record can be rendered without a second lookup.
type NeighborSummary struct {
	MitreID string `json:"mitre_id"`
	Name    string `json:"name"`
}

// String renders "M1043 Credential Access Protection".
func (s NeighborSummary) String() string {
	if s.Name == "" {
		return s.MitreID
	}
	return s.MitreID + " " + s.Name
}

// Node is a retained technique or mitigation. Nodes are immutable once the
// registry has been built.
type Node struct {
	StixID        string
	MitreID       string
	Name          string
	Type          NodeType
	Description   string
	Tactics       []string
	DetectionText string
}

// Summary returns the neighbor summary other nodes use to reference n.
func (n *Node) Summary() NeighborSummary {
	return NeighborSummary{MitreID: n.MitreID, Name: n.Name}
}

// HasTactic reports whether n is tagged with the normalized tactic name.
func (n *Node) HasTactic(tactic string) bool {
	return slices.Contains(n.Tactics, tactic)
}
