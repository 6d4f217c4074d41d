// Package stix decodes the STIX 2.x object bundle published by MITRE ATT&CK
// (enterprise-attack.json). Only the fields used for indexing are modelled.
package stix

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// Object types recognised by the ingestion pipeline.
const (
	TypeAttackPattern  = "attack-pattern"
	TypeCourseOfAction = "course-of-action"
	TypeRelationship   = "relationship"
)

// RelationshipMitigates is the relationship_type linking a course-of-action to
// the attack-pattern it mitigates.
const RelationshipMitigates = "mitigates"

// Bundle is the top-level document: a flat list of heterogeneous objects.
type Bundle struct {
	Type    string   `json:"type,omitempty"`
	ID      string   `json:"id,omitempty"`
	Objects []Object `json:"objects"`
}

// Object is a single STIX domain or relationship object. Unused fields in the
// source document are ignored on decode.
type Object struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	Revoked    bool `json:"revoked,omitempty"`
	Deprecated bool `json:"x_mitre_deprecated,omitempty"`

	// Detection is nil when the source object carries no detection field.
	Detection *string `json:"x_mitre_detection,omitempty"`

	ExternalReferences []ExternalReference `json:"external_references,omitempty"`
	KillChainPhases    []KillChainPhase    `json:"kill_chain_phases,omitempty"`

	RelationshipType string `json:"relationship_type,omitempty"`
	SourceRef        string `json:"source_ref,omitempty"`
	TargetRef        string `json:"target_ref,omitempty"`
}

// ExternalReference maps an object to an identifier in an external catalog,
// e.g. source "mitre-attack" with id "T1056.001".
type ExternalReference struct {
	SourceName string `json:"source_name"`
	ExternalID string `json:"external_id,omitempty"`
	URL        string `json:"url,omitempty"`
}

// KillChainPhase tags an attack pattern with a tactic within a kill chain.
type KillChainPhase struct {
	KillChainName string `json:"kill_chain_name"`
	PhaseName     string `json:"phase_name"`
}

// IsRelationship reports whether the object is a relationship record.
func (o Object) IsRelationship() bool {
	return o.Type == TypeRelationship
}

// Inactive reports whether the object is deprecated or revoked.
func (o Object) Inactive() bool {
	return o.Deprecated || o.Revoked
}

// ExternalID returns the first external id published under sourceName.
func (o Object) ExternalID(sourceName string) (string, bool) {
	for _, ref := range o.ExternalReferences {
		if ref.SourceName == sourceName && ref.ExternalID != "" {
			return ref.ExternalID, true
		}
	}
	return "", false
}

// DecodeBundle parses a bundle from r.
func DecodeBundle(r io.Reader) (*Bundle, error) {
	var bundle Bundle
	if err := json.NewDecoder(r).Decode(&bundle); err != nil {
		return nil, types.WrapError(types.BUNDLE_PARSE_FAILED, "failed to decode STIX bundle", err)
	}
	return &bundle, nil
}

// LoadBundle reads and parses the bundle file at path. A missing file is
// reported as BUNDLE_NOT_FOUND so callers can abort the run cleanly.
func LoadBundle(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.WrapError(types.BUNDLE_NOT_FOUND,
				fmt.Sprintf("bundle file %q not found", path), err)
		}
		return nil, types.WrapError(types.BUNDLE_READ_FAILED,
			fmt.Sprintf("failed to open bundle file %q", path), err)
	}
	defer f.Close()

	bundle, err := DecodeBundle(f)
	if err != nil {
		return nil, err
	}
	return bundle, nil
}
