package attack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaiwincr7/rag-based-model/internal/stix"
)

func TestNormalize(t *testing.T) {
	detection := "Monitor keyboard hooks."

	keylogging := technique("attack-pattern--1", "t1056.001", "Keylogging", "credential-access", "collection", "collection")
	keylogging.Detection = &detection
	keylogging.KillChainPhases = append(keylogging.KillChainPhases, stix.KillChainPhase{KillChainName: "mitre-mobile-attack", PhaseName: "impact"})

	deprecated := technique("attack-pattern--2", "T0001", "Old", "execution")
	deprecated.Deprecated = true

	revoked := mitigation("course-of-action--2", "M0001", "Revoked")
	revoked.Revoked = true

	noID := technique("attack-pattern--3", "", "No Catalog Id")
	noID.ExternalReferences = []stix.ExternalReference{{SourceName: "capec", ExternalID: "CAPEC-1"}}

	bundle := &stix.Bundle{Objects: []stix.Object{
		keylogging,
		mitigation("course-of-action--1", "M1043", "Credential Access Protection"),
		deprecated,
		revoked,
		noID,
		{Type: "intrusion-set", ID: "intrusion-set--1", ExternalReferences: []stix.ExternalReference{{SourceName: CatalogSource, ExternalID: "G0001"}}},
		mitigates("course-of-action--1", "attack-pattern--1"),
	}}

	reg := Normalize(bundle)
	require.Equal(t, 2, reg.Len())

	tech, ok := reg.Get("attack-pattern--1")
	require.True(t, ok)
	assert.Equal(t, "T1056.001", tech.MitreID)
	assert.Equal(t, NodeTypeTechnique, tech.Type)
	assert.Equal(t, []string{"credential access", "collection"}, tech.Tactics)
	assert.Equal(t, detection, tech.DetectionText)

	mit, ok := reg.Get("course-of-action--1")
	require.True(t, ok)
	assert.Equal(t, NodeTypeMitigation, mit.Type)
	assert.Empty(t, mit.Tactics)
	assert.Equal(t, DefaultDetectionText, mit.DetectionText)

	for _, dropped := range []string{"attack-pattern--2", "course-of-action--2", "attack-pattern--3", "intrusion-set--1"} {
		_, ok := reg.Get(dropped)
		assert.False(t, ok, dropped)
	}

	stats := reg.Stats()
	assert.Equal(t, 7, stats.Objects)
	assert.Equal(t, 1, stats.Relationships)
	assert.Equal(t, 2, stats.Retained)
	assert.Equal(t, 2, stats.Inactive)
	assert.Equal(t, 1, stats.MissingID)
	assert.Equal(t, 1, stats.Unsupported)

	assert.Len(t, reg.NodesOfType(NodeTypeTechnique), 1)
	assert.Len(t, reg.NodesOfType(NodeTypeMitigation), 1)
}

func TestNormalize_NilBundle(t *testing.T) {
	assert.Equal(t, 0, Normalize(nil).Len())
}

func TestNormalizeTactic(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"credential-access", "credential access"},
		{"Command-And-Control", "command and control"},
		{"privilege_escalation", "privilege escalation"},
		{"  impact ", "impact"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTactic(tt.in))
		})
	}
}

func TestMatchTactic(t *testing.T) {
	tests := []struct {
		query string
		want  string
		ok    bool
	}{
		{"List techniques under Credential Access", "credential access", true},
		{"list lateral-movement techniques", "lateral movement", true},
		{"list exfiltration and collection", "collection", true},
		{"list things", "", false},
		{"list impactful techniques", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, ok := MatchTactic(tt.query)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindCatalogID(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"What is T1003.001?", "T1003.001", true},
		{"explain t1059", "T1059", true},
		{"Audit (M1047)", "M1047", true},
		{"T10590 is not an id", "", false},
		{"nothing here", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := FindCatalogID(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.True(t, IsCatalogID("T1056.001"))
	assert.False(t, IsCatalogID("see T1056"))
}
