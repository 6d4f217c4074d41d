package stix

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

const sampleBundle = `{
  "type": "bundle",
  "id": "bundle--1",
  "objects": [
    {
      "type": "attack-pattern",
      "id": "attack-pattern--keylogging",
      "name": "Keylogging",
      "description": "Adversaries may log keystrokes.",
      "x_mitre_detection": "Monitor for hooking API calls.",
      "external_references": [
        {"source_name": "capec", "external_id": "CAPEC-568"},
        {"source_name": "mitre-attack", "external_id": "T1056.001", "url": "https://attack.mitre.org/techniques/T1056/001"}
      ],
      "kill_chain_phases": [
        {"kill_chain_name": "mitre-attack", "phase_name": "credential-access"}
      ]
    },
    {
      "type": "course-of-action",
      "id": "course-of-action--old",
      "name": "Old Mitigation",
      "revoked": true
    },
    {
      "type": "relationship",
      "id": "relationship--1",
      "relationship_type": "mitigates",
      "source_ref": "course-of-action--old",
      "target_ref": "attack-pattern--keylogging"
    }
  ]
}`

func TestDecodeBundle(t *testing.T) {
	bundle, err := DecodeBundle(strings.NewReader(sampleBundle))
	require.NoError(t, err)
	require.Len(t, bundle.Objects, 3)

	tech := bundle.Objects[0]
	assert.Equal(t, TypeAttackPattern, tech.Type)
	require.NotNil(t, tech.Detection)
	assert.Equal(t, "Monitor for hooking API calls.", *tech.Detection)

	id, ok := tech.ExternalID("mitre-attack")
	assert.True(t, ok)
	assert.Equal(t, "T1056.001", id)

	_, ok = tech.ExternalID("mitre-mobile-attack")
	assert.False(t, ok)

	assert.True(t, bundle.Objects[1].Inactive())
	assert.Nil(t, bundle.Objects[1].Detection)

	rel := bundle.Objects[2]
	assert.True(t, rel.IsRelationship())
	assert.Equal(t, RelationshipMitigates, rel.RelationshipType)
}

func TestDecodeBundle_Malformed(t *testing.T) {
	_, err := DecodeBundle(strings.NewReader(`{"objects": [`))
	require.Error(t, err)
	assert.Equal(t, types.BUNDLE_PARSE_FAILED, types.CodeOf(err))
}

func TestLoadBundle(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadBundle(filepath.Join(t.TempDir(), "enterprise-attack.json"))
		require.Error(t, err)

		var ragErr *types.RAGError
		require.ErrorAs(t, err, &ragErr)
		assert.Equal(t, types.BUNDLE_NOT_FOUND, ragErr.Code)
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "enterprise-attack.json")
		require.NoError(t, os.WriteFile(path, []byte(sampleBundle), 0o600))

		bundle, err := LoadBundle(path)
		require.NoError(t, err)
		assert.Len(t, bundle.Objects, 3)
	})
}
