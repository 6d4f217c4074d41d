package retrieval

import (
	"encoding/json"

	"github.com/Jaiwincr7/rag-based-model/internal/attack"
	"github.com/Jaiwincr7/rag-based-model/internal/memory/vector"
)

// encodeMetadata flattens the typed payload into the store's map form. The
// filterable fields (type, mitre_id) end up as top-level strings.
func encodeMetadata(md attack.Metadata) (map[string]any, error) {
	data, err := json.Marshal(md)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeMetadata reverses encodeMetadata. It accepts maps that went through a
// JSON round trip in a persistent backend as well as in-memory ones.
func decodeMetadata(m map[string]any) (attack.Metadata, error) {
	var md attack.Metadata
	if m == nil {
		return md, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return md, err
	}
	if err := json.Unmarshal(data, &md); err != nil {
		return md, err
	}
	return md, nil
}

func recordFromVector(vr vector.VectorRecord) (Record, error) {
	md, err := decodeMetadata(vr.Metadata)
	if err != nil {
		return Record{}, err
	}
	return Record{ID: vr.ID, Text: vr.Content, Metadata: md}, nil
}

func toFilters(f map[string]string) map[string]any {
	if len(f) == 0 {
		return nil
	}
	out := make(map[string]any, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
