package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/Jaiwincr7/rag-based-model/internal/attack"
	"github.com/Jaiwincr7/rag-based-model/internal/retrieval"
)

// scriptedSearcher returns canned hits per query text, applying the query's
// filter and K the way the real index does.
type scriptedSearcher struct {
	mu      sync.Mutex
	script  map[string][]retrieval.Hit
	err     error
	block   bool
	queries []retrieval.Query
}

func newScriptedSearcher() *scriptedSearcher {
	return &scriptedSearcher{script: make(map[string][]retrieval.Hit)}
}

func (s *scriptedSearcher) on(text string, hits ...retrieval.Hit) *scriptedSearcher {
	s.script[text] = append(s.script[text], hits...)
	return s
}

func (s *scriptedSearcher) Search(ctx context.Context, q retrieval.Query) ([]retrieval.Hit, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	err, block := s.err, s.block
	hits := s.script[q.Text]
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	out := []retrieval.Hit{}
	for _, h := range hits {
		if !matches(h.Record.Metadata, q.Filter) {
			continue
		}
		out = append(out, h)
		if len(out) == q.K {
			break
		}
	}
	return out, nil
}

func (s *scriptedSearcher) recorded() []retrieval.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]retrieval.Query(nil), s.queries...)
}

func matches(md attack.Metadata, filter map[string]string) bool {
	for k, v := range filter {
		switch k {
		case attack.FieldType:
			if string(md.Type) != v {
				return false
			}
		case attack.FieldMitreID:
			if md.MitreID != v {
				return false
			}
		default:
			panic(fmt.Sprintf("unexpected filter field %q", k))
		}
	}
	return true
}

func hit(md attack.Metadata, distance float64) retrieval.Hit {
	return retrieval.Hit{
		Record: retrieval.Record{
			ID:       md.StixID,
			Text:     fmt.Sprintf("ID: %s\nName: %s\nType: %s\nDescription: %s description", md.MitreID, md.Name, md.Type, md.Name),
			Metadata: md,
		},
		Distance: distance,
	}
}

func techniqueMD(id, name string, tactics ...string) attack.Metadata {
	return attack.Metadata{
		StixID:            "attack-pattern--" + id,
		MitreID:           id,
		Name:              name,
		Type:              attack.NodeTypeTechnique,
		Tactics:           append([]string{}, tactics...),
		LinkedMitigations: []attack.NeighborSummary{},
		LinkedTechniques:  []attack.NeighborSummary{},
		DetectionText:     attack.DefaultDetectionText,
	}
}

func mitigationMD(id, name string, techniques ...attack.NeighborSummary) attack.Metadata {
	return attack.Metadata{
		StixID:            "course-of-action--" + id,
		MitreID:           id,
		Name:              name,
		Type:              attack.NodeTypeMitigation,
		Tactics:           []string{},
		LinkedMitigations: []attack.NeighborSummary{},
		LinkedTechniques:  append([]attack.NeighborSummary{}, techniques...),
		DetectionText:     attack.DefaultDetectionText,
	}
}

func keylogging() attack.Metadata {
	md := techniqueMD("T1056.001", "Keylogging", "credential access", "collection")
	md.LinkedMitigations = []attack.NeighborSummary{{MitreID: "M1043", Name: "Credential Access Protection"}}
	md.DetectionText = "Keyloggers may take many forms. Monitor for API calls to SetWindowsHook."
	return md
}
