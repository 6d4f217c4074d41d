package attack

import (
	"github.com/Jaiwincr7/rag-based-model/internal/stix"
)

func technique(stixID, mitreID, name string, phases ...string) stix.Object {
	obj := stix.Object{
		Type:               stix.TypeAttackPattern,
		ID:                 stixID,
		Name:               name,
		Description:        name + " description",
		ExternalReferences: []stix.ExternalReference{{SourceName: CatalogSource, ExternalID: mitreID}},
	}
	for _, p := range phases {
		obj.KillChainPhases = append(obj.KillChainPhases, stix.KillChainPhase{KillChainName: KillChainName, PhaseName: p})
	}
	return obj
}

func mitigation(stixID, mitreID, name string) stix.Object {
	return stix.Object{
		Type:               stix.TypeCourseOfAction,
		ID:                 stixID,
		Name:               name,
		ExternalReferences: []stix.ExternalReference{{SourceName: CatalogSource, ExternalID: mitreID}},
	}
}

func mitigates(src, tgt string) stix.Object {
	return stix.Object{
		Type:             stix.TypeRelationship,
		ID:               "relationship--" + src + "--" + tgt,
		RelationshipType: stix.RelationshipMitigates,
		SourceRef:        src,
		TargetRef:        tgt,
	}
}
