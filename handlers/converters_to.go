package handlers

import (
	"myregistry/domain"
)

func toInstanceInfo(i domain.Instance) InstanceInfo {
	meta := map[string]any(i.Meta)
	if meta == nil {
		meta = map[string]any{}
	}
	return InstanceInfo{
		Id:        i.ID,
		Group:     i.Group,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
		Meta:      meta,
	}
}

// toInstancesResponse keeps the store order. Never nil, so an empty group encodes as [].
func toInstancesResponse(instances []domain.Instance) []InstanceInfo {
	out := make([]InstanceInfo, 0, len(instances))
	for _, i := range instances {
		out = append(out, toInstanceInfo(i))
	}
	return out
}

func toSummaryResponse(summaries []domain.GroupSummary) []GroupSummaryInfo {
	out := make([]GroupSummaryInfo, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, GroupSummaryInfo{
			Group:         s.Group,
			Instances:     s.InstanceCount,
			CreatedAt:     s.EarliestCreated,
			LastUpdatedAt: s.LatestUpdated,
		})
	}
	return out
}
