package service

import (
	"sort"

	"identity-service/internal/models"
)

// matchPrimaryIDs resolves each matched contact to the primary it belongs to
// and returns the distinct ids in ascending order.
func matchPrimaryIDs(matches []*models.Contact) []int64 {
	seen := make(map[int64]struct{}, len(matches))
	ids := make([]int64, 0, len(matches))
	for _, c := range matches {
		id := c.PrimaryID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
