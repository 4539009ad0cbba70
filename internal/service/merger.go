package service

import (
	"context"
	"fmt"
	"sort"

	"identity-service/internal/apperr"
	"identity-service/internal/models"
	"identity-service/internal/repository"

	"go.uber.org/zap"
)

// merge collapses the clusters headed by primaryIDs into the cluster of the
// oldest primary. Losing primaries are demoted and their secondaries are
// re-pointed at the winner, so the hierarchy stays one level deep. Running it
// on an already merged cluster changes nothing.
func (s *ReconciliationService) merge(ctx context.Context, repo repository.ContactRepository, primaryIDs []int64, cluster []*models.Contact) (*models.Contact, error) {
	byID := make(map[int64]*models.Contact, len(cluster))
	for _, c := range cluster {
		byID[c.ID] = c
	}

	primaries := make([]*models.Contact, 0, len(primaryIDs))
	for _, id := range primaryIDs {
		c, ok := byID[id]
		if !ok || !c.IsPrimary() {
			s.logIntegrity("Matched contact links to a missing or non-primary contact", cluster, zap.Int64("primary_id", id))
			return nil, apperr.Integrity(fmt.Sprintf("contact %d is referenced as primary but is not one", id))
		}
		primaries = append(primaries, c)
	}

	sort.Slice(primaries, func(i, j int) bool { return models.Older(primaries[i], primaries[j]) })
	winner, losers := primaries[0], primaries[1:]

	loserIDs := make(map[int64]struct{}, len(losers))
	secondary := models.PrecedenceSecondary
	for _, loser := range losers {
		loserIDs[loser.ID] = struct{}{}
		if _, err := repo.Update(ctx, loser.ID, models.ContactUpdate{
			LinkedID:       &winner.ID,
			LinkPrecedence: &secondary,
		}); err != nil {
			return nil, apperr.Storage(fmt.Sprintf("failed to demote contact %d", loser.ID), err)
		}
	}

	relinked := 0
	for _, c := range cluster {
		if c.LinkedID == nil {
			continue
		}
		if _, ok := loserIDs[*c.LinkedID]; !ok {
			continue
		}
		if _, err := repo.Update(ctx, c.ID, models.ContactUpdate{LinkedID: &winner.ID}); err != nil {
			return nil, apperr.Storage(fmt.Sprintf("failed to re-link contact %d", c.ID), err)
		}
		relinked++
	}

	loserList := make([]int64, 0, len(losers))
	for _, l := range losers {
		loserList = append(loserList, l.ID)
	}
	s.logger.Info("Merged contact clusters",
		zap.Int64("primary_id", winner.ID),
		zap.Int64s("demoted_ids", loserList),
		zap.Int("relinked", relinked),
	)

	return winner, nil
}
