package service

import (
	"fmt"
	"sort"

	"identity-service/internal/apperr"
	"identity-service/internal/models"

	"go.uber.org/zap"
)

// respond builds the consolidated view of a cluster: the primary first, then
// secondaries oldest first, with emails and phone numbers deduplicated in
// that order.
func (s *ReconciliationService) respond(cluster []*models.Contact) (*models.IdentifyResponse, error) {
	var primary *models.Contact
	primaries := 0
	for _, c := range cluster {
		if c.IsPrimary() {
			primary = c
			primaries++
		}
	}
	if primaries != 1 {
		s.logIntegrity("Cluster does not have exactly one primary", cluster, zap.Int("primaries", primaries))
		return nil, apperr.Integrity(fmt.Sprintf("cluster has %d primary contacts", primaries))
	}

	secondaries := make([]*models.Contact, 0, len(cluster)-1)
	for _, c := range cluster {
		if c.IsPrimary() {
			continue
		}
		if c.LinkedID == nil || *c.LinkedID != primary.ID {
			s.logIntegrity("Secondary contact is not linked to the cluster primary", cluster,
				zap.Int64("contact_id", c.ID),
				zap.Int64("primary_id", primary.ID),
			)
			return nil, apperr.Integrity(fmt.Sprintf("contact %d is not linked to primary %d", c.ID, primary.ID))
		}
		secondaries = append(secondaries, c)
	}
	sort.Slice(secondaries, func(i, j int) bool { return models.Older(secondaries[i], secondaries[j]) })

	emails := []string{}
	phoneNumbers := []string{}
	secondaryContactIDs := []int64{}
	seenEmail := make(map[string]struct{})
	seenPhone := make(map[string]struct{})

	for _, c := range append([]*models.Contact{primary}, secondaries...) {
		if c.Email != nil {
			if _, ok := seenEmail[*c.Email]; !ok {
				seenEmail[*c.Email] = struct{}{}
				emails = append(emails, *c.Email)
			}
		}
		if c.PhoneNumber != nil {
			if _, ok := seenPhone[*c.PhoneNumber]; !ok {
				seenPhone[*c.PhoneNumber] = struct{}{}
				phoneNumbers = append(phoneNumbers, *c.PhoneNumber)
			}
		}
		if !c.IsPrimary() {
			secondaryContactIDs = append(secondaryContactIDs, c.ID)
		}
	}

	return &models.IdentifyResponse{
		Contact: models.ContactResponse{
			PrimaryContactID:    primary.ID,
			Emails:              emails,
			PhoneNumbers:        phoneNumbers,
			SecondaryContactIDs: secondaryContactIDs,
		},
	}, nil
}

// logIntegrity records a broken cluster with its full state.
func (s *ReconciliationService) logIntegrity(msg string, cluster []*models.Contact, fields ...zap.Field) {
	fields = append(fields, zap.Any("cluster", cluster))
	s.logger.Error(msg, fields...)
}
