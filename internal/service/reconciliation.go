package service

import (
	"context"

	"identity-service/internal/apperr"
	"identity-service/internal/models"
	"identity-service/internal/repository"

	"go.uber.org/zap"
)

// ReconciliationService handles identity reconciliation logic
type ReconciliationService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(store repository.Store, logger *zap.Logger) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{store: store, logger: logger}
}

// Identify links the request's email and phone number into the contact graph
// and returns the consolidated view of the resulting cluster.
//
// The whole read-decide-write sequence runs in one store transaction.
func (s *ReconciliationService) Identify(ctx context.Context, req models.IdentifyRequest) (*models.IdentifyResponse, error) {
	email, phoneNumber := req.Normalized()
	if email == nil && phoneNumber == nil {
		return nil, apperr.Validation("Either email or phoneNumber must be provided")
	}

	var response *models.IdentifyResponse
	err := s.store.WithinTx(ctx, func(repo repository.ContactRepository) error {
		var err error
		response, err = s.identify(ctx, repo, email, phoneNumber)
		return err
	})
	if err != nil {
		return nil, apperr.Storage("identify failed", err)
	}
	return response, nil
}

func (s *ReconciliationService) identify(ctx context.Context, repo repository.ContactRepository, email, phoneNumber *string) (*models.IdentifyResponse, error) {
	matches, err := repo.FindByEmailOrPhone(ctx, email, phoneNumber)
	if err != nil {
		return nil, apperr.Storage("failed to find matching contacts", err)
	}

	primaryIDs := matchPrimaryIDs(matches)
	if len(primaryIDs) == 0 {
		created, err := repo.Create(ctx, models.NewContact{
			Email:          email,
			PhoneNumber:    phoneNumber,
			LinkPrecedence: models.PrecedencePrimary,
		})
		if err != nil {
			return nil, apperr.Storage("failed to create primary contact", err)
		}
		s.logger.Debug("Created primary contact", zap.Int64("id", created.ID))
		return s.respond([]*models.Contact{created})
	}

	cluster, err := repo.FindClusterByPrimaryIDs(ctx, primaryIDs)
	if err != nil {
		return nil, apperr.Storage("failed to load cluster", err)
	}

	primaryID := primaryIDs[0]
	if len(primaryIDs) > 1 {
		winner, err := s.merge(ctx, repo, primaryIDs, cluster)
		if err != nil {
			return nil, err
		}
		primaryID = winner.ID

		cluster, err = repo.FindClusterByPrimaryIDs(ctx, []int64{primaryID})
		if err != nil {
			return nil, apperr.Storage("failed to reload merged cluster", err)
		}
	}

	if needsSecondary(cluster, email, phoneNumber) {
		created, err := repo.Create(ctx, models.NewContact{
			Email:          email,
			PhoneNumber:    phoneNumber,
			LinkedID:       &primaryID,
			LinkPrecedence: models.PrecedenceSecondary,
		})
		if err != nil {
			return nil, apperr.Storage("failed to create secondary contact", err)
		}
		s.logger.Debug("Created secondary contact",
			zap.Int64("id", created.ID),
			zap.Int64("primary_id", primaryID),
		)
		cluster = append(cluster, created)
	}

	return s.respond(cluster)
}

// Lookup returns the consolidated view of the cluster containing contact id
// without changing anything. Both reads share one transaction so a merge
// cannot land between them.
func (s *ReconciliationService) Lookup(ctx context.Context, id int64) (*models.IdentifyResponse, error) {
	var response *models.IdentifyResponse
	err := s.store.WithinTx(ctx, func(repo repository.ContactRepository) error {
		contact, err := repo.FindByID(ctx, id)
		if err != nil {
			return apperr.Storage("failed to find contact", err)
		}
		if contact == nil {
			return apperr.NotFound("contact not found")
		}

		cluster, err := repo.FindClusterByPrimaryIDs(ctx, []int64{contact.PrimaryID()})
		if err != nil {
			return apperr.Storage("failed to load cluster", err)
		}
		response, err = s.respond(cluster)
		return err
	})
	if err != nil {
		return nil, apperr.Storage("lookup failed", err)
	}
	return response, nil
}
