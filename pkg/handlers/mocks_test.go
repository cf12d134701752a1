package handlers

import (
	"context"

	"github.com/sqldeck/sqldeck-engine/pkg/apperrors"
	"github.com/sqldeck/sqldeck-engine/pkg/models"
	"github.com/sqldeck/sqldeck-engine/pkg/repositories"
)

// stubTabStateRepository is an in-memory TabStateRepository for handler tests.
type stubTabStateRepository struct {
	tabs    []models.TabStateDescriptor
	active  *models.TabState
	queries map[string]*models.Query
	err     error
}

func (s *stubTabStateRepository) ListTabStates(ctx context.Context, userID string) ([]models.TabStateDescriptor, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tabs, nil
}

func (s *stubTabStateRepository) GetActiveTabState(ctx context.Context, userID string) (*models.TabState, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.active == nil {
		return nil, apperrors.ErrNoActiveTab
	}
	return s.active, nil
}

func (s *stubTabStateRepository) ListUserQueries(ctx context.Context, userID string, limit int) (map[string]*models.Query, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.queries == nil {
		return map[string]*models.Query{}, nil
	}
	return s.queries, nil
}

var _ repositories.TabStateRepository = (*stubTabStateRepository)(nil)
