// Package repositories provides data access to the server-persisted side of
// the SQL Lab session: editor tab state, table previews, and the query log.
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/sqldeck/sqldeck-engine/pkg/apperrors"
	"github.com/sqldeck/sqldeck-engine/pkg/database"
	"github.com/sqldeck/sqldeck-engine/pkg/jsonutil"
	"github.com/sqldeck/sqldeck-engine/pkg/models"
)

// TabStateRepository defines the interface for persisted tab state access.
type TabStateRepository interface {
	// ListTabStates returns the id and label of every persisted tab for a
	// user, ordered by id.
	ListTabStates(ctx context.Context, userID string) ([]models.TabStateDescriptor, error)

	// GetActiveTabState returns the fully-populated active tab for a user,
	// including its table previews. Returns apperrors.ErrNoActiveTab when the
	// user has no active tab.
	GetActiveTabState(ctx context.Context, userID string) (*models.TabState, error)

	// ListUserQueries returns the user's most recent query-log records keyed
	// by client id, newest first, capped at limit.
	ListUserQueries(ctx context.Context, userID string, limit int) (map[string]*models.Query, error)
}

// tabStateRepository implements TabStateRepository using PostgreSQL.
type tabStateRepository struct {
	db *database.DB
}

// NewTabStateRepository creates a new tab state repository.
func NewTabStateRepository(db *database.DB) TabStateRepository {
	return &tabStateRepository{db: db}
}

// ListTabStates returns the id and label of every persisted tab for a user.
func (r *tabStateRepository) ListTabStates(ctx context.Context, userID string) ([]models.TabStateDescriptor, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, label FROM tab_states WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tab states: %w", err)
	}
	defer rows.Close()

	var descriptors []models.TabStateDescriptor
	for rows.Next() {
		var d models.TabStateDescriptor
		if err := rows.Scan(&d.ID, &d.Label); err != nil {
			return nil, fmt.Errorf("failed to scan tab state: %w", err)
		}
		descriptors = append(descriptors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tab states: %w", err)
	}

	return descriptors, nil
}

// GetActiveTabState returns the fully-populated active tab for a user.
func (r *tabStateRepository) GetActiveTabState(ctx context.Context, userID string) (*models.TabState, error) {
	query := `
		SELECT id, label, sql, database_id, schema_name, query_limit,
		       autorun, template_params, hide_left_bar,
		       latest_query_id, saved_query_id
		FROM tab_states
		WHERE user_id = $1 AND active
		ORDER BY updated_at DESC
		LIMIT 1`

	var ts models.TabState
	var latestQueryID *string
	var savedQueryID *int64

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&ts.ID,
		&ts.Label,
		&ts.SQL,
		&ts.DatabaseID,
		&ts.Schema,
		&ts.QueryLimit,
		&ts.AutoRun,
		&ts.TemplateParams,
		&ts.HideLeftBar,
		&latestQueryID,
		&savedQueryID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNoActiveTab
		}
		return nil, fmt.Errorf("failed to get active tab state: %w", err)
	}

	if latestQueryID != nil {
		ts.LatestQuery = &models.QueryRef{ID: jsonutil.FlexID(*latestQueryID)}
	}
	if savedQueryID != nil {
		ts.SavedQuery = &models.SavedQueryRef{ID: *savedQueryID}
	}

	schemas, err := r.listTableSchemas(ctx, ts.ID)
	if err != nil {
		return nil, err
	}
	ts.TableSchemas = schemas

	return &ts, nil
}

// listTableSchemas loads the table previews attached to one tab state.
func (r *tabStateRepository) listTableSchemas(ctx context.Context, tabStateID int64) ([]models.TableSchema, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tab_state_id, database_id, schema_name, table_name, expanded, description
		FROM table_schemas
		WHERE tab_state_id = $1
		ORDER BY id`, tabStateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list table schemas: %w", err)
	}
	defer rows.Close()

	var schemas []models.TableSchema
	for rows.Next() {
		var s models.TableSchema
		var description []byte
		if err := rows.Scan(&s.ID, &s.TabStateID, &s.DatabaseID, &s.Schema,
			&s.Table, &s.Expanded, &description); err != nil {
			return nil, fmt.Errorf("failed to scan table schema: %w", err)
		}
		if description != nil {
			s.Description = json.RawMessage(description)
		}
		schemas = append(schemas, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate table schemas: %w", err)
	}

	return schemas, nil
}

// ListUserQueries returns the user's most recent query-log records.
func (r *tabStateRepository) ListUserQueries(ctx context.Context, userID string, limit int) (map[string]*models.Query, error) {
	rows, err := r.db.Query(ctx, `
		SELECT client_id, start_dttm, end_dttm, payload
		FROM query_log
		WHERE user_id = $1
		ORDER BY start_dttm DESC NULLS LAST
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user queries: %w", err)
	}
	defer rows.Close()

	queries := make(map[string]*models.Query)
	for rows.Next() {
		var clientID string
		var startDttm, endDttm *int64
		var payload []byte
		if err := rows.Scan(&clientID, &startDttm, &endDttm, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan query record: %w", err)
		}

		q := &models.Query{ID: clientID}
		if startDttm != nil {
			q.StartDttm = json.RawMessage(strconv.FormatInt(*startDttm, 10))
		}
		if endDttm != nil {
			q.EndDttm = json.RawMessage(strconv.FormatInt(*endDttm, 10))
		}
		if payload != nil {
			var extra map[string]json.RawMessage
			if err := json.Unmarshal(payload, &extra); err != nil {
				return nil, fmt.Errorf("failed to decode query payload for %s: %w", clientID, err)
			}
			q.Extra = extra
		}
		queries[clientID] = q
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate query records: %w", err)
	}

	return queries, nil
}

// Ensure tabStateRepository implements TabStateRepository at compile time.
var _ TabStateRepository = (*tabStateRepository)(nil)
