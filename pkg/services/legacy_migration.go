package services

import (
	"context"
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/sqldeck/sqldeck-engine/pkg/legacystore"
	"github.com/sqldeck/sqldeck-engine/pkg/logging"
	"github.com/sqldeck/sqldeck-engine/pkg/models"
)

// mergeLegacyState reads the legacy snapshot under legacyKey and folds it
// into the working collections. Legacy data has highest precedence so that
// in-flight unsynced edits are never silently dropped.
//
// The legacy store must never abort a bootstrap: read failures, missing keys,
// unparseable blobs, and blobs without a sqlLab section all leave the working
// collections untouched. A blob whose editor list is empty means the user
// already migrated; it is discarded and the key removed as one-time cleanup.
//
// Returns the unsaved-editor record (empty when none) and the visit history
// with the legacy entries appended after the server-derived ones.
func (s *bootstrapService) mergeLegacyState(
	ctx context.Context,
	legacy legacystore.Store,
	legacyKey string,
	editors *orderedmap.OrderedMap[string, *models.QueryEditor],
	tables *orderedmap.OrderedMap[string, *models.Table],
	queries map[string]*models.Query,
	history []string,
) (*models.LegacyEditor, []string) {
	unsaved := &models.LegacyEditor{}

	blob, ok, err := legacy.Get(ctx, legacyKey)
	if err != nil {
		s.logger.Warn("Failed to read legacy session state, continuing without it",
			zap.String("key", legacyKey),
			zap.Error(err))
		return unsaved, history
	}
	if !ok || blob == "" {
		return unsaved, history
	}

	var state models.LegacyState
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		s.logger.Debug("Discarding unparseable legacy session state",
			zap.String("key", legacyKey),
			zap.Error(err))
		return unsaved, history
	}
	sqlLab := state.SQLLab
	if sqlLab == nil {
		return unsaved, history
	}

	if len(sqlLab.QueryEditors) == 0 {
		// Already migrated: one-time cleanup of the stale key.
		if err := legacy.Remove(ctx, legacyKey); err != nil {
			s.logger.Warn("Failed to remove migrated legacy session state",
				zap.String("key", legacyKey),
				zap.Error(err))
		}
		return unsaved, history
	}

	if sqlLab.UnsavedQueryEditor != nil {
		unsaved = sqlLab.UnsavedQueryEditor
	}

	for _, le := range sqlLab.QueryEditors {
		id := string(le.ID)
		qe, ok := editors.Get(id)
		if !ok {
			qe = &models.QueryEditor{}
		}
		le.ApplyTo(qe)
		if unsaved.ID != "" && unsaved.ID == le.ID {
			unsaved.ApplyTo(qe)
		}
		qe.InLocalStorage = true
		qe.Loaded = true
		editors.Set(id, qe)

		s.logger.Debug("Absorbed legacy editor",
			zap.String("editor_id", id),
			zap.String("sql", logging.SanitizeQuery(qe.SQL)))
	}

	// Within each editor's table group the first table encountered stays
	// expanded and its siblings collapse, regardless of the original flags.
	expandedByEditor := make(map[string]bool)
	for _, lt := range sqlLab.Tables {
		id := string(lt.ID)
		table, ok := tables.Get(id)
		if !ok {
			table = &models.Table{}
		}
		lt.ApplyTo(table)
		if expandedByEditor[table.QueryEditorID] {
			table.Expanded = false
		} else {
			table.Expanded = true
			expandedByEditor[table.QueryEditorID] = true
		}
		tables.Set(id, table)
	}

	for id, q := range sqlLab.Queries {
		q.InLocalStorage = true
		queries[id] = q
	}

	for _, id := range sqlLab.TabHistory {
		history = append(history, string(id))
	}

	s.logger.Debug("Absorbed legacy session state",
		zap.String("key", legacyKey),
		zap.Int("editors", len(sqlLab.QueryEditors)),
		zap.Int("tables", len(sqlLab.Tables)),
		zap.Int("queries", len(sqlLab.Queries)))

	return unsaved, history
}
