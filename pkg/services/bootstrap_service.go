package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/sqldeck/sqldeck-engine/pkg/jsonutil"
	"github.com/sqldeck/sqldeck-engine/pkg/legacystore"
	"github.com/sqldeck/sqldeck-engine/pkg/models"
)

// placeholderSQL seeds brand-new editor tabs.
const placeholderSQL = "SELECT ...\n"

// fallbackRowLimit applies when the configuration carries no usable
// DEFAULT_SQLLAB_LIMIT entry.
const fallbackRowLimit = 1000

// BootstrapService reconstructs the initial session state for the SQL editor
// from two possibly-conflicting sources: server-persisted tab state and a
// legacy client snapshot. It is a one-time, one-directional absorption of
// legacy state at startup; nothing is persisted back to either source except
// the removal of an already-migrated legacy key.
type BootstrapService interface {
	// InitialState runs the reconciliation pipeline over the given
	// server-side payload and the legacy blob stored under legacyKey.
	// It cannot fail: any unusable optional source falls back to defaults,
	// and legacy parse errors are swallowed. The returned snapshot belongs
	// to the caller.
	InitialState(ctx context.Context, data *models.BootstrapData, legacy legacystore.Store, legacyKey string) *models.InitialState
}

type bootstrapService struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewBootstrapService creates a new BootstrapService.
func NewBootstrapService(logger *zap.Logger) BootstrapService {
	return &bootstrapService{logger: logger, now: time.Now}
}

var _ BootstrapService = (*bootstrapService)(nil)

func (s *bootstrapService) InitialState(ctx context.Context, data *models.BootstrapData, legacy legacystore.Store, legacyKey string) *models.InitialState {
	defaults := defaultQueryEditor(data.DefaultDBID, data.Common.DefaultSQLLabLimit(fallbackRowLimit))

	// Server-state stage: editor map from tab descriptors, table previews
	// from the active tab, single-entry visit history.
	editors := orderedmap.New[string, *models.QueryEditor]()
	tables := orderedmap.New[string, *models.Table]()
	queries := make(map[string]*models.Query, len(data.Queries))
	for id, q := range data.Queries {
		queries[id] = q
	}
	history := []string{}

	var activeID string
	if data.ActiveTab != nil {
		activeID = strconv.FormatInt(data.ActiveTab.ID, 10)
	}

	for _, ts := range data.TabStateIDs {
		id := strconv.FormatInt(ts.ID, 10)
		if id == activeID {
			editors.Set(id, editorFromTabState(data.ActiveTab, defaults))
			continue
		}
		// Lazy stub: identifier and label only, hydrated on demand when
		// the user switches to the tab.
		stub := defaults
		stub.ID = id
		stub.Name = ts.Label
		stub.Loaded = false
		stub.ValidationResult = newValidationResult()
		editors.Set(id, &stub)
	}

	if data.ActiveTab != nil {
		history = append(history, activeID)
		for _, schema := range data.ActiveTab.TableSchemas {
			if table := tableFromSchema(schema); table != nil {
				tables.Set(table.ID, table)
			}
		}
	}

	// Legacy-state stage.
	unsaved, history := s.mergeLegacyState(ctx, legacy, legacyKey, editors, tables, queries, history)

	// Normalization stage.
	for _, q := range queries {
		q.NormalizeTimestamps()
	}

	state := models.NewSQLLabState()
	state.Queries = queries
	state.QueryEditors = flattenEditors(editors)
	state.TabHistory = dedupeConsecutive(history)
	state.Tables = flattenTables(tables)
	state.QueriesLastUpdate = s.now().UnixMilli()
	state.UnsavedQueryEditor = unsaved
	if len(data.Databases) > 0 {
		state.Databases = data.Databases
	}
	if len(data.User) > 0 {
		state.User = data.User
	}

	return &models.InitialState{
		SQLLab:         state,
		RequestedQuery: data.RequestedQuery,
		MessageToasts:  models.ToastsFromFlashMessages(data.Common.FlashMessages),
		Common: models.Common{
			Conf:          data.Common.Conf,
			FlashMessages: data.Common.FlashMessages,
		},
	}
}

// defaultQueryEditor builds the template for a brand-new, empty editor tab:
// no identifier, loaded, placeholder SQL, every optional field null or empty.
// Copies of the template must each call newValidationResult; the nested
// pointer would otherwise alias validation state across tabs.
func defaultQueryEditor(defaultDBID *int64, rowLimit int64) models.QueryEditor {
	return models.QueryEditor{
		Loaded:           true,
		SQL:              placeholderSQL,
		DBID:             defaultDBID,
		QueryLimit:       rowLimit,
		ValidationResult: newValidationResult(),
	}
}

func newValidationResult() *models.ValidationResult {
	return &models.ValidationResult{Errors: []any{}}
}

// editorFromTabState builds the fully-populated editor for the active tab.
func editorFromTabState(tab *models.TabState, defaults models.QueryEditor) *models.QueryEditor {
	qe := defaults
	qe.ValidationResult = newValidationResult()
	qe.ID = strconv.FormatInt(tab.ID, 10)
	qe.Name = tab.Label
	qe.SQL = tab.SQL
	qe.Loaded = true
	qe.AutoRun = tab.AutoRun
	qe.TemplateParams = tab.TemplateParams
	qe.Schema = tab.Schema
	qe.HideLeftBar = tab.HideLeftBar
	if tab.LatestQuery != nil {
		id := string(tab.LatestQuery.ID)
		qe.LatestQueryID = &id
	}
	if tab.SavedQuery != nil {
		qe.RemoteID = &tab.SavedQuery.ID
	}
	if tab.DatabaseID != nil {
		qe.DBID = tab.DatabaseID
	}
	if tab.QueryLimit != nil {
		qe.QueryLimit = *tab.QueryLimit
	}
	return &qe
}

// tableFromSchema converts a persisted table-preview row into a Table entity.
// Rows with a null description have no preview attached and are dropped. A
// dataPreviewQueryId inside the description is split out as the preview-query
// reference; the rest of the description rides along as the opaque payload.
func tableFromSchema(schema models.TableSchema) *models.Table {
	desc := schema.Description
	if len(desc) == 0 || string(desc) == "null" {
		return nil
	}

	table := &models.Table{
		ID:            strconv.FormatInt(schema.ID, 10),
		QueryEditorID: strconv.FormatInt(schema.TabStateID, 10),
		DBID:          schema.DatabaseID,
		Schema:        schema.Schema,
		Name:          schema.Table,
		Expanded:      schema.Expanded,
	}

	// Descriptions persisted through a TEXT column arrive double-encoded.
	if desc[0] == '"' {
		var inner string
		if err := json.Unmarshal(desc, &inner); err == nil {
			desc = json.RawMessage(inner)
		}
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(desc, &payload); err != nil {
		// Malformed descriptions are not validated here; the preview
		// simply carries no payload.
		return table
	}
	if raw, ok := payload["dataPreviewQueryId"]; ok {
		if id := jsonutil.FlexibleStringValue(raw); id != "" {
			table.DataPreviewQueryID = &id
		}
		delete(payload, "dataPreviewQueryId")
	}
	if len(payload) > 0 {
		table.Extra = payload
	}
	return table
}

// dedupeConsecutive collapses adjacent duplicate identifiers in the visit
// history. Non-adjacent repeats are revisits and are preserved.
func dedupeConsecutive(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if n := len(out); n == 0 || out[n-1] != id {
			out = append(out, id)
		}
	}
	return out
}

func flattenEditors(editors *orderedmap.OrderedMap[string, *models.QueryEditor]) []*models.QueryEditor {
	out := make([]*models.QueryEditor, 0, editors.Len())
	for pair := editors.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

func flattenTables(tables *orderedmap.OrderedMap[string, *models.Table]) []*models.Table {
	out := make([]*models.Table, 0, tables.Len())
	for pair := tables.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}
