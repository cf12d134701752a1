package models

import (
	"encoding/json"

	"github.com/sqldeck/sqldeck-engine/pkg/jsonutil"
)

// defaultSQLLabLimitKey is the configuration entry naming the default
// query-result row limit.
const defaultSQLLabLimitKey = "DEFAULT_SQLLAB_LIMIT"

// Common carries application-level configuration and pending flash messages.
// It passes through to the snapshot trimmed to exactly these two fields.
type Common struct {
	Conf          map[string]json.RawMessage `json:"conf"`
	FlashMessages []FlashMessage             `json:"flash_messages"`
}

// DefaultSQLLabLimit returns the configured default row limit, tolerating
// numeric strings. Falls back to the given value when the entry is absent or
// unusable.
func (c *Common) DefaultSQLLabLimit(fallback int64) int64 {
	if c == nil || c.Conf == nil {
		return fallback
	}
	if n, ok := jsonutil.FlexibleInt64Value(c.Conf[defaultSQLLabLimitKey]); ok {
		return n
	}
	return fallback
}

// FlashMessage is a [severity, text] pair surfaced by the server during the
// previous request cycle.
type FlashMessage [2]string

// TabStateDescriptor identifies one persisted editor tab without its content.
type TabStateDescriptor struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// QueryRef references a query record by id.
type QueryRef struct {
	ID jsonutil.FlexID `json:"id"`
}

// SavedQueryRef references a saved-query entity by id.
type SavedQueryRef struct {
	ID int64 `json:"id"`
}

// TabState is the fully-populated descriptor of the active editor tab as
// persisted server-side, including its table previews.
type TabState struct {
	ID             int64          `json:"id"`
	Label          string         `json:"label"`
	SQL            string         `json:"sql"`
	LatestQuery    *QueryRef      `json:"latest_query"`
	SavedQuery     *SavedQueryRef `json:"saved_query"`
	AutoRun        bool           `json:"autorun"`
	TemplateParams *string        `json:"template_params"`
	DatabaseID     *int64         `json:"database_id"`
	Schema         *string        `json:"schema"`
	QueryLimit     *int64         `json:"query_limit"`
	HideLeftBar    bool           `json:"hide_left_bar"`
	TableSchemas   []TableSchema  `json:"table_schemas"`
}

// TableSchema is one persisted table-preview row attached to a tab state.
// Description is null when no preview is attached; otherwise it holds the
// opaque preview payload, optionally including a dataPreviewQueryId.
type TableSchema struct {
	ID          int64           `json:"id"`
	TabStateID  int64           `json:"tab_state_id"`
	DatabaseID  *int64          `json:"database_id"`
	Schema      *string         `json:"schema"`
	Table       string          `json:"table"`
	Expanded    bool            `json:"expanded"`
	Description json.RawMessage `json:"description"`
}

// BootstrapData is the input contract of the session bootstrap: the
// server-persisted side of the reconciliation plus opaque pass-through
// values. Every field except Common's conf shape is optional.
type BootstrapData struct {
	DefaultDBID    *int64               `json:"defaultDbId"`
	Common         Common               `json:"common"`
	ActiveTab      *TabState            `json:"active_tab"`
	TabStateIDs    []TabStateDescriptor `json:"tab_state_ids"`
	Databases      json.RawMessage      `json:"databases"`
	Queries        map[string]*Query    `json:"queries"`
	RequestedQuery json.RawMessage      `json:"requested_query"`
	User           json.RawMessage      `json:"user"`
}
