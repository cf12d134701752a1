package models

import "encoding/json"

// southPaneResults is the result pane selected when a session starts.
const southPaneResults = "Results"

// SQLLabState is the editor-facing portion of the bootstrap snapshot.
type SQLLabState struct {
	ActiveSouthPaneTab string            `json:"activeSouthPaneTab"`
	Alerts             []any             `json:"alerts"`
	Databases          json.RawMessage   `json:"databases"`
	Offline            bool              `json:"offline"`
	Queries            map[string]*Query `json:"queries"`
	QueryEditors       []*QueryEditor    `json:"queryEditors"`
	TabHistory         []string          `json:"tabHistory"`
	Tables             []*Table          `json:"tables"`
	QueriesLastUpdate  int64             `json:"queriesLastUpdate"`
	UnsavedQueryEditor *LegacyEditor     `json:"unsavedQueryEditor"`
	QueryCostEstimates map[string]any    `json:"queryCostEstimates"`
	User               json.RawMessage   `json:"user"`
}

// InitialState is the immutable session snapshot handed to the caller at
// bootstrap. Ownership transfers on return; nothing here is written back to
// either source of truth.
type InitialState struct {
	SQLLab                       SQLLabState     `json:"sqlLab"`
	RequestedQuery               json.RawMessage `json:"requestedQuery"`
	MessageToasts                []Toast         `json:"messageToasts"`
	LocalStorageUsageInKilobytes float64         `json:"localStorageUsageInKilobytes"`
	Common                       Common          `json:"common"`
}

// NewSQLLabState returns a state shell with the fixed bootstrap defaults and
// non-nil collections so the snapshot serializes empty lists, not nulls.
func NewSQLLabState() SQLLabState {
	return SQLLabState{
		ActiveSouthPaneTab: southPaneResults,
		Alerts:             []any{},
		Databases:          json.RawMessage(`{}`),
		Offline:            false,
		Queries:            map[string]*Query{},
		QueryEditors:       []*QueryEditor{},
		TabHistory:         []string{},
		Tables:             []*Table{},
		UnsavedQueryEditor: &LegacyEditor{},
		QueryCostEstimates: map[string]any{},
	}
}
