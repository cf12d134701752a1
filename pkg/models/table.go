package models

import (
	"encoding/json"

	"github.com/sqldeck/sqldeck-engine/pkg/jsonutil"
)

// tableKnownKeys are the Table fields handled by the typed struct; everything
// else in a table payload rides along in Extra.
var tableKnownKeys = []string{
	"id", "queryEditorId", "dbId", "schema", "name", "expanded", "dataPreviewQueryId",
}

// Table is a previewed database table bound to one editor tab.
//
// Expanded reports whether the preview panel is open. After reconciliation at
// most one table per owning editor is expanded. The opaque persisted payload
// (column schemas, preview metadata) is carried in Extra and flattened back
// into the JSON object on output.
type Table struct {
	ID                 string  `json:"id"`
	QueryEditorID      string  `json:"queryEditorId"`
	DBID               *int64  `json:"dbId,omitempty"`
	Schema             *string `json:"schema,omitempty"`
	Name               string  `json:"name"`
	Expanded           bool    `json:"expanded"`
	DataPreviewQueryID *string `json:"dataPreviewQueryId,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (t *Table) UnmarshalJSON(data []byte) error {
	type alias Table
	var a alias
	extra, err := jsonutil.SplitKnown(data, &a, tableKnownKeys...)
	if err != nil {
		return err
	}
	a.Extra = extra
	*t = Table(a)
	return nil
}

func (t Table) MarshalJSON() ([]byte, error) {
	type alias Table
	return jsonutil.MergeFields(alias(t), t.Extra)
}
