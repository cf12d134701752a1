package models

import (
	"encoding/json"

	"github.com/sqldeck/sqldeck-engine/pkg/jsonutil"
)

// LegacyState is the client-persisted snapshot predating server-side tab
// persistence. It is read once at bootstrap from an opaque key-value blob and
// absorbed into the session state; it is never written back.
type LegacyState struct {
	SQLLab *LegacySQLLab `json:"sqlLab"`
}

// LegacySQLLab holds the editor/table/query collections of a legacy snapshot.
type LegacySQLLab struct {
	QueryEditors       []*LegacyEditor   `json:"queryEditors"`
	Tables             []*LegacyTable    `json:"tables"`
	Queries            map[string]*Query `json:"queries"`
	TabHistory         []jsonutil.FlexID `json:"tabHistory"`
	UnsavedQueryEditor *LegacyEditor     `json:"unsavedQueryEditor"`
}

// LegacyEditor is an editor record from a legacy snapshot. All fields except
// the id are pointers so that absent fields never clobber server state during
// the merge. The same shape doubles as the unsaved-editor record: in-flight,
// not-yet-persisted edits to the active editor.
type LegacyEditor struct {
	ID               jsonutil.FlexID   `json:"id,omitempty"`
	Title            *string           `json:"title,omitempty"`
	Name             *string           `json:"name,omitempty"`
	SQL              *string           `json:"sql,omitempty"`
	SelectedText     *string           `json:"selectedText,omitempty"`
	LatestQueryID    *jsonutil.FlexID  `json:"latestQueryId,omitempty"`
	RemoteID         *int64            `json:"remoteId,omitempty"`
	AutoRun          *bool             `json:"autorun,omitempty"`
	TemplateParams   *string           `json:"templateParams,omitempty"`
	DBID             *int64            `json:"dbId,omitempty"`
	Schema           *string           `json:"schema,omitempty"`
	QueryLimit       *int64            `json:"queryLimit,omitempty"`
	HideLeftBar      *bool             `json:"hideLeftBar,omitempty"`
	ValidationResult *ValidationResult `json:"validationResult,omitempty"`
	InLocalStorage   *bool             `json:"inLocalStorage,omitempty"`
}

// ApplyTo overwrites the target editor's fields with the legacy record's
// present fields. Fields absent from the legacy record survive untouched.
// The legacy title aliases name when the record has no name of its own.
func (le *LegacyEditor) ApplyTo(qe *QueryEditor) {
	if le.ID != "" {
		qe.ID = string(le.ID)
	}
	switch {
	case le.Name != nil:
		qe.Name = *le.Name
	case le.Title != nil:
		qe.Name = *le.Title
	}
	if le.SQL != nil {
		qe.SQL = *le.SQL
	}
	if le.SelectedText != nil {
		qe.SelectedText = le.SelectedText
	}
	if le.LatestQueryID != nil {
		id := string(*le.LatestQueryID)
		qe.LatestQueryID = &id
	}
	if le.RemoteID != nil {
		qe.RemoteID = le.RemoteID
	}
	if le.AutoRun != nil {
		qe.AutoRun = *le.AutoRun
	}
	if le.TemplateParams != nil {
		qe.TemplateParams = le.TemplateParams
	}
	if le.DBID != nil {
		qe.DBID = le.DBID
	}
	if le.Schema != nil {
		qe.Schema = le.Schema
	}
	if le.QueryLimit != nil {
		qe.QueryLimit = *le.QueryLimit
	}
	if le.HideLeftBar != nil {
		qe.HideLeftBar = *le.HideLeftBar
	}
	if le.ValidationResult != nil {
		qe.ValidationResult = le.ValidationResult
	}
}

var legacyTableKnownKeys = []string{
	"id", "queryEditorId", "dbId", "schema", "name", "expanded", "dataPreviewQueryId",
}

// LegacyTable is a table-preview record from a legacy snapshot, pointer-typed
// for the same preserve-unless-present merge semantics as LegacyEditor.
type LegacyTable struct {
	ID                 jsonutil.FlexID  `json:"id,omitempty"`
	QueryEditorID      *jsonutil.FlexID `json:"queryEditorId,omitempty"`
	DBID               *int64           `json:"dbId,omitempty"`
	Schema             *string          `json:"schema,omitempty"`
	Name               *string          `json:"name,omitempty"`
	Expanded           *bool            `json:"expanded,omitempty"`
	DataPreviewQueryID *jsonutil.FlexID `json:"dataPreviewQueryId,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (lt *LegacyTable) UnmarshalJSON(data []byte) error {
	type alias LegacyTable
	var a alias
	extra, err := jsonutil.SplitKnown(data, &a, legacyTableKnownKeys...)
	if err != nil {
		return err
	}
	a.Extra = extra
	*lt = LegacyTable(a)
	return nil
}

// ApplyTo overwrites the target table's fields with the legacy record's
// present fields, including any opaque payload keys it carries.
func (lt *LegacyTable) ApplyTo(t *Table) {
	if lt.ID != "" {
		t.ID = string(lt.ID)
	}
	if lt.QueryEditorID != nil {
		t.QueryEditorID = string(*lt.QueryEditorID)
	}
	if lt.DBID != nil {
		t.DBID = lt.DBID
	}
	if lt.Schema != nil {
		t.Schema = lt.Schema
	}
	if lt.Name != nil {
		t.Name = *lt.Name
	}
	if lt.Expanded != nil {
		t.Expanded = *lt.Expanded
	}
	if lt.DataPreviewQueryID != nil {
		id := string(*lt.DataPreviewQueryID)
		t.DataPreviewQueryID = &id
	}
	for k, v := range lt.Extra {
		if t.Extra == nil {
			t.Extra = make(map[string]json.RawMessage, len(lt.Extra))
		}
		t.Extra[k] = v
	}
}
