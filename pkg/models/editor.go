// Package models defines the session-state entities for the SQLDeck editor:
// query editors (tabs), previewed tables, executed queries, tab history, and
// the bootstrap snapshot assembled from them.
package models

// ValidationResult holds the outcome of validating an editor's SQL text.
type ValidationResult struct {
	ID        *string `json:"id"`
	Errors    []any   `json:"errors"`
	Completed bool    `json:"completed"`
}

// QueryEditor is the full state of one SQL-editing tab.
//
// An editor is created either from a server tab-state row (fully populated for
// the active tab, a lazy stub for background tabs) or from a legacy client
// snapshot. Loaded reports whether the full content has been fetched; stubs
// are hydrated on demand when the user switches to the tab.
type QueryEditor struct {
	ID             string  `json:"id,omitempty"`
	Name           string  `json:"name"`
	SQL            string  `json:"sql"`
	SelectedText   *string `json:"selectedText,omitempty"`
	LatestQueryID  *string `json:"latestQueryId,omitempty"`
	RemoteID       *int64  `json:"remoteId,omitempty"`
	AutoRun        bool    `json:"autorun"`
	TemplateParams *string `json:"templateParams,omitempty"`
	DBID           *int64  `json:"dbId,omitempty"`
	Schema         *string `json:"schema,omitempty"`
	QueryLimit     int64   `json:"queryLimit"`
	HideLeftBar    bool    `json:"hideLeftBar"`
	Loaded         bool    `json:"loaded"`

	// InLocalStorage marks editors absorbed from a legacy client snapshot
	// that has not been persisted server-side yet.
	InLocalStorage bool `json:"inLocalStorage,omitempty"`

	ValidationResult *ValidationResult `json:"validationResult,omitempty"`
}
