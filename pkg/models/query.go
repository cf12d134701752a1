package models

import (
	"encoding/json"

	"github.com/sqldeck/sqldeck-engine/pkg/jsonutil"
)

var queryKnownKeys = []string{"id", "startDttm", "endDttm", "inLocalStorage"}

// Query is one executed or executing SQL statement tied to an editor.
//
// Only the identifier, the start/end timestamps, and the legacy tag are
// interpreted here; status and result fields are opaque to the bootstrap and
// round-trip through Extra untouched. StartDttm/EndDttm stay raw because
// legacy snapshots serialize them as strings; normalization coerces them to
// numbers in the final snapshot.
type Query struct {
	ID             string          `json:"id,omitempty"`
	StartDttm      json.RawMessage `json:"startDttm,omitempty"`
	EndDttm        json.RawMessage `json:"endDttm,omitempty"`
	InLocalStorage bool            `json:"inLocalStorage,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (q *Query) UnmarshalJSON(data []byte) error {
	type alias Query
	var a alias
	extra, err := jsonutil.SplitKnown(data, &a, queryKnownKeys...)
	if err != nil {
		return err
	}
	a.Extra = extra
	*q = Query(a)
	return nil
}

func (q Query) MarshalJSON() ([]byte, error) {
	type alias Query
	return jsonutil.MergeFields(alias(q), q.Extra)
}

// NormalizeTimestamps coerces truthy string timestamps to their numeric form.
// Absent and falsy values are left untouched rather than zeroed.
func (q *Query) NormalizeTimestamps() {
	q.StartDttm = jsonutil.CoerceEpochMillis(q.StartDttm)
	q.EndDttm = jsonutil.CoerceEpochMillis(q.EndDttm)
}
