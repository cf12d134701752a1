package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqldeck/sqldeck-engine/pkg/legacystore"
	"github.com/sqldeck/sqldeck-engine/pkg/models"
)

func seededStore(blob string) legacystore.Store {
	return legacystore.NewMemoryStoreWith(map[string]string{testLegacyKey: blob})
}

func serverDataWithOneTab() *models.BootstrapData {
	data := emptyBootstrapData()
	data.ActiveTab = &models.TabState{ID: 1, Label: "Old", SQL: "SELECT 2"}
	data.TabStateIDs = []models.TabStateDescriptor{{ID: 1, Label: "Old"}}
	return data
}

func TestMergeLegacy_PrecedenceOverServerState(t *testing.T) {
	svc := newTestService()
	store := seededStore(`{
		"sqlLab": {
			"queryEditors": [{"id": "1", "name": "New", "sql": "SELECT 1"}],
			"tables": [],
			"queries": {},
			"tabHistory": []
		}
	}`)

	state := svc.InitialState(context.Background(), serverDataWithOneTab(), store, testLegacyKey)

	require.Len(t, state.SQLLab.QueryEditors, 1)
	qe := state.SQLLab.QueryEditors[0]
	assert.Equal(t, "New", qe.Name)
	assert.Equal(t, "SELECT 1", qe.SQL)
	assert.True(t, qe.InLocalStorage)
	assert.True(t, qe.Loaded)
}

func TestMergeLegacy_TitleAliasAndUnsavedOverlay(t *testing.T) {
	svc := newTestService()
	store := seededStore(`{
		"sqlLab": {
			"queryEditors": [{"id": "1", "title": "Renamed"}],
			"tables": [],
			"queries": {},
			"tabHistory": [],
			"unsavedQueryEditor": {"id": "1", "sql": "SELECT 'in flight'"}
		}
	}`)

	state := svc.InitialState(context.Background(), serverDataWithOneTab(), store, testLegacyKey)

	require.Len(t, state.SQLLab.QueryEditors, 1)
	qe := state.SQLLab.QueryEditors[0]
	assert.Equal(t, "Renamed", qe.Name, "legacy title aliases name")
	assert.Equal(t, "SELECT 'in flight'", qe.SQL, "unsaved edits overwrite last")
	require.NotNil(t, state.SQLLab.UnsavedQueryEditor.SQL)
	assert.Equal(t, "SELECT 'in flight'", *state.SQLLab.UnsavedQueryEditor.SQL)
}

func TestMergeLegacy_UnsavedOverlayIgnoredForOtherEditors(t *testing.T) {
	svc := newTestService()
	store := seededStore(`{
		"sqlLab": {
			"queryEditors": [{"id": "2", "sql": "SELECT 2"}],
			"tables": [],
			"queries": {},
			"tabHistory": [],
			"unsavedQueryEditor": {"id": "99", "sql": "SELECT 'other'"}
		}
	}`)

	state := svc.InitialState(context.Background(), emptyBootstrapData(), store, testLegacyKey)

	require.Len(t, state.SQLLab.QueryEditors, 1)
	assert.Equal(t, "SELECT 2", state.SQLLab.QueryEditors[0].SQL)
}

func TestMergeLegacy_MigrationCompleteCleansUpKey(t *testing.T) {
	svc := newTestService()
	store := seededStore(`{"sqlLab": {"queryEditors": [], "tables": [], "queries": {}, "tabHistory": []}}`)

	state := svc.InitialState(context.Background(), serverDataWithOneTab(), store, testLegacyKey)

	_, ok, err := store.Get(context.Background(), testLegacyKey)
	require.NoError(t, err)
	assert.False(t, ok, "migrated key is removed")

	for _, qe := range state.SQLLab.QueryEditors {
		assert.False(t, qe.InLocalStorage)
	}
}

func TestMergeLegacy_UnparseableBlobIsSwallowed(t *testing.T) {
	svc := newTestService()

	for _, blob := range []string{"{not json", `"just a string"`, `{"somethingElse": true}`} {
		state := svc.InitialState(context.Background(), serverDataWithOneTab(), seededStore(blob), testLegacyKey)

		require.Len(t, state.SQLLab.QueryEditors, 1, "blob %q must not abort bootstrap", blob)
		assert.Equal(t, "Old", state.SQLLab.QueryEditors[0].Name)
		assert.False(t, state.SQLLab.QueryEditors[0].InLocalStorage)
	}
}

func TestMergeLegacy_UnparseableBlobIsNotRemoved(t *testing.T) {
	svc := newTestService()
	store := seededStore("{not json")

	svc.InitialState(context.Background(), serverDataWithOneTab(), store, testLegacyKey)

	_, ok, err := store.Get(context.Background(), testLegacyKey)
	require.NoError(t, err)
	assert.True(t, ok, "only migrated blobs are cleaned up")
}

func TestMergeLegacy_SingleExpansionInvariant(t *testing.T) {
	svc := newTestService()
	store := seededStore(`{
		"sqlLab": {
			"queryEditors": [{"id": "1"}],
			"tables": [
				{"id": "t1", "queryEditorId": "1", "name": "a", "expanded": true},
				{"id": "t2", "queryEditorId": "1", "name": "b", "expanded": true},
				{"id": "t3", "queryEditorId": "1", "name": "c", "expanded": true},
				{"id": "t4", "queryEditorId": "2", "name": "d", "expanded": false}
			],
			"queries": {},
			"tabHistory": []
		}
	}`)

	state := svc.InitialState(context.Background(), emptyBootstrapData(), store, testLegacyKey)

	byID := make(map[string]*models.Table)
	for _, table := range state.SQLLab.Tables {
		byID[table.ID] = table
	}
	require.Len(t, byID, 4)
	assert.True(t, byID["t1"].Expanded, "first table per editor stays expanded")
	assert.False(t, byID["t2"].Expanded)
	assert.False(t, byID["t3"].Expanded)
	assert.True(t, byID["t4"].Expanded, "first table of another editor expands regardless of its flag")
}

func TestMergeLegacy_TablesMergeOntoServerTables(t *testing.T) {
	svc := newTestService()

	data := emptyBootstrapData()
	data.ActiveTab = &models.TabState{
		ID:    1,
		Label: "Active",
		TableSchemas: []models.TableSchema{
			{ID: 5, TabStateID: 1, Table: "users", Expanded: false, Description: json.RawMessage(`{"columns":[]}`)},
		},
	}

	store := seededStore(`{
		"sqlLab": {
			"queryEditors": [{"id": "1"}],
			"tables": [{"id": "5", "queryEditorId": "1", "persistKey": "v2"}],
			"queries": {},
			"tabHistory": []
		}
	}`)

	state := svc.InitialState(context.Background(), data, store, testLegacyKey)

	require.Len(t, state.SQLLab.Tables, 1)
	table := state.SQLLab.Tables[0]
	assert.Equal(t, "users", table.Name, "server fields survive when legacy omits them")
	assert.Equal(t, json.RawMessage(`"v2"`), table.Extra["persistKey"])
	assert.True(t, table.Expanded, "first legacy table per editor is expanded")
}

func TestMergeLegacy_QueriesTaggedAndOverwritten(t *testing.T) {
	svc := newTestService()

	data := emptyBootstrapData()
	data.Queries = map[string]*models.Query{
		"q1": {ID: "q1", StartDttm: json.RawMessage(`1000`)},
	}

	store := seededStore(`{
		"sqlLab": {
			"queryEditors": [{"id": "1"}],
			"tables": [],
			"queries": {
				"q1": {"id": "q1", "startDttm": "1690000000000", "state": "success"},
				"q2": {"id": "q2", "endDttm": "1690000001000"}
			},
			"tabHistory": []
		}
	}`)

	state := svc.InitialState(context.Background(), data, store, testLegacyKey)

	require.Len(t, state.SQLLab.Queries, 2)
	q1 := state.SQLLab.Queries["q1"]
	assert.True(t, q1.InLocalStorage)
	assert.Equal(t, json.RawMessage(`1690000000000`), q1.StartDttm, "legacy query overwrites and is then normalized")
	assert.Equal(t, json.RawMessage(`"success"`), q1.Extra["state"])

	q2 := state.SQLLab.Queries["q2"]
	assert.True(t, q2.InLocalStorage)
	assert.Equal(t, json.RawMessage(`1690000001000`), q2.EndDttm)
}

func TestMergeLegacy_TabHistoryAppendedThenDeduped(t *testing.T) {
	svc := newTestService()

	data := emptyBootstrapData()
	data.ActiveTab = &models.TabState{ID: 1, Label: "Active"}
	data.TabStateIDs = []models.TabStateDescriptor{{ID: 1, Label: "Active"}}

	store := seededStore(`{
		"sqlLab": {
			"queryEditors": [{"id": "1"}],
			"tables": [],
			"queries": {},
			"tabHistory": [1, 1, 2, 2, 2, 1]
		}
	}`)

	state := svc.InitialState(context.Background(), data, store, testLegacyKey)

	assert.Equal(t, []string{"1", "2", "1"}, state.SQLLab.TabHistory,
		"server entry first, legacy appended, consecutive duplicates collapsed")
}

func TestMergeLegacy_LegacyOnlyEditorIsAdded(t *testing.T) {
	svc := newTestService()
	store := seededStore(`{
		"sqlLab": {
			"queryEditors": [{"id": "7", "name": "Scratch", "sql": "SELECT 7", "dbId": 2}],
			"tables": [],
			"queries": {},
			"tabHistory": ["7"]
		}
	}`)

	state := svc.InitialState(context.Background(), emptyBootstrapData(), store, testLegacyKey)

	require.Len(t, state.SQLLab.QueryEditors, 1)
	qe := state.SQLLab.QueryEditors[0]
	assert.Equal(t, "7", qe.ID)
	assert.Equal(t, "Scratch", qe.Name)
	require.NotNil(t, qe.DBID)
	assert.Equal(t, int64(2), *qe.DBID)
	assert.True(t, qe.InLocalStorage)
	assert.Equal(t, []string{"7"}, state.SQLLab.TabHistory)
}

func TestMergeLegacy_StoreReadErrorContinuesWithServerState(t *testing.T) {
	svc := newTestService()

	state := svc.InitialState(context.Background(), serverDataWithOneTab(), failingStore{}, testLegacyKey)

	require.Len(t, state.SQLLab.QueryEditors, 1)
	assert.Equal(t, "Old", state.SQLLab.QueryEditors[0].Name)
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, assert.AnError
}

func (failingStore) Remove(context.Context, string) error { return assert.AnError }
