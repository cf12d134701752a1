//go:build integration

package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sqldeck/sqldeck-engine/pkg/apperrors"
	"github.com/sqldeck/sqldeck-engine/pkg/testhelpers"
)

// tabStateTestContext holds dependencies for tab state repository integration tests.
type tabStateTestContext struct {
	t        *testing.T
	engineDB *testhelpers.EngineDB
	repo     TabStateRepository
}

func setupTabStateTest(t *testing.T) *tabStateTestContext {
	t.Helper()

	engineDB := testhelpers.GetEngineDB(t)
	return &tabStateTestContext{
		t:        t,
		engineDB: engineDB,
		repo:     NewTabStateRepository(engineDB.DB),
	}
}

// insertTabState inserts a tab row and returns its id.
func (tc *tabStateTestContext) insertTabState(userID, label string, active bool) int64 {
	tc.t.Helper()

	var id int64
	err := tc.engineDB.DB.QueryRow(context.Background(), `
		INSERT INTO tab_states (user_id, label, active, database_id, schema_name, sql, query_limit, autorun)
		VALUES ($1, $2, $3, 1, 'public', 'SELECT 1', 100, TRUE)
		RETURNING id`, userID, label, active).Scan(&id)
	if err != nil {
		tc.t.Fatalf("Failed to insert tab state: %v", err)
	}
	return id
}

func (tc *tabStateTestContext) insertTableSchema(tabStateID int64, table string, expanded bool, description string) {
	tc.t.Helper()

	var desc any
	if description != "" {
		desc = description
	}
	_, err := tc.engineDB.DB.Exec(context.Background(), `
		INSERT INTO table_schemas (tab_state_id, database_id, schema_name, table_name, expanded, description)
		VALUES ($1, 1, 'public', $2, $3, $4)`, tabStateID, table, expanded, desc)
	if err != nil {
		tc.t.Fatalf("Failed to insert table schema: %v", err)
	}
}

func (tc *tabStateTestContext) insertQueryLog(clientID, userID string, startDttm *int64, payload string) {
	tc.t.Helper()

	var pl any
	if payload != "" {
		pl = payload
	}
	_, err := tc.engineDB.DB.Exec(context.Background(), `
		INSERT INTO query_log (client_id, user_id, start_dttm, payload)
		VALUES ($1, $2, $3, $4)`, clientID, userID, startDttm, pl)
	if err != nil {
		tc.t.Fatalf("Failed to insert query log record: %v", err)
	}
}

func TestTabStateRepository_ListTabStates(t *testing.T) {
	tc := setupTabStateTest(t)
	ctx := context.Background()

	userID := "list-user"
	first := tc.insertTabState(userID, "First tab", false)
	second := tc.insertTabState(userID, "Second tab", true)
	tc.insertTabState("someone-else", "Other user tab", true)

	descriptors, err := tc.repo.ListTabStates(ctx, userID)
	if err != nil {
		t.Fatalf("ListTabStates failed: %v", err)
	}

	if len(descriptors) != 2 {
		t.Fatalf("expected 2 tabs, got %d", len(descriptors))
	}
	if descriptors[0].ID != first || descriptors[0].Label != "First tab" {
		t.Errorf("unexpected first descriptor: %+v", descriptors[0])
	}
	if descriptors[1].ID != second || descriptors[1].Label != "Second tab" {
		t.Errorf("unexpected second descriptor: %+v", descriptors[1])
	}
}

func TestTabStateRepository_GetActiveTabState(t *testing.T) {
	tc := setupTabStateTest(t)
	ctx := context.Background()

	userID := "active-user"
	tc.insertTabState(userID, "Inactive", false)
	activeID := tc.insertTabState(userID, "Active", true)
	tc.insertTableSchema(activeID, "orders", true, `{"columns": [], "dataPreviewQueryId": "q-9"}`)
	tc.insertTableSchema(activeID, "users", false, "")

	ts, err := tc.repo.GetActiveTabState(ctx, userID)
	if err != nil {
		t.Fatalf("GetActiveTabState failed: %v", err)
	}

	if ts.ID != activeID {
		t.Errorf("expected active tab %d, got %d", activeID, ts.ID)
	}
	if ts.Label != "Active" {
		t.Errorf("expected label 'Active', got %q", ts.Label)
	}
	if ts.SQL != "SELECT 1" {
		t.Errorf("expected sql 'SELECT 1', got %q", ts.SQL)
	}
	if ts.DatabaseID == nil || *ts.DatabaseID != 1 {
		t.Errorf("expected database id 1, got %v", ts.DatabaseID)
	}
	if !ts.AutoRun {
		t.Error("expected autorun to be set")
	}

	if len(ts.TableSchemas) != 2 {
		t.Fatalf("expected 2 table schemas, got %d", len(ts.TableSchemas))
	}
	if ts.TableSchemas[0].Table != "orders" || !ts.TableSchemas[0].Expanded {
		t.Errorf("unexpected first table schema: %+v", ts.TableSchemas[0])
	}
	var desc map[string]json.RawMessage
	if err := json.Unmarshal(ts.TableSchemas[0].Description, &desc); err != nil {
		t.Fatalf("failed to decode description: %v", err)
	}
	if _, ok := desc["dataPreviewQueryId"]; !ok {
		t.Error("expected dataPreviewQueryId in description payload")
	}
	if ts.TableSchemas[1].Description != nil {
		t.Errorf("expected nil description for second schema, got %s", ts.TableSchemas[1].Description)
	}
}

func TestTabStateRepository_GetActiveTabState_NoActiveTab(t *testing.T) {
	tc := setupTabStateTest(t)
	ctx := context.Background()

	userID := "no-active-user"
	tc.insertTabState(userID, "Inactive only", false)

	_, err := tc.repo.GetActiveTabState(ctx, userID)
	if !errors.Is(err, apperrors.ErrNoActiveTab) {
		t.Fatalf("expected ErrNoActiveTab, got %v", err)
	}
}

func TestTabStateRepository_ListUserQueries(t *testing.T) {
	tc := setupTabStateTest(t)
	ctx := context.Background()

	userID := "query-user"
	start1 := int64(1690000000000)
	start2 := int64(1690000100000)
	tc.insertQueryLog("q-old", userID, &start1, `{"state": "success", "progress": 100}`)
	tc.insertQueryLog("q-new", userID, &start2, `{"state": "running"}`)
	tc.insertQueryLog("q-foreign", "someone-else", &start2, "")

	queries, err := tc.repo.ListUserQueries(ctx, userID, 10)
	if err != nil {
		t.Fatalf("ListUserQueries failed: %v", err)
	}

	if len(queries) != 2 {
		t.Fatalf("expected 2 queries, got %d", len(queries))
	}

	old, ok := queries["q-old"]
	if !ok {
		t.Fatal("expected q-old in results")
	}
	if string(old.StartDttm) != "1690000000000" {
		t.Errorf("expected startDttm 1690000000000, got %s", old.StartDttm)
	}
	if string(old.Extra["state"]) != `"success"` {
		t.Errorf("expected payload state to round-trip, got %s", old.Extra["state"])
	}

	limited, err := tc.repo.ListUserQueries(ctx, userID, 1)
	if err != nil {
		t.Fatalf("ListUserQueries with limit failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to cap results at 1, got %d", len(limited))
	}
	if _, ok := limited["q-new"]; !ok {
		t.Error("expected newest query to win under limit")
	}
}
