package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/sqldeck/sqldeck-engine/pkg/apperrors"
	"github.com/sqldeck/sqldeck-engine/pkg/auth"
	"github.com/sqldeck/sqldeck-engine/pkg/config"
	"github.com/sqldeck/sqldeck-engine/pkg/legacystore"
	"github.com/sqldeck/sqldeck-engine/pkg/models"
	"github.com/sqldeck/sqldeck-engine/pkg/repositories"
	"github.com/sqldeck/sqldeck-engine/pkg/services"
)

// recentQueryLimit caps how many query-log records are loaded into the
// bootstrap payload.
const recentQueryLimit = 100

// BootstrapHandler serves the SQL Lab session bootstrap endpoint.
type BootstrapHandler struct {
	cfg     *config.Config
	logger  *zap.Logger
	repo    repositories.TabStateRepository
	svc     services.BootstrapService
	legacy  legacystore.Store
	cookies *legacystore.CookieBackend
}

// NewBootstrapHandler creates a new BootstrapHandler. Exactly one of legacy
// and cookies is used: when cookies is non-nil the legacy snapshot is read
// from the request's signed session cookie instead of a shared store.
func NewBootstrapHandler(cfg *config.Config, logger *zap.Logger, repo repositories.TabStateRepository,
	svc services.BootstrapService, legacy legacystore.Store, cookies *legacystore.CookieBackend) *BootstrapHandler {
	return &BootstrapHandler{
		cfg:     cfg,
		logger:  logger,
		repo:    repo,
		svc:     svc,
		legacy:  legacy,
		cookies: cookies,
	}
}

// RegisterRoutes registers the bootstrap handler's routes on the given mux.
func (h *BootstrapHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/v1/sqllab/bootstrap", authMiddleware.RequireAuth(h.Bootstrap))
}

// Bootstrap handles GET /api/v1/sqllab/bootstrap.
// It assembles the server-persisted side of the session, reconciles it with
// the user's legacy snapshot, and writes the resulting editor state.
func (h *BootstrapHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := auth.RequireUserIDFromContext(ctx)
	if err != nil {
		_ = ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	data, err := h.assembleBootstrapData(ctx, userID, r)
	if err != nil {
		h.logger.Error("Failed to assemble bootstrap data",
			zap.Error(err),
			zap.String("user_id", userID))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to load session state")
		return
	}

	store := h.legacy
	if h.cookies != nil {
		store = h.cookies.ForRequest(r, w)
	}

	state := h.svc.InitialState(ctx, data, store, h.cfg.SQLLab.LegacyKey(userID))

	if err := WriteJSON(w, http.StatusOK, state); err != nil {
		h.logger.Error("Failed to encode bootstrap response", zap.Error(err))
	}
}

// assembleBootstrapData loads the persisted tab state and query log for the
// user and folds in configuration and the request itself.
func (h *BootstrapHandler) assembleBootstrapData(ctx context.Context, userID string, r *http.Request) (*models.BootstrapData, error) {
	tabs, err := h.repo.ListTabStates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tab states: %w", err)
	}

	activeTab, err := h.repo.GetActiveTabState(ctx, userID)
	if err != nil && !errors.Is(err, apperrors.ErrNoActiveTab) {
		return nil, fmt.Errorf("failed to get active tab state: %w", err)
	}

	queries, err := h.repo.ListUserQueries(ctx, userID, recentQueryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list user queries: %w", err)
	}

	data := &models.BootstrapData{
		Common: models.Common{
			Conf: map[string]json.RawMessage{
				"DEFAULT_SQLLAB_LIMIT": json.RawMessage(strconv.FormatInt(h.cfg.SQLLab.DefaultRowLimit, 10)),
			},
		},
		ActiveTab:      activeTab,
		TabStateIDs:    tabs,
		Queries:        queries,
		RequestedQuery: requestedQueryFromURL(r),
	}

	if h.cfg.SQLLab.DefaultDatabaseID != 0 {
		dbID := h.cfg.SQLLab.DefaultDatabaseID
		data.DefaultDBID = &dbID
	}

	if claims, ok := auth.GetClaims(ctx); ok {
		user, err := json.Marshal(map[string]any{
			"userId":    claims.Subject,
			"email":     claims.Email,
			"username":  claims.Username,
			"firstName": claims.FirstName,
			"lastName":  claims.LastName,
			"roles":     claims.Roles,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode user payload: %w", err)
		}
		data.User = user
	}

	return data, nil
}

// requestedQueryFromURL lifts an ad-hoc query request out of the URL, for
// links that open SQL Lab with a prepared statement. Returns nil when the
// request carries none.
func requestedQueryFromURL(r *http.Request) json.RawMessage {
	params := r.URL.Query()

	requested := make(map[string]any)
	if sql := params.Get("sql"); sql != "" {
		requested["sql"] = sql
	}
	if name := params.Get("name"); name != "" {
		requested["name"] = name
	}
	if dbID := params.Get("dbid"); dbID != "" {
		if n, err := strconv.ParseInt(dbID, 10, 64); err == nil {
			requested["dbId"] = n
		}
	}
	if len(requested) == 0 {
		return nil
	}

	raw, err := json.Marshal(requested)
	if err != nil {
		return nil
	}
	return raw
}
