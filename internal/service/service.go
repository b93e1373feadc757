// Package service implements the HTTP endpoint layer: one service per
// resource, registered on a chi router. Handlers decode JSON, check
// membership and roles, call storage and the calculator, and map domain
// errors to statuses. All balance views are recomputed from ledger facts on
// every request; nothing derived is persisted.
package service

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hisaabhub/hisaabhub/internal/auth"
	"github.com/hisaabhub/hisaabhub/internal/middleware"
	"github.com/hisaabhub/hisaabhub/internal/storage"
)

// NewRouter assembles the /api route tree. Signup and login are public;
// everything else requires a valid Bearer token.
func NewRouter(store storage.Store, authenticator auth.Authenticator, jwtManager *auth.JWTManager) chi.Router {
	authSvc := NewAuthService(authenticator, jwtManager)
	groupSvc := NewGroupService(store)
	expenseSvc := NewExpenseService(store)
	settlementSvc := NewSettlementService(store)

	r := chi.NewRouter()
	r.Use(middleware.Metrics)
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", authSvc.Signup)
		r.Post("/auth/login", authSvc.Login)
		r.Get("/health", health)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(jwtManager))

			r.Post("/groups", groupSvc.Create)
			r.Get("/groups", groupSvc.List)
			r.Get("/groups/{groupID}", groupSvc.Get)
			r.Get("/groups/{groupID}/balances", groupSvc.Balances)
			r.Get("/groups/{groupID}/total-balances", groupSvc.TotalBalances)
			r.Post("/groups/{groupID}/members", groupSvc.AddMember)
			r.Delete("/groups/{groupID}/members/{userID}", groupSvc.RemoveMember)

			r.Post("/expenses", expenseSvc.Create)
			r.Get("/expenses/{groupID}", expenseSvc.ListByGroup)
			r.Delete("/expenses/{expenseID}", expenseSvc.Delete)
			r.Post("/expenses/{groupID}/calculate-split", expenseSvc.CalculateSplit)

			r.Post("/payments/settle", settlementSvc.Settle)
			r.Get("/payments/settlements/{groupID}", settlementSvc.History)
		})
	})

	return r
}

func health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "app": "hisaabhub"})
}

// writeJSON writes v with the given status. Encoding failures are logged;
// the status line has already gone out by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes a JSON error body in the {"error": ...} shape.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// requireMember checks group membership for the user and writes the error
// response itself when access is denied. The returned role is "" when the
// handler should stop.
func requireMember(w http.ResponseWriter, r *http.Request, store storage.Store, groupID, userID string) string {
	role, err := store.GetMemberRole(r.Context(), groupID, userID)
	if err != nil {
		slog.Error("Membership check failed", "group_id", groupID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to check membership")
		return ""
	}
	if role == "" {
		writeError(w, http.StatusForbidden, "access denied to this group")
		return ""
	}
	return role
}
