package service

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hisaabhub/hisaabhub/internal/middleware"
	"github.com/hisaabhub/hisaabhub/internal/models"
	"github.com/hisaabhub/hisaabhub/internal/storage"
)

// SettlementService records real-world payments that offset balances.
type SettlementService struct {
	store storage.Store
}

// NewSettlementService creates a new SettlementService with the given storage backend.
func NewSettlementService(store storage.Store) *SettlementService {
	return &SettlementService{store: store}
}

type settlementResponse struct {
	ID          string  `json:"id"`
	GroupID     string  `json:"group_id"`
	FromUser    string  `json:"from_user"`
	ToUser      string  `json:"to_user"`
	FromName    string  `json:"from_user_name,omitempty"`
	ToName      string  `json:"to_user_name,omitempty"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	CreatedAt   int64   `json:"created_at"`
}

func toSettlementResponse(s *models.Settlement) settlementResponse {
	return settlementResponse{
		ID:          s.ID,
		GroupID:     s.GroupID,
		FromUser:    s.FromUser,
		ToUser:      s.ToUser,
		FromName:    s.FromName,
		ToName:      s.ToName,
		Amount:      s.Amount,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
	}
}

// Settle records that to_user paid the caller back. The caller's balance
// decreases by the amount and to_user's increases, so only the member who
// was owed can mark a debt as settled. Settlements are append-only facts;
// balances pick them up on the next computation.
func (s *SettlementService) Settle(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		GroupID     string  `json:"group_id"`
		ToUser      string  `json:"to_user"`
		Amount      float64 `json:"amount"`
		Description string  `json:"description"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.ToUser == "" || req.GroupID == "" {
		writeError(w, http.StatusBadRequest, "to_user, amount, and group_id are required")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be greater than 0")
		return
	}
	if req.ToUser == userID {
		writeError(w, http.StatusBadRequest, "cannot settle with yourself")
		return
	}

	if requireMember(w, r, s.store, req.GroupID, userID) == "" {
		return
	}
	otherRole, err := s.store.GetMemberRole(r.Context(), req.GroupID, req.ToUser)
	if err != nil {
		slog.Error("Settle role check failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record settlement")
		return
	}
	if otherRole == "" {
		writeError(w, http.StatusBadRequest, "user is not a member of this group")
		return
	}

	settlement := &models.Settlement{
		GroupID:     req.GroupID,
		FromUser:    userID,
		ToUser:      req.ToUser,
		Amount:      req.Amount,
		Description: req.Description,
	}
	if err := s.store.CreateSettlement(r.Context(), settlement); err != nil {
		slog.Error("CreateSettlement failed", "group_id", req.GroupID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record settlement")
		return
	}

	slog.Info("Settlement recorded",
		"settlement_id", settlement.ID,
		"group_id", req.GroupID,
		"from", userID,
		"to", req.ToUser,
		"amount", req.Amount,
	)
	writeJSON(w, http.StatusCreated, map[string]any{
		"ok":         true,
		"settlement": toSettlementResponse(settlement),
	})
}

// History returns the group's settlement records, newest first.
func (s *SettlementService) History(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "groupID")

	if requireMember(w, r, s.store, groupID, userID) == "" {
		return
	}

	settlements, err := s.store.ListSettlementsByGroup(r.Context(), groupID)
	if err != nil {
		slog.Error("ListSettlements failed", "group_id", groupID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch settlements")
		return
	}

	resp := make([]settlementResponse, 0, len(settlements))
	for _, st := range settlements {
		resp = append(resp, toSettlementResponse(st))
	}
	writeJSON(w, http.StatusOK, resp)
}
