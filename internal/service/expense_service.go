package service

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hisaabhub/hisaabhub/internal/calculator"
	"github.com/hisaabhub/hisaabhub/internal/middleware"
	"github.com/hisaabhub/hisaabhub/internal/models"
	"github.com/hisaabhub/hisaabhub/internal/storage"
)

// ExpenseService handles expense creation, listing, soft deletion and the
// split-suggestion endpoint.
type ExpenseService struct {
	store storage.Store
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store) *ExpenseService {
	return &ExpenseService{store: store}
}

type shareRequest struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"share_amount"`
}

type payerRequest struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"paid_amount"`
}

// Create logs a new expense. Shares must reconcile with the amount within
// 0.01, and so must payer contributions when multiple payers are given;
// the check runs before anything is written so inconsistent ledger rows
// can never be committed. Without payers the caller is recorded as the
// single payer.
func (s *ExpenseService) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		GroupID     string         `json:"group_id"`
		Amount      float64        `json:"amount"`
		Description string         `json:"description"`
		Shares      []shareRequest `json:"shares"`
		Payers      []payerRequest `json:"payers"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	if req.GroupID == "" || req.Amount <= 0 || len(req.Shares) == 0 {
		writeError(w, http.StatusBadRequest, "group_id, positive amount and shares are required")
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	if requireMember(w, r, s.store, req.GroupID, userID) == "" {
		return
	}

	shares := make([]models.Share, 0, len(req.Shares))
	checkShares := make([]calculator.MemberShare, 0, len(req.Shares))
	for _, sh := range req.Shares {
		shares = append(shares, models.Share{UserID: sh.UserID, Amount: sh.Amount})
		checkShares = append(checkShares, calculator.MemberShare{UserID: sh.UserID, Amount: sh.Amount})
	}
	if err := calculator.VerifyShares(req.Amount, checkShares); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payments := []models.Payment{{UserID: userID, Amount: req.Amount}}
	if len(req.Payers) > 0 {
		paidTotal := 0.0
		payments = payments[:0]
		for _, p := range req.Payers {
			payments = append(payments, models.Payment{UserID: p.UserID, Amount: p.Amount})
			paidTotal += p.Amount
		}
		if math.Abs(paidTotal-req.Amount) > calculator.Epsilon {
			writeError(w, http.StatusBadRequest, "payer contributions do not sum to total amount")
			return
		}
	}

	expense := &models.Expense{
		GroupID:     req.GroupID,
		Description: req.Description,
		Amount:      req.Amount,
		Payments:    payments,
		Shares:      shares,
	}
	if err := s.store.CreateExpense(r.Context(), expense); err != nil {
		slog.Error("CreateExpense failed", "group_id", req.GroupID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create expense")
		return
	}

	slog.Info("Expense created",
		"expense_id", expense.ID,
		"group_id", req.GroupID,
		"amount", req.Amount,
		"payers", len(payments),
	)
	writeJSON(w, http.StatusCreated, map[string]string{"expense_id": expense.ID})
}

type expenseResponse struct {
	ID          string         `json:"id"`
	GroupID     string         `json:"group_id"`
	Description string         `json:"description"`
	Amount      float64        `json:"amount"`
	Payers      []payerEntry   `json:"payers"`
	Shares      []shareEntry   `json:"shares"`
	CreatedAt   int64          `json:"created_at"`
	UserShare   float64        `json:"user_share"`
	UserPaid    float64        `json:"user_paid"`
	UserStatus  string         `json:"user_status"`
}

type payerEntry struct {
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Amount float64 `json:"paid_amount"`
}

type shareEntry struct {
	UserID string  `json:"user_id"`
	Name   string  `json:"name"`
	Amount float64 `json:"share_amount"`
}

// ListByGroup returns the group's active expenses with the caller's
// lent/borrowed position on each.
func (s *ExpenseService) ListByGroup(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "groupID")

	if requireMember(w, r, s.store, groupID, userID) == "" {
		return
	}

	expenses, err := s.store.ListExpensesByGroup(r.Context(), groupID)
	if err != nil {
		slog.Error("ListExpenses failed", "group_id", groupID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch expenses")
		return
	}

	resp := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		er := expenseResponse{
			ID:          e.ID,
			GroupID:     e.GroupID,
			Description: e.Description,
			Amount:      e.Amount,
			CreatedAt:   e.CreatedAt,
			Payers:      make([]payerEntry, 0, len(e.Payments)),
			Shares:      make([]shareEntry, 0, len(e.Shares)),
		}
		for _, p := range e.Payments {
			er.Payers = append(er.Payers, payerEntry{UserID: p.UserID, Name: p.Name, Amount: p.Amount})
			if p.UserID == userID {
				er.UserPaid = p.Amount
			}
		}
		for _, sh := range e.Shares {
			er.Shares = append(er.Shares, shareEntry{UserID: sh.UserID, Name: sh.Name, Amount: sh.Amount})
			if sh.UserID == userID {
				er.UserShare = sh.Amount
			}
		}
		if er.UserPaid > er.UserShare {
			er.UserStatus = "lent"
		} else {
			er.UserStatus = "borrowed"
		}
		resp = append(resp, er)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Delete soft-deletes an expense. Allowed for a payer of the expense, the
// group admin or the group creator. The rows stay for history; balances
// stop counting them.
func (s *ExpenseService) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	expenseID := chi.URLParam(r, "expenseID")

	expense, err := s.store.GetExpense(r.Context(), expenseID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "expense not found")
			return
		}
		slog.Error("GetExpense failed", "expense_id", expenseID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete expense")
		return
	}

	role := requireMember(w, r, s.store, expense.GroupID, userID)
	if role == "" {
		return
	}

	isPayer := false
	for _, p := range expense.Payments {
		if p.UserID == userID {
			isPayer = true
			break
		}
	}
	if !isPayer && role != models.RoleAdmin {
		group, err := s.store.GetGroup(r.Context(), expense.GroupID)
		if err != nil || group.CreatedBy != userID {
			writeError(w, http.StatusForbidden, "only the expense payer or group admin can delete expenses")
			return
		}
	}

	if err := s.store.DeactivateExpense(r.Context(), expenseID); err != nil {
		slog.Error("DeactivateExpense failed", "expense_id", expenseID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete expense")
		return
	}

	slog.Info("Expense deactivated", "expense_id", expenseID, "by", userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "expense deleted successfully"})
}

// CalculateSplit suggests per-member shares for a prospective expense
// without persisting anything.
func (s *ExpenseService) CalculateSplit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "groupID")

	if requireMember(w, r, s.store, groupID, userID) == "" {
		return
	}

	var req struct {
		Amount       float64            `json:"amount"`
		SplitMethod  string             `json:"split_method"`
		MemberIDs    []string           `json:"member_ids"`
		ExactAmounts map[string]float64 `json:"exact_amounts"`
		Percentages  []float64          `json:"percentages"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	shares, err := calculator.ComputeShares(
		req.Amount,
		calculator.SplitMethod(req.SplitMethod),
		req.MemberIDs,
		calculator.SplitInput{ExactAmounts: req.ExactAmounts, Percentages: req.Percentages},
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := make([]shareRequest, 0, len(shares))
	for _, sh := range shares {
		resp = append(resp, shareRequest{UserID: sh.UserID, Amount: sh.Amount})
	}
	writeJSON(w, http.StatusOK, map[string]any{"shares": resp})
}
