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

// GroupService handles group management and balance views.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

type groupResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   int64  `json:"created_at"`
	MemberCount int    `json:"member_count,omitempty"`
}

func toGroupResponse(g *models.Group) groupResponse {
	return groupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedBy:   g.CreatedBy,
		CreatedAt:   g.CreatedAt,
		MemberCount: g.MemberCount,
	}
}

type memberResponse struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Create creates a new group with the caller as admin.
func (s *GroupService) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "group name is required")
		return
	}

	group := &models.Group{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   userID,
	}
	if err := s.store.CreateGroup(r.Context(), group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create group")
		return
	}

	slog.Info("Group created", "group_id", group.ID, "created_by", userID)
	writeJSON(w, http.StatusCreated, toGroupResponse(group))
}

// List returns the caller's groups with member counts.
func (s *GroupService) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	groups, err := s.store.ListGroupsByUser(r.Context(), userID)
	if err != nil {
		slog.Error("ListGroups failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch groups")
		return
	}

	resp := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		resp = append(resp, toGroupResponse(g))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns group details with members. Membership required.
func (s *GroupService) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "groupID")

	if requireMember(w, r, s.store, groupID, userID) == "" {
		return
	}

	group, err := s.store.GetGroup(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		slog.Error("GetGroup failed", "group_id", groupID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch group details")
		return
	}

	members, err := s.store.ListMembers(r.Context(), groupID)
	if err != nil {
		slog.Error("ListMembers failed", "group_id", groupID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch group details")
		return
	}

	memberResp := make([]memberResponse, 0, len(members))
	for _, m := range members {
		memberResp = append(memberResp, memberResponse{
			UserID: m.UserID, Name: m.Name, Email: m.Email, Role: m.Role,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"group":   toGroupResponse(group),
		"members": memberResp,
	})
}

type balanceEntry struct {
	UserID  string  `json:"user_id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

type suggestionEntry struct {
	From     string  `json:"from"`
	FromName string  `json:"from_name"`
	To       string  `json:"to"`
	ToName   string  `json:"to_name"`
	Amount   float64 `json:"amount"`
}

// Balances returns each member's net balance plus suggested settling
// transactions. The view is derived: recomputed from ledger facts on every
// call, never persisted.
func (s *GroupService) Balances(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "groupID")

	if requireMember(w, r, s.store, groupID, userID) == "" {
		return
	}

	facts, err := s.store.GroupFacts(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		slog.Error("GroupFacts failed", "group_id", groupID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to calculate balances")
		return
	}

	memberIDs, names, expenses, settlements := calculatorFacts(facts)
	balances := calculator.ComputeBalances(memberIDs, expenses, settlements)
	suggestions := calculator.Simplify(balances)

	balanceResp := make([]balanceEntry, 0, len(balances))
	for _, b := range balances {
		balanceResp = append(balanceResp, balanceEntry{
			UserID:  b.UserID,
			Name:    names[b.UserID],
			Balance: calculator.Round2(b.Net),
		})
	}

	suggestionResp := make([]suggestionEntry, 0, len(suggestions))
	for _, tx := range suggestions {
		suggestionResp = append(suggestionResp, suggestionEntry{
			From:     tx.From,
			FromName: names[tx.From],
			To:       tx.To,
			ToName:   names[tx.To],
			Amount:   tx.Amount,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"balances":   balanceResp,
		"simplified": suggestionResp,
	})
}

type totalBalanceEntry struct {
	UserID         string  `json:"user_id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	TotalPaid      float64 `json:"total_paid"`
	TotalOwed      float64 `json:"total_owed"`
	NetSettlements float64 `json:"net_settlements"`
	CurrentBalance float64 `json:"current_balance"`
	BalanceStatus  string  `json:"balance_status"`
}

// TotalBalances returns per-member paid/owed/settlement aggregates along
// with the group's total active spend.
func (s *GroupService) TotalBalances(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "groupID")

	if requireMember(w, r, s.store, groupID, userID) == "" {
		return
	}

	facts, err := s.store.GroupFacts(r.Context(), groupID)
	if err != nil {
		slog.Error("GroupFacts failed", "group_id", groupID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to calculate total balances")
		return
	}

	memberIDs, _, expenses, settlements := calculatorFacts(facts)
	balances := calculator.ComputeBalances(memberIDs, expenses, settlements)

	memberInfo := make(map[string]*models.GroupMember, len(facts.Members))
	for _, m := range facts.Members {
		memberInfo[m.UserID] = m
	}

	totalExpenses := 0.0
	for _, e := range facts.Expenses {
		totalExpenses += e.Amount
	}

	entries := make([]totalBalanceEntry, 0, len(balances))
	for _, b := range balances {
		info := memberInfo[b.UserID]
		if info == nil {
			continue // activity remains from a removed member
		}
		current := calculator.Round2(b.Net)
		status := "settled"
		if current > calculator.Epsilon {
			status = "owed"
		} else if current < -calculator.Epsilon {
			status = "owes"
		}
		entries = append(entries, totalBalanceEntry{
			UserID:         b.UserID,
			Name:           info.Name,
			Email:          info.Email,
			TotalPaid:      calculator.Round2(b.TotalPaid),
			TotalOwed:      calculator.Round2(b.TotalOwed),
			NetSettlements: calculator.Round2(b.SettlementsReceived - b.SettlementsPaid),
			CurrentBalance: current,
			BalanceStatus:  status,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_expenses": calculator.Round2(totalExpenses),
		"members":        entries,
	})
}

// AddMember adds a user to the group by email. Admin only.
func (s *GroupService) AddMember(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "groupID")

	role := requireMember(w, r, s.store, groupID, userID)
	if role == "" {
		return
	}
	if role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "only admins can add members")
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), strings.TrimSpace(strings.ToLower(req.Email)))
	if err != nil {
		slog.Error("AddMember lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add member")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	existing, err := s.store.GetMemberRole(r.Context(), groupID, user.ID)
	if err != nil {
		slog.Error("AddMember role check failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add member")
		return
	}
	if existing != "" {
		writeError(w, http.StatusConflict, "user is already a member")
		return
	}

	if err := s.store.AddMember(r.Context(), groupID, user.ID, models.RoleMember); err != nil {
		slog.Error("AddMember failed", "group_id", groupID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add member")
		return
	}

	slog.Info("Member added", "group_id", groupID, "user_id", user.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "member added successfully"})
}

// RemoveMember removes a member and purges their ledger footprint. Admin
// only, and only when the member's balance is settled: removal would
// otherwise silently erase money someone is owed.
func (s *GroupService) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	groupID := chi.URLParam(r, "groupID")
	memberID := chi.URLParam(r, "userID")

	role := requireMember(w, r, s.store, groupID, userID)
	if role == "" {
		return
	}
	if role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "only admins can remove members")
		return
	}
	if memberID == userID {
		writeError(w, http.StatusBadRequest, "cannot remove yourself from group")
		return
	}

	facts, err := s.store.GroupFacts(r.Context(), groupID)
	if err != nil {
		slog.Error("GroupFacts failed", "group_id", groupID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}

	memberIDs, _, expenses, settlements := calculatorFacts(facts)
	for _, b := range calculator.ComputeBalances(memberIDs, expenses, settlements) {
		if b.UserID != memberID {
			continue
		}
		if math.Abs(b.Net) > calculator.Epsilon {
			balErr := &calculator.OutstandingBalanceError{Balance: calculator.Round2(b.Net)}
			writeError(w, http.StatusBadRequest, "cannot remove member with "+balErr.Error())
			return
		}
	}

	if err := s.store.RemoveMember(r.Context(), groupID, memberID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "member not found")
			return
		}
		slog.Error("RemoveMember failed", "group_id", groupID, "member_id", memberID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}

	slog.Info("Member removed", "group_id", groupID, "member_id", memberID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "member removed successfully"})
}

// calculatorFacts converts a storage snapshot into calculator inputs plus a
// user ID to display name map.
func calculatorFacts(facts *storage.GroupFacts) ([]string, map[string]string, []calculator.ExpenseFacts, []calculator.SettlementFacts) {
	memberIDs := make([]string, 0, len(facts.Members))
	names := make(map[string]string, len(facts.Members))
	for _, m := range facts.Members {
		memberIDs = append(memberIDs, m.UserID)
		names[m.UserID] = m.Name
	}

	expenses := make([]calculator.ExpenseFacts, 0, len(facts.Expenses))
	for _, e := range facts.Expenses {
		ef := calculator.ExpenseFacts{Amount: e.Amount}
		for _, p := range e.Payments {
			ef.Payments = append(ef.Payments, calculator.PaymentFacts{UserID: p.UserID, Amount: p.Amount})
		}
		for _, sh := range e.Shares {
			ef.Shares = append(ef.Shares, calculator.ShareFacts{UserID: sh.UserID, Amount: sh.Amount})
		}
		expenses = append(expenses, ef)
	}

	settlements := make([]calculator.SettlementFacts, 0, len(facts.Settlements))
	for _, st := range facts.Settlements {
		settlements = append(settlements, calculator.SettlementFacts{
			FromUser: st.FromUser,
			ToUser:   st.ToUser,
			Amount:   st.Amount,
		})
	}

	return memberIDs, names, expenses, settlements
}
