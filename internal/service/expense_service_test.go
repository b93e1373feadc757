package service

import (
	"math"
	"net/http"
	"testing"
)

func TestCreateExpense_Validation(t *testing.T) {
	env := newTestEnv(t)
	tokens, ids, groupID := setupTrioGroup(t, env)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
	}{
		{
			"missing group",
			map[string]any{
				"amount":      10.0,
				"description": "Snacks",
				"shares":      []map[string]any{{"user_id": ids["Alice"], "share_amount": 10.0}},
			},
			http.StatusBadRequest,
		},
		{
			"zero amount",
			map[string]any{
				"group_id":    groupID,
				"amount":      0.0,
				"description": "Snacks",
				"shares":      []map[string]any{{"user_id": ids["Alice"], "share_amount": 10.0}},
			},
			http.StatusBadRequest,
		},
		{
			"missing description",
			map[string]any{
				"group_id": groupID,
				"amount":   10.0,
				"shares":   []map[string]any{{"user_id": ids["Alice"], "share_amount": 10.0}},
			},
			http.StatusBadRequest,
		},
		{
			"shares do not sum to amount",
			map[string]any{
				"group_id":    groupID,
				"amount":      100.0,
				"description": "Dinner",
				"shares": []map[string]any{
					{"user_id": ids["Alice"], "share_amount": 40.0},
					{"user_id": ids["Bob"], "share_amount": 40.0},
				},
			},
			http.StatusBadRequest,
		},
		{
			"payers do not sum to amount",
			map[string]any{
				"group_id":    groupID,
				"amount":      100.0,
				"description": "Dinner",
				"shares": []map[string]any{
					{"user_id": ids["Alice"], "share_amount": 50.0},
					{"user_id": ids["Bob"], "share_amount": 50.0},
				},
				"payers": []map[string]any{
					{"user_id": ids["Alice"], "paid_amount": 70.0},
				},
			},
			http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := env.do(http.MethodPost, "/api/expenses", tokens["Alice"], tt.body, nil)
			if status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, status)
			}
		})
	}
}

func TestCreateExpense_NonMember(t *testing.T) {
	env := newTestEnv(t)
	_, ids, groupID := setupTrioGroup(t, env)
	outsiderToken, _ := env.signup("Dave", "dave@example.com")

	status := env.do(http.MethodPost, "/api/expenses", outsiderToken, map[string]any{
		"group_id":    groupID,
		"amount":      10.0,
		"description": "Sneaky",
		"shares":      []map[string]any{{"user_id": ids["Alice"], "share_amount": 10.0}},
	}, nil)
	if status != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", status)
	}
}

func TestListExpenses(t *testing.T) {
	env := newTestEnv(t)
	tokens, ids, groupID := setupTrioGroup(t, env)

	var resp []struct {
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		UserShare   float64 `json:"user_share"`
		UserPaid    float64 `json:"user_paid"`
		UserStatus  string  `json:"user_status"`
		Payers      []struct {
			UserID string  `json:"user_id"`
			Name   string  `json:"name"`
			Amount float64 `json:"paid_amount"`
		} `json:"payers"`
		Shares []struct {
			UserID string `json:"user_id"`
		} `json:"shares"`
	}

	status := env.do(http.MethodGet, "/api/expenses/"+groupID, tokens["Alice"], nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(resp))
	}

	e := resp[0]
	if e.Description != "Groceries" || e.Amount != 90 {
		t.Errorf("unexpected expense: %+v", e)
	}
	if len(e.Payers) != 1 || e.Payers[0].UserID != ids["Alice"] || e.Payers[0].Name != "Alice" {
		t.Errorf("unexpected payers: %+v", e.Payers)
	}
	if len(e.Shares) != 3 {
		t.Errorf("expected 3 shares, got %d", len(e.Shares))
	}

	// Alice paid 90, owes 30
	if e.UserPaid != 90 || e.UserShare != 30 || e.UserStatus != "lent" {
		t.Errorf("unexpected caller position: paid %.2f share %.2f status %q", e.UserPaid, e.UserShare, e.UserStatus)
	}

	// Bob paid nothing, owes 30
	env.do(http.MethodGet, "/api/expenses/"+groupID, tokens["Bob"], nil, &resp)
	if resp[0].UserPaid != 0 || resp[0].UserStatus != "borrowed" {
		t.Errorf("unexpected position for Bob: paid %.2f status %q", resp[0].UserPaid, resp[0].UserStatus)
	}
}

func TestCreateExpense_MultiplePayers(t *testing.T) {
	env := newTestEnv(t)
	tokens, ids, groupID := setupTrioGroup(t, env)

	env.createExpense(tokens["Alice"], map[string]any{
		"group_id":    groupID,
		"amount":      60.0,
		"description": "Fuel",
		"shares": []map[string]any{
			{"user_id": ids["Alice"], "share_amount": 20.0},
			{"user_id": ids["Bob"], "share_amount": 20.0},
			{"user_id": ids["Carol"], "share_amount": 20.0},
		},
		"payers": []map[string]any{
			{"user_id": ids["Alice"], "paid_amount": 40.0},
			{"user_id": ids["Bob"], "paid_amount": 20.0},
		},
	})

	var resp []struct {
		Description string `json:"description"`
		Payers      []struct {
			Amount float64 `json:"paid_amount"`
		} `json:"payers"`
	}
	env.do(http.MethodGet, "/api/expenses/"+groupID, tokens["Carol"], nil, &resp)

	found := false
	for _, e := range resp {
		if e.Description != "Fuel" {
			continue
		}
		found = true
		if len(e.Payers) != 2 {
			t.Fatalf("expected 2 payers, got %d", len(e.Payers))
		}
		total := 0.0
		for _, p := range e.Payers {
			total += p.Amount
		}
		if math.Abs(total-60) > 0.01 {
			t.Errorf("expected payer amounts to sum to 60, got %.2f", total)
		}
	}
	if !found {
		t.Fatal("expected Fuel expense in list")
	}
}

func TestDeleteExpense(t *testing.T) {
	env := newTestEnv(t)
	tokens, ids, groupID := setupTrioGroup(t, env)

	// Bob logs an expense he paid for
	expenseID := env.createExpense(tokens["Bob"], map[string]any{
		"group_id":    groupID,
		"amount":      20.0,
		"description": "Taxi",
		"shares": []map[string]any{
			{"user_id": ids["Bob"], "share_amount": 10.0},
			{"user_id": ids["Carol"], "share_amount": 10.0},
		},
	})

	// Carol is neither payer nor admin
	status := env.do(http.MethodDelete, "/api/expenses/"+expenseID, tokens["Carol"], nil, nil)
	if status != http.StatusForbidden {
		t.Errorf("non-payer delete: expected status 403, got %d", status)
	}

	// The payer can delete
	status = env.do(http.MethodDelete, "/api/expenses/"+expenseID, tokens["Bob"], nil, nil)
	if status != http.StatusOK {
		t.Fatalf("payer delete: expected status 200, got %d", status)
	}

	// The expense no longer shows up or counts toward balances
	var expenses []struct {
		ID string `json:"id"`
	}
	env.do(http.MethodGet, "/api/expenses/"+groupID, tokens["Bob"], nil, &expenses)
	for _, e := range expenses {
		if e.ID == expenseID {
			t.Error("deleted expense still listed")
		}
	}
}

func TestDeleteExpense_NotFound(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup("Alice", "alice@example.com")

	status := env.do(http.MethodDelete, "/api/expenses/nonexistent-id", token, nil, nil)
	if status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", status)
	}
}

func TestCalculateSplit(t *testing.T) {
	env := newTestEnv(t)
	tokens, ids, groupID := setupTrioGroup(t, env)

	var resp struct {
		Shares []struct {
			UserID string  `json:"user_id"`
			Amount float64 `json:"share_amount"`
		} `json:"shares"`
	}

	t.Run("equal split absorbs remainder", func(t *testing.T) {
		status := env.do(http.MethodPost, "/api/expenses/"+groupID+"/calculate-split", tokens["Alice"], map[string]any{
			"amount":       100.0,
			"split_method": "equal",
			"member_ids":   []string{ids["Alice"], ids["Bob"], ids["Carol"]},
		}, &resp)
		if status != http.StatusOK {
			t.Fatalf("expected status 200, got %d", status)
		}
		if len(resp.Shares) != 3 {
			t.Fatalf("expected 3 shares, got %d", len(resp.Shares))
		}
		if resp.Shares[0].Amount != 33.33 || resp.Shares[1].Amount != 33.33 || resp.Shares[2].Amount != 33.34 {
			t.Errorf("unexpected shares: %+v", resp.Shares)
		}
	})

	t.Run("percentage split", func(t *testing.T) {
		status := env.do(http.MethodPost, "/api/expenses/"+groupID+"/calculate-split", tokens["Alice"], map[string]any{
			"amount":       100.0,
			"split_method": "percentage",
			"member_ids":   []string{ids["Alice"], ids["Bob"]},
			"percentages":  []float64{60, 40},
		}, &resp)
		if status != http.StatusOK {
			t.Fatalf("expected status 200, got %d", status)
		}
		if resp.Shares[0].Amount != 60 || resp.Shares[1].Amount != 40 {
			t.Errorf("unexpected shares: %+v", resp.Shares)
		}
	})

	t.Run("exact split", func(t *testing.T) {
		status := env.do(http.MethodPost, "/api/expenses/"+groupID+"/calculate-split", tokens["Alice"], map[string]any{
			"amount":       50.0,
			"split_method": "exact",
			"member_ids":   []string{ids["Alice"], ids["Bob"]},
			"exact_amounts": map[string]float64{
				ids["Alice"]: 35,
				ids["Bob"]:   15,
			},
		}, &resp)
		if status != http.StatusOK {
			t.Fatalf("expected status 200, got %d", status)
		}
		if resp.Shares[0].Amount != 35 || resp.Shares[1].Amount != 15 {
			t.Errorf("unexpected shares: %+v", resp.Shares)
		}
	})

	t.Run("unknown method rejected", func(t *testing.T) {
		status := env.do(http.MethodPost, "/api/expenses/"+groupID+"/calculate-split", tokens["Alice"], map[string]any{
			"amount":       50.0,
			"split_method": "vibes",
			"member_ids":   []string{ids["Alice"]},
		}, nil)
		if status != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", status)
		}
	})

	t.Run("mismatched percentages rejected", func(t *testing.T) {
		status := env.do(http.MethodPost, "/api/expenses/"+groupID+"/calculate-split", tokens["Alice"], map[string]any{
			"amount":       100.0,
			"split_method": "percentage",
			"member_ids":   []string{ids["Alice"], ids["Bob"]},
			"percentages":  []float64{60, 20},
		}, nil)
		if status != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", status)
		}
	})
}
