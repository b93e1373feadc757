package service

import (
	"math"
	"net/http"
	"testing"
)

func TestCreateAndListGroups(t *testing.T) {
	env := newTestEnv(t)
	token, userID := env.signup("Alice", "alice@example.com")

	var created struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		CreatedBy string `json:"created_by"`
	}
	status := env.do(http.MethodPost, "/api/groups", token, map[string]string{
		"name":        "Flatmates",
		"description": "Rent and bills",
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", status)
	}
	if created.ID == "" {
		t.Error("expected non-empty group ID")
	}
	if created.CreatedBy != userID {
		t.Errorf("expected created_by %s, got %s", userID, created.CreatedBy)
	}

	var groups []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		MemberCount int    `json:"member_count"`
	}
	status = env.do(http.MethodGet, "/api/groups", token, nil, &groups)
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].Name != "Flatmates" {
		t.Errorf("name mismatch: got %q", groups[0].Name)
	}
	if groups[0].MemberCount != 1 {
		t.Errorf("expected member_count 1, got %d", groups[0].MemberCount)
	}
}

func TestCreateGroup_RequiresName(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.signup("Alice", "alice@example.com")

	status := env.do(http.MethodPost, "/api/groups", token, map[string]string{"name": "  "}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", status)
	}
}

func TestGetGroupWithMembers(t *testing.T) {
	env := newTestEnv(t)
	aliceToken, _ := env.signup("Alice", "alice@example.com")
	bobToken, _ := env.signup("Bob", "bob@example.com")

	groupID := env.createGroup(aliceToken, "Trip")
	env.addMember(aliceToken, groupID, "bob@example.com")

	var resp struct {
		Group struct {
			Name string `json:"name"`
		} `json:"group"`
		Members []struct {
			Name string `json:"name"`
			Role string `json:"role"`
		} `json:"members"`
	}
	status := env.do(http.MethodGet, "/api/groups/"+groupID, bobToken, nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	if resp.Group.Name != "Trip" {
		t.Errorf("group name mismatch: got %q", resp.Group.Name)
	}
	if len(resp.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(resp.Members))
	}

	roles := map[string]string{}
	for _, m := range resp.Members {
		roles[m.Name] = m.Role
	}
	if roles["Alice"] != "admin" {
		t.Errorf("expected Alice to be admin, got %q", roles["Alice"])
	}
	if roles["Bob"] != "member" {
		t.Errorf("expected Bob to be member, got %q", roles["Bob"])
	}
}

func TestGroupAccessControl(t *testing.T) {
	env := newTestEnv(t)
	aliceToken, _ := env.signup("Alice", "alice@example.com")
	carolToken, _ := env.signup("Carol", "carol@example.com")

	groupID := env.createGroup(aliceToken, "Private")

	if status := env.do(http.MethodGet, "/api/groups/"+groupID, carolToken, nil, nil); status != http.StatusForbidden {
		t.Errorf("non-member get: expected status 403, got %d", status)
	}
	if status := env.do(http.MethodGet, "/api/groups/"+groupID+"/balances", carolToken, nil, nil); status != http.StatusForbidden {
		t.Errorf("non-member balances: expected status 403, got %d", status)
	}
}

func TestAddMember_Checks(t *testing.T) {
	env := newTestEnv(t)
	aliceToken, _ := env.signup("Alice", "alice@example.com")
	bobToken, _ := env.signup("Bob", "bob@example.com")
	env.signup("Carol", "carol@example.com")

	groupID := env.createGroup(aliceToken, "Trip")
	env.addMember(aliceToken, groupID, "bob@example.com")

	// Plain members cannot add
	status := env.do(http.MethodPost, "/api/groups/"+groupID+"/members", bobToken,
		map[string]string{"email": "carol@example.com"}, nil)
	if status != http.StatusForbidden {
		t.Errorf("member add: expected status 403, got %d", status)
	}

	// Unknown email
	status = env.do(http.MethodPost, "/api/groups/"+groupID+"/members", aliceToken,
		map[string]string{"email": "nobody@example.com"}, nil)
	if status != http.StatusNotFound {
		t.Errorf("unknown email: expected status 404, got %d", status)
	}

	// Already a member
	status = env.do(http.MethodPost, "/api/groups/"+groupID+"/members", aliceToken,
		map[string]string{"email": "bob@example.com"}, nil)
	if status != http.StatusConflict {
		t.Errorf("duplicate add: expected status 409, got %d", status)
	}
}

type balancesResponse struct {
	Balances []struct {
		UserID  string  `json:"user_id"`
		Name    string  `json:"name"`
		Balance float64 `json:"balance"`
	} `json:"balances"`
	Simplified []struct {
		From   string  `json:"from"`
		To     string  `json:"to"`
		Amount float64 `json:"amount"`
	} `json:"simplified"`
}

// setupTrioGroup registers Alice, Bob and Carol, puts them in one group
// created by Alice, and logs a 90.00 expense paid by Alice split equally.
// Net positions: Alice +60, Bob -30, Carol -30.
func setupTrioGroup(t *testing.T, env *testEnv) (tokens map[string]string, ids map[string]string, groupID string) {
	t.Helper()

	tokens = map[string]string{}
	ids = map[string]string{}
	for _, u := range []struct{ name, email string }{
		{"Alice", "alice@example.com"},
		{"Bob", "bob@example.com"},
		{"Carol", "carol@example.com"},
	} {
		tokens[u.name], ids[u.name] = env.signup(u.name, u.email)
	}

	groupID = env.createGroup(tokens["Alice"], "Flatmates")
	env.addMember(tokens["Alice"], groupID, "bob@example.com")
	env.addMember(tokens["Alice"], groupID, "carol@example.com")

	env.createExpense(tokens["Alice"], map[string]any{
		"group_id":    groupID,
		"amount":      90.0,
		"description": "Groceries",
		"shares": []map[string]any{
			{"user_id": ids["Alice"], "share_amount": 30.0},
			{"user_id": ids["Bob"], "share_amount": 30.0},
			{"user_id": ids["Carol"], "share_amount": 30.0},
		},
	})
	return tokens, ids, groupID
}

func TestGroupBalances(t *testing.T) {
	env := newTestEnv(t)
	tokens, ids, groupID := setupTrioGroup(t, env)

	var resp balancesResponse
	status := env.do(http.MethodGet, "/api/groups/"+groupID+"/balances", tokens["Bob"], nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}

	want := map[string]float64{
		ids["Alice"]: 60,
		ids["Bob"]:   -30,
		ids["Carol"]: -30,
	}
	if len(resp.Balances) != 3 {
		t.Fatalf("expected 3 balances, got %d", len(resp.Balances))
	}
	for _, b := range resp.Balances {
		if math.Abs(b.Balance-want[b.UserID]) > 0.01 {
			t.Errorf("balance for %s: got %.2f, want %.2f", b.Name, b.Balance, want[b.UserID])
		}
	}

	// Both debtors pay Alice directly
	if len(resp.Simplified) != 2 {
		t.Fatalf("expected 2 suggested transactions, got %d", len(resp.Simplified))
	}
	for _, tx := range resp.Simplified {
		if tx.To != ids["Alice"] {
			t.Errorf("expected transaction to Alice, got to=%s", tx.To)
		}
		if math.Abs(tx.Amount-30) > 0.01 {
			t.Errorf("expected transaction amount 30, got %.2f", tx.Amount)
		}
	}
}

func TestGroupBalances_SettlementOffsets(t *testing.T) {
	env := newTestEnv(t)
	tokens, ids, groupID := setupTrioGroup(t, env)

	// Bob paid Alice back; Alice records it
	status := env.do(http.MethodPost, "/api/payments/settle", tokens["Alice"], map[string]any{
		"group_id": groupID,
		"to_user":  ids["Bob"],
		"amount":   30.0,
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("settle: expected status 201, got %d", status)
	}

	var resp balancesResponse
	env.do(http.MethodGet, "/api/groups/"+groupID+"/balances", tokens["Alice"], nil, &resp)

	want := map[string]float64{
		ids["Alice"]: 30,
		ids["Bob"]:   0,
		ids["Carol"]: -30,
	}
	for _, b := range resp.Balances {
		if math.Abs(b.Balance-want[b.UserID]) > 0.01 {
			t.Errorf("balance for %s: got %.2f, want %.2f", b.Name, b.Balance, want[b.UserID])
		}
	}

	if len(resp.Simplified) != 1 {
		t.Fatalf("expected 1 suggested transaction, got %d", len(resp.Simplified))
	}
	tx := resp.Simplified[0]
	if tx.From != ids["Carol"] || tx.To != ids["Alice"] || math.Abs(tx.Amount-30) > 0.01 {
		t.Errorf("unexpected suggestion: %+v", tx)
	}
}

func TestTotalBalances(t *testing.T) {
	env := newTestEnv(t)
	tokens, ids, groupID := setupTrioGroup(t, env)

	var resp struct {
		TotalExpenses float64 `json:"total_expenses"`
		Members       []struct {
			UserID         string  `json:"user_id"`
			TotalPaid      float64 `json:"total_paid"`
			TotalOwed      float64 `json:"total_owed"`
			CurrentBalance float64 `json:"current_balance"`
			BalanceStatus  string  `json:"balance_status"`
		} `json:"members"`
	}
	status := env.do(http.MethodGet, "/api/groups/"+groupID+"/total-balances", tokens["Alice"], nil, &resp)
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	if math.Abs(resp.TotalExpenses-90) > 0.01 {
		t.Errorf("expected total_expenses 90, got %.2f", resp.TotalExpenses)
	}

	byID := map[string]int{}
	for i, m := range resp.Members {
		byID[m.UserID] = i
	}
	alice := resp.Members[byID[ids["Alice"]]]
	if alice.TotalPaid != 90 || alice.TotalOwed != 30 || alice.BalanceStatus != "owed" {
		t.Errorf("unexpected entry for Alice: %+v", alice)
	}
	bob := resp.Members[byID[ids["Bob"]]]
	if bob.TotalPaid != 0 || bob.TotalOwed != 30 || bob.BalanceStatus != "owes" {
		t.Errorf("unexpected entry for Bob: %+v", bob)
	}
}

func TestRemoveMember(t *testing.T) {
	env := newTestEnv(t)
	tokens, ids, groupID := setupTrioGroup(t, env)

	// Carol still owes 30
	status := env.do(http.MethodDelete, "/api/groups/"+groupID+"/members/"+ids["Carol"], tokens["Alice"], nil, nil)
	if status != http.StatusBadRequest {
		t.Errorf("outstanding balance: expected status 400, got %d", status)
	}

	// Carol pays Alice back and Alice records it; removal then succeeds
	status = env.do(http.MethodPost, "/api/payments/settle", tokens["Alice"], map[string]any{
		"group_id": groupID,
		"to_user":  ids["Carol"],
		"amount":   30.0,
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("settle: expected status 201, got %d", status)
	}

	status = env.do(http.MethodDelete, "/api/groups/"+groupID+"/members/"+ids["Carol"], tokens["Alice"], nil, nil)
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}

	// Carol no longer has access
	if status := env.do(http.MethodGet, "/api/groups/"+groupID, tokens["Carol"], nil, nil); status != http.StatusForbidden {
		t.Errorf("removed member access: expected status 403, got %d", status)
	}
}

func TestRemoveMember_Checks(t *testing.T) {
	env := newTestEnv(t)
	tokens, ids, groupID := setupTrioGroup(t, env)

	// Plain members cannot remove
	status := env.do(http.MethodDelete, "/api/groups/"+groupID+"/members/"+ids["Carol"], tokens["Bob"], nil, nil)
	if status != http.StatusForbidden {
		t.Errorf("member remove: expected status 403, got %d", status)
	}

	// Admins cannot remove themselves
	status = env.do(http.MethodDelete, "/api/groups/"+groupID+"/members/"+ids["Alice"], tokens["Alice"], nil, nil)
	if status != http.StatusBadRequest {
		t.Errorf("self removal: expected status 400, got %d", status)
	}
}
