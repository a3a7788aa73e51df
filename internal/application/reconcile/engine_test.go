package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dvanosdol88/teller-codex10-9A/internal/domain"
)

// fakeStore is a map-backed Store that can also fail on demand, which the
// shared in-memory store cannot.
type fakeStore struct {
	users        map[string]domain.User
	accounts     map[string]domain.Account
	balances     map[string]domain.Balance
	transactions map[string]domain.Transaction
	failGet      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        make(map[string]domain.User),
		accounts:     make(map[string]domain.Account),
		balances:     make(map[string]domain.Balance),
		transactions: make(map[string]domain.Transaction),
	}
}

func (s *fakeStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if s.failGet != nil {
		return nil, s.failGet
	}
	if u, ok := s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (s *fakeStore) InsertUser(ctx context.Context, user *domain.User) error {
	s.users[user.ID] = *user
	return nil
}

func (s *fakeStore) UpdateUser(ctx context.Context, user *domain.User) error {
	s.users[user.ID] = *user
	return nil
}

func (s *fakeStore) GetUserByToken(ctx context.Context, token string) (*domain.User, error) {
	for _, u := range s.users {
		if u.AccessToken == token {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if s.failGet != nil {
		return nil, s.failGet
	}
	if a, ok := s.accounts[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (s *fakeStore) InsertAccount(ctx context.Context, account *domain.Account) error {
	s.accounts[account.ID] = *account
	return nil
}

func (s *fakeStore) UpdateAccount(ctx context.Context, account *domain.Account) error {
	s.accounts[account.ID] = *account
	return nil
}

func (s *fakeStore) ListAccountsByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	var out []domain.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) GetBalance(ctx context.Context, accountID string) (*domain.Balance, error) {
	if b, ok := s.balances[accountID]; ok {
		return &b, nil
	}
	return nil, nil
}

func (s *fakeStore) InsertBalance(ctx context.Context, balance *domain.Balance) error {
	s.balances[balance.AccountID] = *balance
	return nil
}

func (s *fakeStore) UpdateBalance(ctx context.Context, balance *domain.Balance) error {
	s.balances[balance.AccountID] = *balance
	return nil
}

func (s *fakeStore) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	if tx, ok := s.transactions[id]; ok {
		return &tx, nil
	}
	return nil, nil
}

func (s *fakeStore) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	s.transactions[tx.ID] = *tx
	return nil
}

func (s *fakeStore) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	s.transactions[tx.ID] = *tx
	return nil
}

func (s *fakeStore) DeleteTransaction(ctx context.Context, id string) error {
	delete(s.transactions, id)
	return nil
}

func (s *fakeStore) ListTransactionIDs(ctx context.Context, accountID string) ([]string, error) {
	var ids []string
	for id, tx := range s.transactions {
		if tx.AccountID == accountID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *fakeStore) ListTransactions(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for _, tx := range s.transactions {
		if tx.AccountID == accountID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newTestEngine(store Store, at time.Time) *Engine {
	e := New(store, zerolog.Nop())
	e.now = func() time.Time { return at }
	return e
}

func dec(s string) decimal.NullDecimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func txPayload(id, date string) domain.TransactionPayload {
	return domain.TransactionPayload{
		ID:          id,
		Description: "desc " + id,
		Amount:      dec("-1.00"),
		Date:        domain.ParseDate(date),
		Type:        "card_payment",
		Raw:         json.RawMessage(`{"id":"` + id + `"}`),
	}
}

func TestUpsertUserCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	e := newTestEngine(store, t0)
	created, err := e.UpsertUser(ctx, "usr_1", "token_a", "Jane")
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	if created.AccessToken != "token_a" || created.Name != "Jane" {
		t.Fatalf("unexpected user: %+v", created)
	}
	if !created.CreatedAt.Equal(t0) || !created.UpdatedAt.Equal(t0) {
		t.Fatalf("timestamps = %v/%v, want %v", created.CreatedAt, created.UpdatedAt, t0)
	}

	t1 := t0.Add(time.Hour)
	e = newTestEngine(store, t1)
	updated, err := e.UpsertUser(ctx, "usr_1", "token_b", "Jane Q")
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	if updated.AccessToken != "token_b" || updated.Name != "Jane Q" {
		t.Fatalf("unexpected user after update: %+v", updated)
	}
	if !updated.CreatedAt.Equal(t0) {
		t.Fatalf("CreatedAt changed on update: %v", updated.CreatedAt)
	}
	if !updated.UpdatedAt.Equal(t1) {
		t.Fatalf("UpdatedAt = %v, want %v", updated.UpdatedAt, t1)
	}
	if len(store.users) != 1 {
		t.Fatalf("user count = %d, want 1", len(store.users))
	}
}

func TestUpsertUserKeepsNameWhenNewOneEmpty(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(store, time.Now())

	if _, err := e.UpsertUser(ctx, "usr_1", "token_a", "Jane"); err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	user, err := e.UpsertUser(ctx, "usr_1", "token_b", "")
	if err != nil {
		t.Fatalf("UpsertUser() error = %v", err)
	}
	if user.Name != "Jane" {
		t.Fatalf("Name = %q, want Jane kept", user.Name)
	}
	if user.AccessToken != "token_b" {
		t.Fatalf("AccessToken = %q, want token_b", user.AccessToken)
	}
}

func TestUpsertUserRejectsEmptyID(t *testing.T) {
	e := newTestEngine(newFakeStore(), time.Now())
	var verr *domain.ValidationError
	if _, err := e.UpsertUser(context.Background(), "", "token", ""); !errors.As(err, &verr) {
		t.Fatalf("UpsertUser(\"\") error = %v, want ValidationError", err)
	}
}

func TestUpsertAccountReassignsOwnership(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(store, time.Now())

	first, _ := e.UpsertUser(ctx, "usr_1", "token_a", "")
	second, _ := e.UpsertUser(ctx, "usr_2", "token_b", "")

	payload := domain.AccountPayload{ID: "acc_1", Name: "Checking", Raw: json.RawMessage(`{}`)}
	if _, err := e.UpsertAccount(ctx, first, payload); err != nil {
		t.Fatalf("UpsertAccount() error = %v", err)
	}
	account, err := e.UpsertAccount(ctx, second, payload)
	if err != nil {
		t.Fatalf("UpsertAccount() error = %v", err)
	}
	if account.UserID != "usr_2" {
		t.Fatalf("UserID = %q, want usr_2", account.UserID)
	}

	orphaned, _ := e.ListAccounts(ctx, first)
	if len(orphaned) != 0 {
		t.Fatalf("former owner still sees %d accounts", len(orphaned))
	}
	owned, _ := e.ListAccounts(ctx, second)
	if len(owned) != 1 {
		t.Fatalf("new owner sees %d accounts, want 1", len(owned))
	}
}

func TestUpsertAccountRejectsMissingID(t *testing.T) {
	e := newTestEngine(newFakeStore(), time.Now())
	user := &domain.User{ID: "usr_1"}
	var verr *domain.ValidationError
	if _, err := e.UpsertAccount(context.Background(), user, domain.AccountPayload{}); !errors.As(err, &verr) {
		t.Fatalf("UpsertAccount() error = %v, want ValidationError", err)
	}
}

func TestUpsertAccountWrapsStoreError(t *testing.T) {
	store := newFakeStore()
	store.failGet = errors.New("connection reset")
	e := newTestEngine(store, time.Now())
	user := &domain.User{ID: "usr_1"}

	_, err := e.UpsertAccount(context.Background(), user, domain.AccountPayload{ID: "acc_1"})
	if err == nil || !errors.Is(err, store.failGet) {
		t.Fatalf("UpsertAccount() error = %v, want wrapped store error", err)
	}
}

func TestUpdateBalanceUpsertsAndBumpsCachedAt(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	account := &domain.Account{ID: "acc_1", UserID: "usr_1"}

	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(store, t0)
	balance, err := e.UpdateBalance(ctx, account, domain.BalancePayload{
		Available: dec("110.00"),
		Ledger:    dec("110.00"),
		Currency:  "USD",
		Raw:       json.RawMessage(`{"available":"110.00"}`),
	})
	if err != nil {
		t.Fatalf("UpdateBalance() error = %v", err)
	}
	if !balance.CachedAt.Equal(t0) {
		t.Fatalf("CachedAt = %v, want %v", balance.CachedAt, t0)
	}

	t1 := t0.Add(time.Minute)
	e = newTestEngine(store, t1)
	balance, err = e.UpdateBalance(ctx, account, domain.BalancePayload{
		Available: decimal.NullDecimal{},
		Ledger:    dec("95.50"),
		Currency:  "USD",
		Raw:       json.RawMessage(`{"ledger":"95.50"}`),
	})
	if err != nil {
		t.Fatalf("UpdateBalance() error = %v", err)
	}
	if balance.Available.Valid {
		t.Fatalf("Available = %+v, want overwritten to null", balance.Available)
	}
	if balance.Ledger.Decimal.String() != "95.5" {
		t.Fatalf("Ledger = %s, want 95.5", balance.Ledger.Decimal)
	}
	if !balance.CachedAt.Equal(t1) {
		t.Fatalf("CachedAt = %v, want bumped to %v", balance.CachedAt, t1)
	}
	if len(store.balances) != 1 {
		t.Fatalf("balance rows = %d, want 1", len(store.balances))
	}
}

func TestReplaceTransactionsConvergesToWindow(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(store, time.Now())
	account := &domain.Account{ID: "acc_1", UserID: "usr_1"}

	if _, err := e.ReplaceTransactions(ctx, account, []domain.TransactionPayload{
		txPayload("txn_1", "2024-03-01"),
		txPayload("txn_2", "2024-03-02"),
	}); err != nil {
		t.Fatalf("ReplaceTransactions() error = %v", err)
	}

	// A later window drops txn_1 and introduces txn_3.
	touched, err := e.ReplaceTransactions(ctx, account, []domain.TransactionPayload{
		txPayload("txn_3", "2024-03-03"),
		txPayload("txn_2", "2024-03-02"),
	})
	if err != nil {
		t.Fatalf("ReplaceTransactions() error = %v", err)
	}

	ids, _ := store.ListTransactionIDs(ctx, account.ID)
	if len(ids) != 2 || ids[0] != "txn_2" || ids[1] != "txn_3" {
		t.Fatalf("cached ids = %v, want [txn_2 txn_3]", ids)
	}
	if len(touched) != 2 || touched[0].ID != "txn_3" || touched[1].ID != "txn_2" {
		t.Fatalf("touched = %v, want window order [txn_3 txn_2]", touched)
	}
}

func TestReplaceTransactionsEmptyWindowPrunesAll(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(store, time.Now())
	account := &domain.Account{ID: "acc_1"}

	if _, err := e.ReplaceTransactions(ctx, account, []domain.TransactionPayload{
		txPayload("txn_1", "2024-03-01"),
	}); err != nil {
		t.Fatalf("ReplaceTransactions() error = %v", err)
	}
	touched, err := e.ReplaceTransactions(ctx, account, nil)
	if err != nil {
		t.Fatalf("ReplaceTransactions() error = %v", err)
	}
	if len(touched) != 0 {
		t.Fatalf("touched = %v, want empty", touched)
	}
	if len(store.transactions) != 0 {
		t.Fatalf("cached rows = %d, want 0", len(store.transactions))
	}
}

func TestReplaceTransactionsSkipsDuplicatesAndMissingIDs(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(store, time.Now())
	account := &domain.Account{ID: "acc_1"}

	first := txPayload("txn_1", "2024-03-01")
	first.Description = "first occurrence"
	dup := txPayload("txn_1", "2024-03-01")
	dup.Description = "second occurrence"
	noID := txPayload("", "2024-03-02")

	touched, err := e.ReplaceTransactions(ctx, account, []domain.TransactionPayload{first, dup, noID})
	if err != nil {
		t.Fatalf("ReplaceTransactions() error = %v", err)
	}
	if len(touched) != 1 {
		t.Fatalf("touched = %d rows, want 1", len(touched))
	}
	if touched[0].Description != "first occurrence" {
		t.Fatalf("Description = %q, want first occurrence to win", touched[0].Description)
	}
	if len(store.transactions) != 1 {
		t.Fatalf("cached rows = %d, want 1", len(store.transactions))
	}
}

func TestReplaceTransactionsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(store, time.Now())
	account := &domain.Account{ID: "acc_1"}

	window := []domain.TransactionPayload{
		txPayload("txn_1", "2024-03-01"),
		txPayload("txn_2", "2024-03-02"),
	}
	for i := 0; i < 3; i++ {
		touched, err := e.ReplaceTransactions(ctx, account, window)
		if err != nil {
			t.Fatalf("ReplaceTransactions() round %d error = %v", i, err)
		}
		if len(touched) != 2 {
			t.Fatalf("round %d touched = %d, want 2", i, len(touched))
		}
	}
	if len(store.transactions) != 2 {
		t.Fatalf("cached rows = %d, want 2", len(store.transactions))
	}
}

func TestReplaceTransactionsReassignsAccount(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(store, time.Now())

	if _, err := e.ReplaceTransactions(ctx, &domain.Account{ID: "acc_1"}, []domain.TransactionPayload{
		txPayload("txn_1", "2024-03-01"),
	}); err != nil {
		t.Fatalf("ReplaceTransactions() error = %v", err)
	}
	// The same transaction id arrives under a different account.
	if _, err := e.ReplaceTransactions(ctx, &domain.Account{ID: "acc_2"}, []domain.TransactionPayload{
		txPayload("txn_1", "2024-03-01"),
	}); err != nil {
		t.Fatalf("ReplaceTransactions() error = %v", err)
	}
	tx, _ := store.GetTransaction(ctx, "txn_1")
	if tx == nil || tx.AccountID != "acc_2" {
		t.Fatalf("transaction account = %+v, want acc_2", tx)
	}
}

func TestListTransactionsDefaultsLimit(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(store, time.Now())
	account := &domain.Account{ID: "acc_1"}

	var window []domain.TransactionPayload
	for i := 0; i < 15; i++ {
		window = append(window, txPayload(string(rune('a'+i))+"_txn", "2024-03-01"))
	}
	if _, err := e.ReplaceTransactions(ctx, account, window); err != nil {
		t.Fatalf("ReplaceTransactions() error = %v", err)
	}

	got, err := e.ListTransactions(ctx, account.ID, 0)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("len = %d, want default limit 10", len(got))
	}
}
