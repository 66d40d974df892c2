package ledgermem

import (
	"context"
	"errors"
	"testing"

	"crossbank/internal/domain"

	"github.com/shopspring/decimal"
)

func newAccount(t *testing.T, l *Ledger, id, uniqueID, owner string, balance string) {
	t.Helper()
	amount, err := decimal.NewFromString(balance)
	if err != nil {
		t.Fatalf("parse balance: %v", err)
	}
	err = l.CreateAccount(domain.Account{
		ID:           id,
		UniqueID:     uniqueID,
		UserFullName: owner,
		Balance:      amount,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
}

func leg(accountID, amount string) domain.TransferLeg {
	return domain.TransferLeg{
		AccountID: accountID,
		Amount:    decimal.RequireFromString(amount),
	}
}

func TestApplySingleDebitAndCredit(t *testing.T) {
	l := New()
	newAccount(t, l, "a1", "u1", "Jane Roe", "100")

	if err := l.ApplySingle(context.Background(), leg("a1", "-40")); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if err := l.ApplySingle(context.Background(), leg("a1", "15")); err != nil {
		t.Fatalf("credit: %v", err)
	}

	acct, err := l.GetByID(context.Background(), "a1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !acct.Balance.Equal(decimal.RequireFromString("75")) {
		t.Fatalf("balance = %s, want 75", acct.Balance)
	}
	if got := len(l.LegsByAccount(context.Background(), "a1")); got != 2 {
		t.Fatalf("legs = %d, want 2", got)
	}
}

func TestApplySingleRejectsOverdraft(t *testing.T) {
	l := New()
	newAccount(t, l, "a1", "u1", "Jane Roe", "20")

	err := l.ApplySingle(context.Background(), leg("a1", "-50"))
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	acct, _ := l.GetByID(context.Background(), "a1")
	if !acct.Balance.Equal(decimal.RequireFromString("20")) {
		t.Fatalf("failed debit must not change the balance, got %s", acct.Balance)
	}
	if got := len(l.LegsByAccount(context.Background(), "a1")); got != 0 {
		t.Fatalf("failed debit must not record a leg, got %d", got)
	}
}

func TestApplyPairCommitsBothLegs(t *testing.T) {
	l := New()
	newAccount(t, l, "a1", "u1", "Jane Roe", "100")
	newAccount(t, l, "a2", "u2", "Jane Roe", "0")

	if err := l.ApplyPair(context.Background(), leg("a1", "-30"), leg("a2", "30")); err != nil {
		t.Fatalf("apply pair: %v", err)
	}

	src, _ := l.GetByID(context.Background(), "a1")
	dst, _ := l.GetByID(context.Background(), "a2")
	if !src.Balance.Equal(decimal.RequireFromString("70")) || !dst.Balance.Equal(decimal.RequireFromString("30")) {
		t.Fatalf("balances = %s/%s, want 70/30", src.Balance, dst.Balance)
	}
}

func TestApplyPairIsAtomic(t *testing.T) {
	l := New()
	newAccount(t, l, "a1", "u1", "Jane Roe", "100")

	// Second leg targets a missing account; the first must be rolled back.
	err := l.ApplyPair(context.Background(), leg("a1", "-30"), leg("missing", "30"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	acct, _ := l.GetByID(context.Background(), "a1")
	if !acct.Balance.Equal(decimal.RequireFromString("100")) {
		t.Fatalf("balance = %s, want 100 after rollback", acct.Balance)
	}
	if got := len(l.LegsByAccount(context.Background(), "a1")); got != 0 {
		t.Fatalf("rolled-back pair must leave no legs, got %d", got)
	}
}

func TestApplyPairChecksCombinedBalance(t *testing.T) {
	l := New()
	newAccount(t, l, "a1", "u1", "Jane Roe", "20")
	newAccount(t, l, "a2", "u2", "Jane Roe", "0")

	err := l.ApplyPair(context.Background(), leg("a1", "-50"), leg("a2", "50"))
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	dst, _ := l.GetByID(context.Background(), "a2")
	if !dst.Balance.IsZero() {
		t.Fatalf("credit must not land when the debit fails, got %s", dst.Balance)
	}
}

func TestGetByUniqueID(t *testing.T) {
	l := New()
	newAccount(t, l, "a1", "ACC-001", "Jane Roe", "10")

	acct, err := l.GetByUniqueID(context.Background(), "ACC-001")
	if err != nil {
		t.Fatalf("get by unique id: %v", err)
	}
	if acct.ID != "a1" {
		t.Fatalf("got account %s, want a1", acct.ID)
	}
	if _, err := l.GetByUniqueID(context.Background(), "ACC-404"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
