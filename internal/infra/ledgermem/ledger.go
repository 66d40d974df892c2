// Package ledgermem is the in-memory transfer ledger, used in no-db mode and
// as the reference implementation of the all-or-nothing contract the database
// ledger must match.
package ledgermem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crossbank/internal/domain"

	"github.com/google/uuid"
)

type Ledger struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	byUnique map[string]string
	legs     []domain.TransferLeg
}

func New() *Ledger {
	return &Ledger{
		accounts: make(map[string]*domain.Account),
		byUnique: make(map[string]string),
	}
}

func (l *Ledger) CreateAccount(acct domain.Account) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now().UTC()
	}
	if _, ok := l.accounts[acct.ID]; ok {
		return fmt.Errorf("%w: account %s exists", domain.ErrPersistence, acct.ID)
	}
	stored := acct
	l.accounts[acct.ID] = &stored
	l.byUnique[acct.UniqueID] = acct.ID
	return nil
}

func (l *Ledger) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acct, ok := l.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *acct
	return &out, nil
}

func (l *Ledger) GetByUniqueID(ctx context.Context, uniqueID string) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id, ok := l.byUnique[uniqueID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *l.accounts[id]
	return &out, nil
}

// ApplySingle checks and applies one leg under the account's lock: a debit
// that would push the balance negative fails and changes nothing.
func (l *Ledger) ApplySingle(ctx context.Context, leg domain.TransferLeg) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.applyLocked(leg)
}

// ApplyPair applies two legs or neither. Balances are checked against the
// state both legs produce together before either is written.
func (l *Ledger) ApplyPair(ctx context.Context, legA, legB domain.TransferLeg) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acctA, ok := l.accounts[legA.AccountID]
	if !ok {
		return domain.ErrNotFound
	}
	acctB, ok := l.accounts[legB.AccountID]
	if !ok {
		return domain.ErrNotFound
	}
	if legA.Amount.IsNegative() && acctA.Balance.Add(legA.Amount).IsNegative() {
		return domain.ErrInsufficientFunds
	}
	if legB.Amount.IsNegative() && acctB.Balance.Add(legB.Amount).IsNegative() {
		return domain.ErrInsufficientFunds
	}

	if err := l.applyLocked(legA); err != nil {
		return err
	}
	if err := l.applyLocked(legB); err != nil {
		// applyLocked on legB cannot partially apply; undo legA to keep the
		// pair atomic.
		acctA.Balance = acctA.Balance.Sub(legA.Amount)
		l.legs = l.legs[:len(l.legs)-1]
		return err
	}
	return nil
}

func (l *Ledger) applyLocked(leg domain.TransferLeg) error {
	acct, ok := l.accounts[leg.AccountID]
	if !ok {
		return domain.ErrNotFound
	}
	next := acct.Balance.Add(leg.Amount)
	if next.IsNegative() {
		return domain.ErrInsufficientFunds
	}
	if leg.ID == "" {
		leg.ID = uuid.NewString()
	}
	if leg.Timestamp.IsZero() {
		leg.Timestamp = time.Now().UTC()
	}
	acct.Balance = next
	l.legs = append(l.legs, leg)
	return nil
}

func (l *Ledger) LegsByAccount(ctx context.Context, accountID string) []domain.TransferLeg {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.TransferLeg
	for _, leg := range l.legs {
		if leg.AccountID == accountID {
			out = append(out, leg)
		}
	}
	return out
}
