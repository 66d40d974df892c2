package db

import (
	"context"
	"errors"
	"time"

	"crossbank/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransferRepository applies transfer legs. The balance check and the balance
// mutation always happen inside one transaction holding a row lock on the
// account, so two concurrent debits cannot both read a sufficient balance.
type TransferRepository struct {
	db *gorm.DB
}

func NewTransferRepository(db *gorm.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// ApplySingle persists one leg: used for the local half of a cross-bank
// transfer and for inbound credits.
func (r *TransferRepository) ApplySingle(ctx context.Context, leg domain.TransferLeg) error {
	if r.db == nil {
		return errDBUnavailable
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return applyLegTx(tx, leg)
	})
}

// ApplyPair persists two legs as one unit. Accounts are locked in
// deterministic order so two concurrent pairs over the same accounts cannot
// deadlock.
func (r *TransferRepository) ApplyPair(ctx context.Context, legA, legB domain.TransferLeg) error {
	if r.db == nil {
		return errDBUnavailable
	}
	first, second := legA, legB
	if second.AccountID < first.AccountID {
		first, second = second, first
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := applyLegTx(tx, first); err != nil {
			return err
		}
		return applyLegTx(tx, second)
	})
}

func applyLegTx(tx *gorm.DB, leg domain.TransferLeg) error {
	var acct AccountModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", leg.AccountID).
		First(&acct).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		return err
	}

	next := acct.Balance.Add(leg.Amount)
	if next.IsNegative() {
		return domain.ErrInsufficientFunds
	}
	if err := tx.Model(&AccountModel{}).Where("id = ?", leg.AccountID).
		Update("balance", next).Error; err != nil {
		return err
	}

	if leg.ID == "" {
		leg.ID = uuid.NewString()
	}
	if leg.Timestamp.IsZero() {
		leg.Timestamp = time.Now().UTC()
	}
	model := TransferLegModel{
		ID:            leg.ID,
		AccountID:     leg.AccountID,
		Amount:        leg.Amount,
		Source:        leg.Source,
		SenderName:    leg.SenderName,
		RecipientName: leg.RecipientName,
		Description:   leg.Description,
		Timestamp:     leg.Timestamp,
	}
	return tx.Create(&model).Error
}

func (r *TransferRepository) ListByAccount(ctx context.Context, accountID string) ([]domain.TransferLeg, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []TransferLegModel
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("timestamp ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.TransferLeg, 0, len(models))
	for _, model := range models {
		out = append(out, domain.TransferLeg{
			ID:            model.ID,
			AccountID:     model.AccountID,
			Amount:        model.Amount,
			Source:        model.Source,
			SenderName:    model.SenderName,
			RecipientName: model.RecipientName,
			Description:   model.Description,
			Timestamp:     model.Timestamp,
		})
	}
	return out, nil
}
