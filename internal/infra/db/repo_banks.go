package db

import (
	"context"
	"time"

	"crossbank/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BankRepository reads the bank registry. Entries are provisioned out of band
// (administrative action) and treated as read-only by the protocol; Create
// exists for provisioning tooling and tests.
type BankRepository struct {
	db *gorm.DB
}

func NewBankRepository(db *gorm.DB) *BankRepository {
	return &BankRepository{db: db}
}

// GetByIdentity matches (name, code) case-insensitively. Zero matches and
// more than one match look the same to the caller: ErrNotFound.
func (r *BankRepository) GetByIdentity(ctx context.Context, name, code string) (*domain.Bank, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []BankModel
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?) AND LOWER(code) = LOWER(?)", name, code).
		Limit(2).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	if len(models) != 1 {
		return nil, domain.ErrNotFound
	}
	return bankFromModel(models[0]), nil
}

func (r *BankRepository) Create(ctx context.Context, bank domain.Bank) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if bank.ID == "" {
		bank.ID = uuid.NewString()
	}
	if bank.CreatedAt.IsZero() {
		bank.CreatedAt = time.Now().UTC()
	}
	model := BankModel{
		ID:        bank.ID,
		Name:      bank.Name,
		Code:      bank.Code,
		Country:   bank.Country,
		Endpoint:  bank.Endpoint,
		PublicKey: copyBytes(bank.PublicKey),
		CreatedAt: bank.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func bankFromModel(model BankModel) *domain.Bank {
	return &domain.Bank{
		ID:        model.ID,
		Name:      model.Name,
		Code:      model.Code,
		Country:   model.Country,
		Endpoint:  model.Endpoint,
		PublicKey: copyBytes(model.PublicKey),
		CreatedAt: model.CreatedAt,
	}
}

func copyBytes(in []byte) []byte {
	if in == nil {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
