package db

import (
	"context"
	"errors"
	"time"

	"crossbank/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model AccountModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return accountFromModel(model), nil
}

func (r *AccountRepository) GetByUniqueID(ctx context.Context, uniqueID string) (*domain.Account, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model AccountModel
	err := r.db.WithContext(ctx).Where("unique_id = ?", uniqueID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return accountFromModel(model), nil
}

func (r *AccountRepository) Create(ctx context.Context, acct domain.Account) error {
	if r.db == nil {
		return errDBUnavailable
	}
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	if acct.CreatedAt.IsZero() {
		acct.CreatedAt = time.Now().UTC()
	}
	model := AccountModel{
		ID:           acct.ID,
		UniqueID:     acct.UniqueID,
		UserFullName: acct.UserFullName,
		Balance:      acct.Balance,
		CreatedAt:    acct.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func accountFromModel(model AccountModel) *domain.Account {
	return &domain.Account{
		ID:           model.ID,
		UniqueID:     model.UniqueID,
		UserFullName: model.UserFullName,
		Balance:      model.Balance,
		CreatedAt:    model.CreatedAt,
	}
}
