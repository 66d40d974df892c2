package db

import (
	"time"

	"github.com/shopspring/decimal"
)

type BankModel struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"index;not null"`
	Code      string    `gorm:"index;not null"`
	Country   string    `gorm:"not null"`
	Endpoint  string    `gorm:"not null"`
	PublicKey []byte    `gorm:"type:bytea;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type AccountModel struct {
	ID           string          `gorm:"type:uuid;primaryKey"`
	UniqueID     string          `gorm:"uniqueIndex;not null"`
	UserFullName string          `gorm:"not null"`
	Balance      decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	CreatedAt    time.Time       `gorm:"not null"`
}

type TransferLegModel struct {
	ID            string          `gorm:"type:uuid;primaryKey"`
	AccountID     string          `gorm:"type:uuid;index;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Source        string          `gorm:"not null"`
	SenderName    string          `gorm:"not null"`
	RecipientName string          `gorm:"not null"`
	Description   string
	Timestamp     time.Time `gorm:"index;not null"`
}
