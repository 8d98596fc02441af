package store

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	sessiondomain "github.com/berhanpolat/ev-server/internal/session/domain"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository builds the transaction repository.
func NewTransactionRepository(db *gorm.DB) sessiondomain.Repository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) FindByID(ctx context.Context, id snowflake.ID) (*sessiondomain.Transaction, error) {
	if id == 0 {
		return nil, sessiondomain.ErrInvalidTransaction
	}
	var transaction sessiondomain.Transaction
	err := r.db.WithContext(ctx).First(&transaction, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, sessiondomain.ErrTransactionNotFound
		}
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepository) SaveBillingStop(ctx context.Context, id snowflake.ID, stop sessiondomain.BillingStop) error {
	if id == 0 {
		return sessiondomain.ErrInvalidTransaction
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var transaction sessiondomain.Transaction
		err := tx.First(&transaction, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return sessiondomain.ErrTransactionNotFound
			}
			return err
		}

		now := time.Now().UTC()
		transaction.Billing.Stop = &stop
		transaction.Billing.LastUpdate = now
		transaction.UpdatedAt = now
		return tx.Save(&transaction).Error
	})
}
