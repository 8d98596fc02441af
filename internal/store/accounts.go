// Package store provides the gorm-backed repositories.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	accountdomain "github.com/berhanpolat/ev-server/internal/account/domain"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository builds the account repository.
func NewAccountRepository(db *gorm.DB) accountdomain.Repository {
	return &accountRepository{db: db}
}

func (r *accountRepository) FindByID(ctx context.Context, id snowflake.ID) (*accountdomain.Account, error) {
	if id == 0 {
		return nil, accountdomain.ErrInvalidAccount
	}
	var account accountdomain.Account
	err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, accountdomain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) SaveLink(ctx context.Context, id snowflake.ID, link accountdomain.ProviderLink) error {
	if id == 0 {
		return accountdomain.ErrInvalidAccount
	}
	result := r.db.WithContext(ctx).
		Model(&accountdomain.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"provider_customer_id": link.CustomerID,
			"provider_live_mode":   link.LiveMode,
			"updated_at":           time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return accountdomain.ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) ClearLink(ctx context.Context, id snowflake.ID) error {
	return r.SaveLink(ctx, id, accountdomain.ProviderLink{})
}

func (r *accountRepository) ListTestLinked(ctx context.Context) ([]accountdomain.Account, error) {
	var accounts []accountdomain.Account
	err := r.db.WithContext(ctx).
		Where("provider_customer_id <> '' AND provider_live_mode = ?", false).
		Order("id ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}
