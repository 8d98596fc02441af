package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrInvalidAccount  = errors.New("invalid_account")
	ErrAccountNotFound = errors.New("account_not_found")
	ErrLiveAccountLink = errors.New("live_account_link")
)

// Repository provides read/write access to account records.
type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*Account, error)
	SaveLink(ctx context.Context, id snowflake.ID, link ProviderLink) error
	ClearLink(ctx context.Context, id snowflake.ID) error

	// ListTestLinked returns accounts whose provider link is present and not
	// flagged live. Used by the test-data purge path only.
	ListTestLinked(ctx context.Context) ([]Account, error)
}
