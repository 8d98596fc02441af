package store

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	invoicedomain "github.com/berhanpolat/ev-server/internal/invoice/domain"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository builds the invoice repository.
func NewInvoiceRepository(db *gorm.DB) invoicedomain.Repository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) FindByID(ctx context.Context, id snowflake.ID) (*invoicedomain.Invoice, error) {
	if id == 0 {
		return nil, invoicedomain.ErrInvalidInvoice
	}
	var invoice invoicedomain.Invoice
	err := r.db.WithContext(ctx).First(&invoice, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invoicedomain.ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) ListByWindow(ctx context.Context, filter invoicedomain.ListFilter) ([]invoicedomain.Invoice, error) {
	query := r.db.WithContext(ctx).Model(&invoicedomain.Invoice{})
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if !filter.From.IsZero() {
		query = query.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		query = query.Where("created_at <= ?", filter.To)
	}
	query = query.Order("created_at ASC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Skip > 0 {
		query = query.Offset(filter.Skip)
	}

	var invoices []invoicedomain.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) Save(ctx context.Context, invoice *invoicedomain.Invoice) error {
	if invoice == nil || invoice.ID == 0 {
		return invoicedomain.ErrInvalidInvoice
	}
	invoice.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(invoice).Error
}

func (r *invoiceRepository) Delete(ctx context.Context, id snowflake.ID) error {
	if id == 0 {
		return invoicedomain.ErrInvalidInvoice
	}
	result := r.db.WithContext(ctx).Delete(&invoicedomain.Invoice{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return invoicedomain.ErrInvoiceNotFound
	}
	return nil
}

func (r *invoiceRepository) ListTest(ctx context.Context) ([]invoicedomain.Invoice, error) {
	var invoices []invoicedomain.Invoice
	err := r.db.WithContext(ctx).
		Where("live_mode = ?", false).
		Order("created_at ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}
