package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/locvowork/sheetmap/internal/domain"
	"github.com/shopspring/decimal"
)

type invoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) domain.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) List(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	query := `SELECT id, number, customer, issued_on, quantity, total, notes FROM invoices`
	var (
		where []string
		args  []interface{}
	)
	if filter.Customer != "" {
		args = append(args, filter.Customer)
		where = append(where, fmt.Sprintf("customer = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		where = append(where, fmt.Sprintf("issued_on >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		where = append(where, fmt.Sprintf("issued_on <= $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY issued_on, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		var (
			inv   domain.Invoice
			total string
			notes sql.NullString
		)
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.Customer, &inv.IssuedOn, &inv.Quantity, &total, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		if inv.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("invoice %d has invalid total %q: %w", inv.ID, total, err)
		}
		if notes.Valid {
			n := notes.String
			inv.Notes = &n
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate invoices: %w", err)
	}
	return invoices, nil
}

// BulkInsert copies invoices in one transaction and returns how many rows
// were written.
func (r *invoiceRepository) BulkInsert(ctx context.Context, invoices []domain.Invoice) (int64, error) {
	if len(invoices) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("invoices", "number", "customer", "issued_on", "quantity", "total", "notes"))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare copy: %w", err)
	}
	for _, inv := range invoices {
		var notes interface{}
		if inv.Notes != nil {
			notes = *inv.Notes
		}
		if _, err := stmt.ExecContext(ctx, inv.Number, inv.Customer, inv.IssuedOn, inv.Quantity, inv.Total.String(), notes); err != nil {
			stmt.Close()
			return 0, fmt.Errorf("failed to copy invoice %s: %w", inv.Number, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return 0, fmt.Errorf("failed to flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("failed to close copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit invoices: %w", err)
	}
	return int64(len(invoices)), nil
}
