package repository

import (
	"context"
	"database/sql"

	appErrors "github.com/brightsend/campaign-engine/internal/errors"
	"github.com/brightsend/campaign-engine/internal/model"
	"github.com/brightsend/campaign-engine/internal/segment"
)

// CustomerRepositoryInterface defines the customer-store operations the
// services need. Filters arrive pre-compiled; this layer never sees raw rule
// values outside the bound argument list.
type CustomerRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*model.Customer, error)
	ListAll(ctx context.Context) ([]model.Customer, error)
	CountMatching(ctx context.Context, filter *segment.CompiledFilter) (int, error)
	ListMatching(ctx context.Context, filter *segment.CompiledFilter) ([]model.Customer, error)
}

// CustomerRepository is the Postgres implementation
type CustomerRepository struct {
	DB *sql.DB
}

const customerColumns = "id, name, email, total_spend, visits, last_active_at"

// GetByID fetches a customer by ID
func (r *CustomerRepository) GetByID(ctx context.Context, id int) (*model.Customer, error) {
	query := `
        SELECT ` + customerColumns + `
        FROM customers
        WHERE id = $1
    `
	var c model.Customer
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.Email, &c.TotalSpend, &c.Visits, &c.LastActiveAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, appErrors.NewQuery("customer by id", err)
	}
	return &c, nil
}

// ListAll fetches every customer.
func (r *CustomerRepository) ListAll(ctx context.Context) ([]model.Customer, error) {
	query := `
        SELECT ` + customerColumns + `
        FROM customers
    `
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, appErrors.NewQuery("list customers", err)
	}
	defer rows.Close()
	return scanCustomers(rows)
}

// CountMatching counts customers matching a compiled filter.
func (r *CustomerRepository) CountMatching(ctx context.Context, filter *segment.CompiledFilter) (int, error) {
	query := "SELECT COUNT(*) FROM customers WHERE " + filter.Where()

	var count int
	if err := r.DB.QueryRowContext(ctx, query, filter.Args()...).Scan(&count); err != nil {
		return 0, appErrors.NewQuery("count matching customers", err)
	}
	return count, nil
}

// ListMatching fetches the customers matching a compiled filter, in id order
// so delivery runs walk recipients deterministically.
func (r *CustomerRepository) ListMatching(ctx context.Context, filter *segment.CompiledFilter) ([]model.Customer, error) {
	query := "SELECT " + customerColumns + " FROM customers WHERE " + filter.Where() + " ORDER BY id"

	rows, err := r.DB.QueryContext(ctx, query, filter.Args()...)
	if err != nil {
		return nil, appErrors.NewQuery("list matching customers", err)
	}
	defer rows.Close()
	return scanCustomers(rows)
}

func scanCustomers(rows *sql.Rows) ([]model.Customer, error) {
	customers := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.TotalSpend, &c.Visits, &c.LastActiveAt); err != nil {
			return nil, appErrors.NewQuery("scan customer", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.NewQuery("iterate customers", err)
	}
	return customers, nil
}

var _ CustomerRepositoryInterface = (*CustomerRepository)(nil)
