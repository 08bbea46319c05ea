package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/mudasirkk/Tabbd-sub000/internal/models"
)

const customerColumns = `id, venue_id, phone, total_seconds, is_discount_available, created_at, updated_at`

type CustomerRepository struct {
	db DBTX
}

func NewCustomerRepository(db DBTX) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	var customer models.Customer
	err := row.Scan(
		&customer.ID,
		&customer.VenueID,
		&customer.Phone,
		&customer.TotalSeconds,
		&customer.IsDiscountAvailable,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) GetByPhone(ctx context.Context, venueID int64, phone string) (*models.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE venue_id = $1 AND phone = $2
	`
	return scanCustomer(r.db.QueryRow(ctx, query, venueID, phone))
}

// EnsureExists lazily creates the customer on first reference.
func (r *CustomerRepository) EnsureExists(ctx context.Context, venueID int64, phone string) error {
	query := `
		INSERT INTO customers (venue_id, phone)
		VALUES ($1, $2)
		ON CONFLICT (venue_id, phone) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query, venueID, phone)
	return err
}

// ApplyDiscount redeems one discount in a single conditional update.
// The eligibility check lives in the WHERE clause and the new balance
// in the SET clause, so two concurrent redemptions can never both
// succeed: the loser matches zero rows and gets pgx.ErrNoRows.
func (r *CustomerRepository) ApplyDiscount(ctx context.Context, venueID int64, phone string, secondsToAdd, threshold int64) (*models.Customer, error) {
	query := `
		UPDATE customers
		SET total_seconds = GREATEST(total_seconds + $3 - $4, 0),
		    is_discount_available = GREATEST(total_seconds + $3 - $4, 0) >= $4,
		    updated_at = NOW()
		WHERE venue_id = $1 AND phone = $2 AND total_seconds + $3 >= $4
		RETURNING ` + customerColumns + `
	`
	return scanCustomer(r.db.QueryRow(ctx, query, venueID, phone, secondsToAdd, threshold))
}

// AddSeconds accumulates play time after a non-discounted checkout and
// recomputes the availability flag from the new total.
func (r *CustomerRepository) AddSeconds(ctx context.Context, venueID int64, phone string, seconds, threshold int64) (*models.Customer, error) {
	query := `
		INSERT INTO customers (venue_id, phone, total_seconds, is_discount_available)
		VALUES ($1, $2, $3, $3 >= $4)
		ON CONFLICT (venue_id, phone) DO UPDATE SET
			total_seconds = customers.total_seconds + EXCLUDED.total_seconds,
			is_discount_available = customers.total_seconds + EXCLUDED.total_seconds >= $4,
			updated_at = NOW()
		RETURNING ` + customerColumns + `
	`
	return scanCustomer(r.db.QueryRow(ctx, query, venueID, phone, seconds, threshold))
}
