package repository

import (
	"context"

	"github.com/mudasirkk/Tabbd-sub000/internal/models"
)

type MenuItemRepository struct {
	db DBTX
}

func NewMenuItemRepository(db DBTX) *MenuItemRepository {
	return &MenuItemRepository{db: db}
}

func (r *MenuItemRepository) GetByID(ctx context.Context, venueID, menuItemID int64) (*models.MenuItem, error) {
	query := `
		SELECT id, venue_id, name, price, stock_qty, is_active, created_at, updated_at
		FROM menu_items
		WHERE id = $1 AND venue_id = $2
	`
	var item models.MenuItem
	err := r.db.QueryRow(ctx, query, menuItemID, venueID).Scan(
		&item.ID,
		&item.VenueID,
		&item.Name,
		&item.Price,
		&item.StockQty,
		&item.IsActive,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *MenuItemRepository) ListActive(ctx context.Context, venueID int64) ([]models.MenuItem, error) {
	query := `
		SELECT id, venue_id, name, price, stock_qty, is_active, created_at, updated_at
		FROM menu_items
		WHERE venue_id = $1 AND is_active = TRUE
		ORDER BY name ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.MenuItem, 0)
	for rows.Next() {
		var item models.MenuItem
		if err := rows.Scan(
			&item.ID,
			&item.VenueID,
			&item.Name,
			&item.Price,
			&item.StockQty,
			&item.IsActive,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// DecrementStock takes qty out of stock only when enough is left; the
// check sits in the WHERE clause so concurrent adds cannot oversell.
// Returns false when stock was insufficient.
func (r *MenuItemRepository) DecrementStock(ctx context.Context, menuItemID int64, qty int) (bool, error) {
	query := `
		UPDATE menu_items
		SET stock_qty = stock_qty - $2, updated_at = NOW()
		WHERE id = $1 AND stock_qty >= $2
	`
	tag, err := r.db.Exec(ctx, query, menuItemID, qty)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *MenuItemRepository) RestoreStock(ctx context.Context, menuItemID int64, qty int) error {
	query := `
		UPDATE menu_items
		SET stock_qty = stock_qty + $2, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, menuItemID, qty)
	return err
}
