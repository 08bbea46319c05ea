package repository

import (
	"context"

	"github.com/mudasirkk/Tabbd-sub000/internal/models"
)

type SessionItemRepository struct {
	db DBTX
}

func NewSessionItemRepository(db DBTX) *SessionItemRepository {
	return &SessionItemRepository{db: db}
}

func (r *SessionItemRepository) Insert(ctx context.Context, item *models.SessionItem) error {
	query := `
		INSERT INTO session_items (session_id, menu_item_id, name, price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		item.SessionID,
		item.MenuItemID,
		item.Name,
		item.Price,
		item.Quantity,
	).Scan(&item.ID, &item.CreatedAt)
}

func (r *SessionItemRepository) ListBySession(ctx context.Context, sessionID int64) ([]models.SessionItem, error) {
	query := `
		SELECT id, session_id, menu_item_id, name, price, quantity, created_at
		FROM session_items
		WHERE session_id = $1
		ORDER BY id ASC
	`
	return r.list(ctx, query, sessionID)
}

// ListBySessionAndItem returns the session's rows for one menu item,
// newest add first. Removal walks this order so it undoes the most
// recent add before older ones.
func (r *SessionItemRepository) ListBySessionAndItem(ctx context.Context, sessionID, menuItemID int64) ([]models.SessionItem, error) {
	query := `
		SELECT id, session_id, menu_item_id, name, price, quantity, created_at
		FROM session_items
		WHERE session_id = $1 AND menu_item_id = $2
		ORDER BY id DESC
	`
	return r.list(ctx, query, sessionID, menuItemID)
}

func (r *SessionItemRepository) list(ctx context.Context, query string, args ...any) ([]models.SessionItem, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.SessionItem, 0)
	for rows.Next() {
		var item models.SessionItem
		if err := rows.Scan(
			&item.ID,
			&item.SessionID,
			&item.MenuItemID,
			&item.Name,
			&item.Price,
			&item.Quantity,
			&item.CreatedAt,
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

func (r *SessionItemRepository) DeleteRow(ctx context.Context, itemID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM session_items WHERE id = $1`, itemID)
	return err
}

func (r *SessionItemRepository) DecrementRowQty(ctx context.Context, itemID int64, qty int) error {
	query := `
		UPDATE session_items
		SET quantity = quantity - $2
		WHERE id = $1 AND quantity > $2
	`
	_, err := r.db.Exec(ctx, query, itemID, qty)
	return err
}
