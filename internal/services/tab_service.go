package services

import (
	"context"

	"github.com/mudasirkk/Tabbd-sub000/internal/models"
	"github.com/mudasirkk/Tabbd-sub000/internal/repository"
)

// TabService manages a session's item tab. Adds and removals are
// joined transactionally with the menu item's stock counter.
type TabService struct {
	db   repository.Querier
	menu *repository.MenuItemRepository
}

func NewTabService(db repository.Querier, menu *repository.MenuItemRepository) *TabService {
	return &TabService{db: db, menu: menu}
}

// AddItem appends one add event to the tab, snapshotting the item's
// name and price, and takes the quantity out of stock. It never merges
// into an existing row; aggregation is a display concern.
func (s *TabService) AddItem(ctx context.Context, venueID, sessionID, menuItemID int64, qty int) (*models.SessionItem, error) {
	if qty <= 0 {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessions := repository.NewSessionRepository(tx)
	txMenu := repository.NewMenuItemRepository(tx)
	txItems := repository.NewSessionItemRepository(tx)

	session, err := txSessions.GetByIDForUpdate(ctx, venueID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.StatusClosed {
		return nil, ErrSessionClosed
	}

	item, err := txMenu.GetByID(ctx, venueID, menuItemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, ErrItemInactive
	}

	ok, err := txMenu.DecrementStock(ctx, item.ID, qty)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientStock
	}

	row := &models.SessionItem{
		SessionID:  session.ID,
		MenuItemID: item.ID,
		Name:       item.Name,
		Price:      item.Price,
		Quantity:   qty,
	}
	if err := txItems.Insert(ctx, row); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return row, nil
}

// RemoveQty takes up to qty of a menu item off the tab, newest add
// first, and restores the removed quantity to stock. It returns how
// much was actually removed; removing less than requested because the
// tab holds less is a success, not an error.
func (s *TabService) RemoveQty(ctx context.Context, venueID, sessionID, menuItemID int64, qty int) (int, error) {
	if qty <= 0 {
		return 0, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessions := repository.NewSessionRepository(tx)
	txMenu := repository.NewMenuItemRepository(tx)
	txItems := repository.NewSessionItemRepository(tx)

	session, err := txSessions.GetByIDForUpdate(ctx, venueID, sessionID)
	if err != nil {
		return 0, err
	}
	if session.Status == models.StatusClosed {
		return 0, ErrSessionClosed
	}

	rows, err := txItems.ListBySessionAndItem(ctx, session.ID, menuItemID)
	if err != nil {
		return 0, err
	}

	remaining := qty
	removed := 0
	for _, row := range rows {
		if remaining == 0 {
			break
		}
		if row.Quantity <= remaining {
			if err := txItems.DeleteRow(ctx, row.ID); err != nil {
				return 0, err
			}
			removed += row.Quantity
			remaining -= row.Quantity
		} else {
			if err := txItems.DecrementRowQty(ctx, row.ID, remaining); err != nil {
				return 0, err
			}
			removed += remaining
			remaining = 0
		}
	}

	if removed > 0 {
		if err := txMenu.RestoreStock(ctx, menuItemID, removed); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	return removed, nil
}

// ListMenu returns the venue's active menu for the terminal UI.
func (s *TabService) ListMenu(ctx context.Context, venueID int64) ([]models.MenuItem, error) {
	return s.menu.ListActive(ctx, venueID)
}
