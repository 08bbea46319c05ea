package models

import "time"

type MenuItem struct {
	ID        int64     `json:"id"`
	VenueID   int64     `json:"venue_id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	StockQty  int       `json:"stock_qty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionItem is one add event on a session's tab. Name and price are
// snapshotted so later menu edits never change an open tab.
type SessionItem struct {
	ID         int64     `json:"id"`
	SessionID  int64     `json:"session_id"`
	MenuItemID int64     `json:"menu_item_id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
}
