package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/mudasirkk/Tabbd-sub000/internal/models"
)

const sessionColumns = `id, venue_id, station_id, status, started_at, paused_at, total_paused_seconds,
		pricing_tier, rate_hourly_snapshot, closed_at, total_amount, created_at, updated_at`

type CreateSessionInput struct {
	VenueID            int64
	StationID          int64
	StartedAt          time.Time
	PricingTier        string
	RateHourlySnapshot float64
}

type TransferUpdate struct {
	StationID          int64
	StartedAt          time.Time
	PausedAt           *time.Time
	PricingTier        string
	RateHourlySnapshot float64
}

type CloseUpdate struct {
	ClosedAt           time.Time
	TotalAmount        float64
	TotalPausedSeconds int64
	PricingTier        string
	RateHourlySnapshot float64
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var session models.Session
	err := row.Scan(
		&session.ID,
		&session.VenueID,
		&session.StationID,
		&session.Status,
		&session.StartedAt,
		&session.PausedAt,
		&session.TotalPausedSeconds,
		&session.PricingTier,
		&session.RateHourlySnapshot,
		&session.ClosedAt,
		&session.TotalAmount,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *SessionRepository) Create(ctx context.Context, input CreateSessionInput) (*models.Session, error) {
	query := `
		INSERT INTO sessions (venue_id, station_id, status, started_at, total_paused_seconds, pricing_tier, rate_hourly_snapshot)
		VALUES ($1, $2, 'active', $3, 0, $4, $5)
		RETURNING ` + sessionColumns + `
	`
	return scanSession(r.db.QueryRow(
		ctx,
		query,
		input.VenueID,
		input.StationID,
		input.StartedAt,
		input.PricingTier,
		input.RateHourlySnapshot,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, venueID, sessionID int64) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = $1 AND venue_id = $2
	`
	return scanSession(r.db.QueryRow(ctx, query, sessionID, venueID))
}

func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, venueID, sessionID int64) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = $1 AND venue_id = $2
		FOR UPDATE
	`
	return scanSession(r.db.QueryRow(ctx, query, sessionID, venueID))
}

// GetOpenByStation returns the station's non-closed session, if any.
// The partial unique index on sessions guarantees at most one.
func (r *SessionRepository) GetOpenByStation(ctx context.Context, stationID int64) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE station_id = $1 AND status <> 'closed'
	`
	return scanSession(r.db.QueryRow(ctx, query, stationID))
}

// Pause flips an active session to paused in one conditional update.
// A session that is missing, closed or already paused yields no row,
// which surfaces to callers as pgx.ErrNoRows.
func (r *SessionRepository) Pause(ctx context.Context, venueID, sessionID int64, pausedAt time.Time) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET status = 'paused', paused_at = $3, updated_at = NOW()
		WHERE id = $1 AND venue_id = $2 AND status = 'active'
		RETURNING ` + sessionColumns + `
	`
	return scanSession(r.db.QueryRow(ctx, query, sessionID, venueID, pausedAt))
}

// Resume folds the elapsed pause into total_paused_seconds and
// reactivates the session, again as a single conditional update.
func (r *SessionRepository) Resume(ctx context.Context, venueID, sessionID int64, resumedAt time.Time) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET status = 'active',
		    total_paused_seconds = total_paused_seconds + FLOOR(EXTRACT(EPOCH FROM ($3::timestamptz - paused_at)))::bigint,
		    paused_at = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND venue_id = $2 AND status = 'paused'
		RETURNING ` + sessionColumns + `
	`
	return scanSession(r.db.QueryRow(ctx, query, sessionID, venueID, resumedAt))
}

// ApplyTransfer re-points the session at its destination station and
// resets the open-interval clock. The prior interval must already have
// been snapshotted into the segment ledger by the caller.
func (r *SessionRepository) ApplyTransfer(ctx context.Context, sessionID int64, update TransferUpdate) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET station_id = $2,
		    started_at = $3,
		    paused_at = $4,
		    total_paused_seconds = 0,
		    pricing_tier = $5,
		    rate_hourly_snapshot = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + sessionColumns + `
	`
	return scanSession(r.db.QueryRow(
		ctx,
		query,
		sessionID,
		update.StationID,
		update.StartedAt,
		update.PausedAt,
		update.PricingTier,
		update.RateHourlySnapshot,
	))
}

// Close finalizes the session. closed is terminal; callers check the
// current status under FOR UPDATE before issuing this.
func (r *SessionRepository) Close(ctx context.Context, sessionID int64, update CloseUpdate) (*models.Session, error) {
	query := `
		UPDATE sessions
		SET status = 'closed',
		    closed_at = $2,
		    total_amount = $3,
		    total_paused_seconds = $4,
		    paused_at = NULL,
		    pricing_tier = $5,
		    rate_hourly_snapshot = $6,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + sessionColumns + `
	`
	return scanSession(r.db.QueryRow(
		ctx,
		query,
		sessionID,
		update.ClosedAt,
		update.TotalAmount,
		update.TotalPausedSeconds,
		update.PricingTier,
		update.RateHourlySnapshot,
	))
}
