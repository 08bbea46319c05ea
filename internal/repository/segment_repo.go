package repository

import (
	"context"

	"github.com/mudasirkk/Tabbd-sub000/internal/models"
)

const segmentColumns = `id, session_id, sequence, station_id, station_name, station_type, started_at, ended_at,
		effective_seconds, pricing_tier, rate_solo_snapshot, rate_group_snapshot, rate_hourly_applied, time_amount, created_at`

type SegmentRepository struct {
	db DBTX
}

func NewSegmentRepository(db DBTX) *SegmentRepository {
	return &SegmentRepository{db: db}
}

// NextSequence returns 1 + the session's highest sequence. Callers
// hold the session row FOR UPDATE, so two writers can never read the
// same value.
func (r *SegmentRepository) NextSequence(ctx context.Context, sessionID int64) (int, error) {
	query := `
		SELECT COALESCE(MAX(sequence), 0) + 1
		FROM session_time_segments
		WHERE session_id = $1
	`
	var next int
	if err := r.db.QueryRow(ctx, query, sessionID).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *SegmentRepository) Insert(ctx context.Context, segment *models.SessionTimeSegment) error {
	query := `
		INSERT INTO session_time_segments
			(session_id, sequence, station_id, station_name, station_type, started_at, ended_at,
			 effective_seconds, pricing_tier, rate_solo_snapshot, rate_group_snapshot, rate_hourly_applied, time_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		segment.SessionID,
		segment.Sequence,
		segment.StationID,
		segment.StationName,
		segment.StationType,
		segment.StartedAt,
		segment.EndedAt,
		segment.EffectiveSeconds,
		segment.PricingTier,
		segment.RateSoloSnapshot,
		segment.RateGroupSnapshot,
		segment.RateHourlyApplied,
		segment.TimeAmount,
	).Scan(&segment.ID, &segment.CreatedAt)
}

func (r *SegmentRepository) ListBySession(ctx context.Context, sessionID int64) ([]models.SessionTimeSegment, error) {
	query := `
		SELECT ` + segmentColumns + `
		FROM session_time_segments
		WHERE session_id = $1
		ORDER BY sequence ASC
	`
	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	segments := make([]models.SessionTimeSegment, 0)
	for rows.Next() {
		var segment models.SessionTimeSegment
		if err := rows.Scan(
			&segment.ID,
			&segment.SessionID,
			&segment.Sequence,
			&segment.StationID,
			&segment.StationName,
			&segment.StationType,
			&segment.StartedAt,
			&segment.EndedAt,
			&segment.EffectiveSeconds,
			&segment.PricingTier,
			&segment.RateSoloSnapshot,
			&segment.RateGroupSnapshot,
			&segment.RateHourlyApplied,
			&segment.TimeAmount,
			&segment.CreatedAt,
		); err != nil {
			return nil, err
		}
		segments = append(segments, segment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return segments, nil
}

// GetForSession loads a segment only when it belongs to the given
// session, so a tier override can never touch a foreign ledger row.
func (r *SegmentRepository) GetForSession(ctx context.Context, segmentID, sessionID int64) (*models.SessionTimeSegment, error) {
	query := `
		SELECT ` + segmentColumns + `
		FROM session_time_segments
		WHERE id = $1 AND session_id = $2
	`
	var segment models.SessionTimeSegment
	err := r.db.QueryRow(ctx, query, segmentID, sessionID).Scan(
		&segment.ID,
		&segment.SessionID,
		&segment.Sequence,
		&segment.StationID,
		&segment.StationName,
		&segment.StationType,
		&segment.StartedAt,
		&segment.EndedAt,
		&segment.EffectiveSeconds,
		&segment.PricingTier,
		&segment.RateSoloSnapshot,
		&segment.RateGroupSnapshot,
		&segment.RateHourlyApplied,
		&segment.TimeAmount,
		&segment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &segment, nil
}

// UpdateApplied rewrites the tier selection of a segment. Sequence,
// interval bounds and effective_seconds stay untouched.
func (r *SegmentRepository) UpdateApplied(ctx context.Context, segmentID int64, pricingTier string, rateHourlyApplied, timeAmount float64) error {
	query := `
		UPDATE session_time_segments
		SET pricing_tier = $2, rate_hourly_applied = $3, time_amount = $4
		WHERE id = $1
	`
	_, err := r.db.Exec(ctx, query, segmentID, pricingTier, rateHourlyApplied, timeAmount)
	return err
}

func (r *SegmentRepository) SumAmounts(ctx context.Context, sessionID int64) (float64, error) {
	query := `
		SELECT COALESCE(SUM(time_amount), 0)
		FROM session_time_segments
		WHERE session_id = $1
	`
	var total float64
	if err := r.db.QueryRow(ctx, query, sessionID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
