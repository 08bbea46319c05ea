package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/mudasirkk/Tabbd-sub000/internal/cache"
	"github.com/mudasirkk/Tabbd-sub000/internal/models"
	"github.com/mudasirkk/Tabbd-sub000/internal/repository"
)

// SessionService drives the session lifecycle: start, pause, resume,
// transfer between stations and checkout. Every multi-row mutation
// runs in one transaction; the segment ledger is written only here.
type SessionService struct {
	db       repository.Querier
	stations *repository.StationRepository
	sessions *repository.SessionRepository
	segments *repository.SegmentRepository
	items    *repository.SessionItemRepository
	board    *cache.LiveBoard
	logger   *zap.Logger
}

func NewSessionService(
	db repository.Querier,
	stations *repository.StationRepository,
	sessions *repository.SessionRepository,
	segments *repository.SegmentRepository,
	items *repository.SessionItemRepository,
	board *cache.LiveBoard,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		db:       db,
		stations: stations,
		sessions: sessions,
		segments: segments,
		items:    items,
		board:    board,
		logger:   logger,
	}
}

type StartSessionInput struct {
	StationID   int64
	PricingTier string
	StartedAt   *time.Time
}

type TransferInput struct {
	DestinationStationID int64
	EndingTier           *string
	NextTier             *string
}

type SegmentTierOverride struct {
	SegmentID   int64
	PricingTier string
}

type CloseInput struct {
	CurrentSegmentTier *string
	Overrides          []SegmentTierOverride
}

func normalizeTier(tier string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case models.TierSolo:
		return models.TierSolo, nil
	case models.TierGroup:
		return models.TierGroup, nil
	default:
		return "", ErrInvalidTier
	}
}

// Start opens a session on a station. If the station already carries a
// non-closed session it is returned unchanged, so a retried or
// double-clicked start never creates a duplicate.
func (s *SessionService) Start(ctx context.Context, venueID int64, input StartSessionInput) (*models.Session, error) {
	if input.StationID <= 0 {
		return nil, ErrInvalidInput
	}
	tier, err := normalizeTier(input.PricingTier)
	if err != nil {
		return nil, err
	}

	station, err := s.stations.GetByID(ctx, venueID, input.StationID)
	if err != nil {
		return nil, err
	}
	if !station.IsEnabled {
		return nil, ErrStationDisabled
	}

	now := time.Now().UTC()
	startedAt := now
	// A supplied start in the future is clamped to now so elapsed time
	// can never go negative.
	if input.StartedAt != nil && input.StartedAt.Before(now) {
		startedAt = input.StartedAt.UTC()
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessions := repository.NewSessionRepository(tx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", station.ID); err != nil {
		return nil, err
	}

	existing, err := txSessions.GetOpenByStation(ctx, station.ID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	session, err := txSessions.Create(ctx, repository.CreateSessionInput{
		VenueID:            venueID,
		StationID:          station.ID,
		StartedAt:          startedAt,
		PricingTier:        tier,
		RateHourlySnapshot: station.HourlyRate(tier),
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.saveBoardEntry(ctx, session, station.Name)
	return session, nil
}

// Pause stops the clock. Valid only from active; anything else is a
// zero-row conditional update and surfaces as not found.
func (s *SessionService) Pause(ctx context.Context, venueID, sessionID int64) (*models.Session, error) {
	return s.sessions.Pause(ctx, venueID, sessionID, time.Now().UTC())
}

// Resume restarts the clock, folding the pause delta into the open
// interval's total. Valid only from paused.
func (s *SessionService) Resume(ctx context.Context, venueID, sessionID int64) (*models.Session, error) {
	return s.sessions.Resume(ctx, venueID, sessionID, time.Now().UTC())
}

// Get returns the session with its ledger, tab and display charges.
// The open interval's charge is computed on the fly, never persisted.
func (s *SessionService) Get(ctx context.Context, venueID, sessionID int64) (*models.SessionDetail, error) {
	session, err := s.sessions.GetByID(ctx, venueID, sessionID)
	if err != nil {
		return nil, err
	}
	segments, err := s.segments.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	items, err := s.items.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	ledgerTotal := 0.0
	for _, segment := range segments {
		ledgerTotal += segment.TimeAmount
	}

	current := 0.0
	if session.Status != models.StatusClosed {
		now := time.Now().UTC()
		effective := EffectiveSeconds(session.StartedAt, ReferenceEnd(session.PausedAt, now), session.TotalPausedSeconds)
		current = TimeCharge(effective, session.RateHourlySnapshot)
	}

	itemsSubtotal := 0.0
	for _, item := range items {
		itemsSubtotal += item.Price * float64(item.Quantity)
	}

	return &models.SessionDetail{
		Session:       *session,
		Segments:      segments,
		Items:         items,
		CurrentCharge: RoundCurrency(current),
		RunningTotal:  RoundCurrency(ledgerTotal + current),
		ItemsSubtotal: RoundCurrency(itemsSubtotal),
	}, nil
}

// Transfer moves a live session to another station: the interval on
// the source station becomes a ledger segment priced with the source
// rates, then the session's open-interval clock restarts on the
// destination. The tab and session identity are untouched.
func (s *SessionService) Transfer(ctx context.Context, venueID, sessionID int64, input TransferInput) (*models.Session, error) {
	if input.DestinationStationID <= 0 {
		return nil, ErrInvalidInput
	}

	now := time.Now().UTC()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessions := repository.NewSessionRepository(tx)
	txStations := repository.NewStationRepository(tx)
	txSegments := repository.NewSegmentRepository(tx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", input.DestinationStationID); err != nil {
		return nil, err
	}

	session, err := txSessions.GetByIDForUpdate(ctx, venueID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.StatusClosed {
		return nil, ErrSessionClosed
	}
	if session.StationID == input.DestinationStationID {
		return nil, ErrSameStation
	}

	dest, err := txStations.GetByID(ctx, venueID, input.DestinationStationID)
	if err != nil {
		return nil, err
	}
	if !dest.IsEnabled {
		return nil, ErrStationDisabled
	}

	if _, err := txSessions.GetOpenByStation(ctx, dest.ID); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	source, err := txStations.GetByID(ctx, venueID, session.StationID)
	if err != nil {
		return nil, err
	}

	endingTier := session.PricingTier
	if input.EndingTier != nil {
		if endingTier, err = normalizeTier(*input.EndingTier); err != nil {
			return nil, err
		}
	}
	nextTier := endingTier
	if input.NextTier != nil {
		if nextTier, err = normalizeTier(*input.NextTier); err != nil {
			return nil, err
		}
	}

	endedAt := ReferenceEnd(session.PausedAt, now)
	if _, err := snapshotSegment(ctx, txSegments, session, source, endedAt, endingTier); err != nil {
		return nil, err
	}

	var pausedAt *time.Time
	if session.PausedAt != nil {
		pausedAt = &now
	}
	updated, err := txSessions.ApplyTransfer(ctx, session.ID, repository.TransferUpdate{
		StationID:          dest.ID,
		StartedAt:          now,
		PausedAt:           pausedAt,
		PricingTier:        nextTier,
		RateHourlySnapshot: dest.HourlyRate(nextTier),
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.removeBoardEntry(ctx, venueID, source.ID)
	s.saveBoardEntry(ctx, updated, dest.Name)
	return updated, nil
}

// Close finalizes a session: applies any tier corrections to recorded
// segments, snapshots the still-open interval as the final segment,
// sums the ledger into total_amount and marks the session closed.
// Closing an already-closed session returns it unchanged.
func (s *SessionService) Close(ctx context.Context, venueID, sessionID int64, input CloseInput) (*models.Session, error) {
	now := time.Now().UTC()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessions := repository.NewSessionRepository(tx)
	txStations := repository.NewStationRepository(tx)
	txSegments := repository.NewSegmentRepository(tx)

	session, err := txSessions.GetByIDForUpdate(ctx, venueID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.StatusClosed {
		return session, nil
	}

	if session.PausedAt != nil {
		delta := int64(math.Floor(now.Sub(*session.PausedAt).Seconds()))
		if delta > 0 {
			session.TotalPausedSeconds += delta
		}
		session.PausedAt = nil
	}

	for _, override := range input.Overrides {
		tier, err := normalizeTier(override.PricingTier)
		if err != nil {
			return nil, err
		}
		segment, err := txSegments.GetForSession(ctx, override.SegmentID, session.ID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrForeignSegment
			}
			return nil, err
		}
		rate := segment.RateSoloSnapshot
		if tier == models.TierGroup {
			rate = segment.RateGroupSnapshot
		}
		amount := TimeCharge(segment.EffectiveSeconds, rate)
		if err := txSegments.UpdateApplied(ctx, segment.ID, tier, rate, amount); err != nil {
			return nil, err
		}
	}

	station, err := txStations.GetByID(ctx, venueID, session.StationID)
	if err != nil {
		return nil, err
	}

	tier := session.PricingTier
	if input.CurrentSegmentTier != nil {
		if tier, err = normalizeTier(*input.CurrentSegmentTier); err != nil {
			return nil, err
		}
	}

	final, err := snapshotSegment(ctx, txSegments, session, station, now, tier)
	if err != nil {
		return nil, err
	}

	total, err := txSegments.SumAmounts(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	closed, err := txSessions.Close(ctx, session.ID, repository.CloseUpdate{
		ClosedAt:           now,
		TotalAmount:        RoundCurrency(total),
		TotalPausedSeconds: session.TotalPausedSeconds,
		PricingTier:        final.PricingTier,
		RateHourlySnapshot: final.RateHourlyApplied,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.removeBoardEntry(ctx, venueID, station.ID)
	return closed, nil
}

// snapshotSegment freezes the session's open interval into the ledger.
// The session row is held FOR UPDATE by every caller, so the sequence
// read cannot race.
func snapshotSegment(
	ctx context.Context,
	segments *repository.SegmentRepository,
	session *models.Session,
	station *models.Station,
	endedAt time.Time,
	tier string,
) (*models.SessionTimeSegment, error) {
	sequence, err := segments.NextSequence(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	effective := EffectiveSeconds(session.StartedAt, endedAt, session.TotalPausedSeconds)
	rate := station.HourlyRate(tier)
	segment := &models.SessionTimeSegment{
		SessionID:         session.ID,
		Sequence:          sequence,
		StationID:         station.ID,
		StationName:       station.Name,
		StationType:       station.StationType,
		StartedAt:         session.StartedAt,
		EndedAt:           endedAt,
		EffectiveSeconds:  effective,
		PricingTier:       tier,
		RateSoloSnapshot:  station.RateSoloHourly,
		RateGroupSnapshot: station.RateGroupHourly,
		RateHourlyApplied: rate,
		TimeAmount:        TimeCharge(effective, rate),
	}
	if err := segments.Insert(ctx, segment); err != nil {
		return nil, err
	}
	return segment, nil
}

func (s *SessionService) saveBoardEntry(ctx context.Context, session *models.Session, stationName string) {
	if s.board == nil {
		return
	}
	err := s.board.Save(ctx, session.VenueID, cache.ActiveSession{
		SessionID:   session.ID,
		StationID:   session.StationID,
		StationName: stationName,
		PricingTier: session.PricingTier,
		StartedAt:   session.StartedAt,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("failed to update live board", zap.Int64("session_id", session.ID), zap.Error(err))
	}
}

func (s *SessionService) removeBoardEntry(ctx context.Context, venueID, stationID int64) {
	if s.board == nil {
		return
	}
	if err := s.board.Remove(ctx, venueID, stationID); err != nil && s.logger != nil {
		s.logger.Warn("failed to clear live board entry", zap.Int64("station_id", stationID), zap.Error(err))
	}
}
