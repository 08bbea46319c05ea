package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"go.uber.org/zap"

	"github.com/mudasirkk/Tabbd-sub000/internal/models"
	"github.com/mudasirkk/Tabbd-sub000/internal/repository"
)

var sessionTestColumns = []string{
	"id", "venue_id", "station_id", "status", "started_at", "paused_at", "total_paused_seconds",
	"pricing_tier", "rate_hourly_snapshot", "closed_at", "total_amount", "created_at", "updated_at",
}

func sessionRows(s models.Session) *pgxmock.Rows {
	return pgxmock.NewRows(sessionTestColumns).AddRow(
		s.ID, s.VenueID, s.StationID, s.Status, s.StartedAt, s.PausedAt, s.TotalPausedSeconds,
		s.PricingTier, s.RateHourlySnapshot, s.ClosedAt, s.TotalAmount, s.CreatedAt, s.UpdatedAt,
	)
}

func stationRows(st models.Station) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "venue_id", "name", "station_type", "rate_solo_hourly", "rate_group_hourly",
		"is_enabled", "created_at", "updated_at",
	}).AddRow(
		st.ID, st.VenueID, st.Name, st.StationType, st.RateSoloHourly, st.RateGroupHourly,
		st.IsEnabled, st.CreatedAt, st.UpdatedAt,
	)
}

func segmentRows(seg models.SessionTimeSegment) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "session_id", "sequence", "station_id", "station_name", "station_type", "started_at",
		"ended_at", "effective_seconds", "pricing_tier", "rate_solo_snapshot", "rate_group_snapshot",
		"rate_hourly_applied", "time_amount", "created_at",
	}).AddRow(
		seg.ID, seg.SessionID, seg.Sequence, seg.StationID, seg.StationName, seg.StationType,
		seg.StartedAt, seg.EndedAt, seg.EffectiveSeconds, seg.PricingTier, seg.RateSoloSnapshot,
		seg.RateGroupSnapshot, seg.RateHourlyApplied, seg.TimeAmount, seg.CreatedAt,
	)
}

func newSessionServiceMock(t *testing.T) (pgxmock.PgxPoolIface, *SessionService) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	service := NewSessionService(
		mock,
		repository.NewStationRepository(mock),
		repository.NewSessionRepository(mock),
		repository.NewSegmentRepository(mock),
		repository.NewSessionItemRepository(mock),
		nil,
		zap.NewNop(),
	)
	return mock, service
}

func TestStartCreatesSessionWithStationRateSnapshot(t *testing.T) {
	mock, service := newSessionServiceMock(t)
	defer mock.Close()

	now := time.Now().UTC()
	station := models.Station{
		ID: 3, VenueID: 1, Name: "Table A", StationType: models.StationTypePool,
		RateSoloHourly: 9, RateGroupHourly: 16, IsEnabled: true, CreatedAt: now, UpdatedAt: now,
	}
	created := models.Session{
		ID: 42, VenueID: 1, StationID: 3, Status: models.StatusActive, StartedAt: now,
		PricingTier: models.TierGroup, RateHourlySnapshot: 16, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectQuery(`SELECT id, venue_id, name, station_type`).
		WithArgs(int64(3), int64(1)).
		WillReturnRows(stationRows(station))
	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`WHERE station_id`).
		WithArgs(int64(3)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO sessions`).
		WithArgs(int64(1), int64(3), pgxmock.AnyArg(), "group", 16.0).
		WillReturnRows(sessionRows(created))
	mock.ExpectCommit()

	session, err := service.Start(context.Background(), 1, StartSessionInput{StationID: 3, PricingTier: "Group"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if session.ID != 42 || session.Status != models.StatusActive {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.RateHourlySnapshot != 16 {
		t.Fatalf("expected group rate snapshot 16, got %v", session.RateHourlySnapshot)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStartReturnsOpenSessionUnchanged(t *testing.T) {
	mock, service := newSessionServiceMock(t)
	defer mock.Close()

	now := time.Now().UTC()
	station := models.Station{
		ID: 3, VenueID: 1, Name: "Table A", StationType: models.StationTypePool,
		RateSoloHourly: 9, RateGroupHourly: 16, IsEnabled: true, CreatedAt: now, UpdatedAt: now,
	}
	open := models.Session{
		ID: 42, VenueID: 1, StationID: 3, Status: models.StatusActive, StartedAt: now.Add(-time.Hour),
		PricingTier: models.TierSolo, RateHourlySnapshot: 9, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectQuery(`SELECT id, venue_id, name, station_type`).
		WithArgs(int64(3), int64(1)).
		WillReturnRows(stationRows(station))
	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`WHERE station_id`).
		WithArgs(int64(3)).
		WillReturnRows(sessionRows(open))
	mock.ExpectRollback()

	session, err := service.Start(context.Background(), 1, StartSessionInput{StationID: 3, PricingTier: "solo"})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if session.ID != 42 {
		t.Fatalf("expected existing session 42, got %d", session.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestStartRejectsDisabledStation(t *testing.T) {
	mock, service := newSessionServiceMock(t)
	defer mock.Close()

	now := time.Now().UTC()
	station := models.Station{
		ID: 3, VenueID: 1, Name: "Table A", StationType: models.StationTypePool,
		RateSoloHourly: 9, RateGroupHourly: 16, IsEnabled: false, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectQuery(`SELECT id, venue_id, name, station_type`).
		WithArgs(int64(3), int64(1)).
		WillReturnRows(stationRows(station))

	if _, err := service.Start(context.Background(), 1, StartSessionInput{StationID: 3, PricingTier: "solo"}); !errors.Is(err, ErrStationDisabled) {
		t.Fatalf("expected ErrStationDisabled, got %v", err)
	}
}

func TestStartRejectsUnknownTier(t *testing.T) {
	mock, service := newSessionServiceMock(t)
	defer mock.Close()

	if _, err := service.Start(context.Background(), 1, StartSessionInput{StationID: 3, PricingTier: "vip"}); !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("expected ErrInvalidTier, got %v", err)
	}
}

func TestPauseRequiresActiveSession(t *testing.T) {
	mock, service := newSessionServiceMock(t)
	defer mock.Close()

	mock.ExpectQuery(`SET status = 'paused'`).
		WithArgs(int64(5), int64(1), pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	if _, err := service.Pause(context.Background(), 1, 5); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows for non-active session, got %v", err)
	}
}

func TestResumeFoldsPauseIntoTotal(t *testing.T) {
	mock, service := newSessionServiceMock(t)
	defer mock.Close()

	now := time.Now().UTC()
	resumed := models.Session{
		ID: 5, VenueID: 1, StationID: 3, Status: models.StatusActive, StartedAt: now.Add(-time.Hour),
		TotalPausedSeconds: 300, PricingTier: models.TierSolo, RateHourlySnapshot: 9,
		CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectQuery(`SET status = 'active'`).
		WithArgs(int64(5), int64(1), pgxmock.AnyArg()).
		WillReturnRows(sessionRows(resumed))

	session, err := service.Resume(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if session.TotalPausedSeconds != 300 {
		t.Fatalf("expected 300 paused seconds, got %d", session.TotalPausedSeconds)
	}
	if session.PausedAt != nil {
		t.Fatalf("expected paused_at cleared, got %v", session.PausedAt)
	}
}

func TestTransferSnapshotsSourceSegment(t *testing.T) {
	mock, service := newSessionServiceMock(t)
	defer mock.Close()

	now := time.Now().UTC()
	session := models.Session{
		ID: 7, VenueID: 1, StationID: 3, Status: models.StatusActive, StartedAt: now.Add(-30 * time.Minute),
		PricingTier: models.TierSolo, RateHourlySnapshot: 8, CreatedAt: now, UpdatedAt: now,
	}
	source := models.Station{
		ID: 3, VenueID: 1, Name: "Table A", StationType: models.StationTypePool,
		RateSoloHourly: 8, RateGroupHourly: 14, IsEnabled: true, CreatedAt: now, UpdatedAt: now,
	}
	dest := models.Station{
		ID: 4, VenueID: 1, Name: "Console 1", StationType: models.StationTypeGaming,
		RateSoloHourly: 12, RateGroupHourly: 20, IsEnabled: true, CreatedAt: now, UpdatedAt: now,
	}
	moved := session
	moved.StationID = 4
	moved.RateHourlySnapshot = 12
	moved.StartedAt = now

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sessionRows(session))
	mock.ExpectQuery(`SELECT id, venue_id, name, station_type`).
		WithArgs(int64(4), int64(1)).
		WillReturnRows(stationRows(dest))
	mock.ExpectQuery(`WHERE station_id`).
		WithArgs(int64(4)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT id, venue_id, name, station_type`).
		WithArgs(int64(3), int64(1)).
		WillReturnRows(stationRows(source))
	mock.ExpectQuery(`COALESCE\(MAX\(sequence\), 0\)`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"next"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO session_time_segments`).
		WithArgs(int64(7), 1, int64(3), "Table A", models.StationTypePool,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "solo", 8.0, 14.0, 8.0, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), now))
	mock.ExpectQuery(`SET station_id`).
		WithArgs(int64(7), int64(4), pgxmock.AnyArg(), (*time.Time)(nil), "solo", 12.0).
		WillReturnRows(sessionRows(moved))
	mock.ExpectCommit()

	updated, err := service.Transfer(context.Background(), 1, 7, TransferInput{DestinationStationID: 4})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	if updated.StationID != 4 || updated.RateHourlySnapshot != 12 {
		t.Fatalf("expected session on station 4 at rate 12, got %+v", updated)
	}
	if updated.TotalPausedSeconds != 0 {
		t.Fatalf("expected paused seconds reset, got %d", updated.TotalPausedSeconds)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransferRejectsOccupiedDestination(t *testing.T) {
	mock, service := newSessionServiceMock(t)
	defer mock.Close()

	now := time.Now().UTC()
	session := models.Session{
		ID: 7, VenueID: 1, StationID: 3, Status: models.StatusActive, StartedAt: now.Add(-time.Hour),
		PricingTier: models.TierSolo, RateHourlySnapshot: 8, CreatedAt: now, UpdatedAt: now,
	}
	dest := models.Station{
		ID: 4, VenueID: 1, Name: "Console 1", StationType: models.StationTypeGaming,
		RateSoloHourly: 12, RateGroupHourly: 20, IsEnabled: true, CreatedAt: now, UpdatedAt: now,
	}
	occupant := models.Session{
		ID: 99, VenueID: 1, StationID: 4, Status: models.StatusActive, StartedAt: now.Add(-time.Minute),
		PricingTier: models.TierSolo, RateHourlySnapshot: 12, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).
		WithArgs(int64(4)).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sessionRows(session))
	mock.ExpectQuery(`SELECT id, venue_id, name, station_type`).
		WithArgs(int64(4), int64(1)).
		WillReturnRows(stationRows(dest))
	mock.ExpectQuery(`WHERE station_id`).
		WithArgs(int64(4)).
		WillReturnRows(sessionRows(occupant))
	mock.ExpectRollback()

	if _, err := service.Transfer(context.Background(), 1, 7, TransferInput{DestinationStationID: 4}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransferRejectsSameStation(t *testing.T) {
	mock, service := newSessionServiceMock(t)
	defer mock.Close()

	now := time.Now().UTC()
	session := models.Session{
		ID: 7, VenueID: 1, StationID: 3, Status: models.StatusActive, StartedAt: now.Add(-time.Hour),
		PricingTier: models.TierSolo, RateHourlySnapshot: 8, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sessionRows(session))
	mock.ExpectRollback()

	if _, err := service.Transfer(context.Background(), 1, 7, TransferInput{DestinationStationID: 3}); !errors.Is(err, ErrSameStation) {
		t.Fatalf("expected ErrSameStation, got %v", err)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	mock, service := newSessionServiceMock(t)
	defer mock.Close()

	now := time.Now().UTC()
	closedAt := now.Add(-time.Hour)
	total := 25.5
	closed := models.Session{
		ID: 7, VenueID: 1, StationID: 3, Status: models.StatusClosed, StartedAt: now.Add(-2 * time.Hour),
		PricingTier: models.TierSolo, RateHourlySnapshot: 8, ClosedAt: &closedAt, TotalAmount: &total,
		CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sessionRows(closed))
	mock.ExpectRollback()

	session, err := service.Close(context.Background(), 1, 7, CloseInput{})
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if session.Status != models.StatusClosed {
		t.Fatalf("expected closed session, got %q", session.Status)
	}
	if session.TotalAmount == nil || *session.TotalAmount != 25.5 {
		t.Fatalf("expected total preserved, got %v", session.TotalAmount)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCloseAppliesTierOverridesAndSumsLedger(t *testing.T) {
	mock, service := newSessionServiceMock(t)
	defer mock.Close()

	now := time.Now().UTC()
	session := models.Session{
		ID: 7, VenueID: 1, StationID: 3, Status: models.StatusActive, StartedAt: now.Add(-time.Hour),
		PricingTier: models.TierGroup, RateHourlySnapshot: 14, CreatedAt: now, UpdatedAt: now,
	}
	station := models.Station{
		ID: 3, VenueID: 1, Name: "Table A", StationType: models.StationTypePool,
		RateSoloHourly: 8, RateGroupHourly: 14, IsEnabled: true, CreatedAt: now, UpdatedAt: now,
	}
	recorded := models.SessionTimeSegment{
		ID: 11, SessionID: 7, Sequence: 1, StationID: 2, StationName: "Table B", StationType: models.StationTypePool,
		StartedAt: now.Add(-2 * time.Hour), EndedAt: now.Add(-time.Hour), EffectiveSeconds: 1800,
		PricingTier: models.TierGroup, RateSoloSnapshot: 8, RateGroupSnapshot: 14,
		RateHourlyApplied: 14, TimeAmount: 7, CreatedAt: now,
	}
	closedAt := now
	total := 18.67
	closed := session
	closed.Status = models.StatusClosed
	closed.ClosedAt = &closedAt
	closed.TotalAmount = &total

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sessionRows(session))
	mock.ExpectQuery(`FROM session_time_segments\s+WHERE id`).
		WithArgs(int64(11), int64(7)).
		WillReturnRows(segmentRows(recorded))
	mock.ExpectExec(`UPDATE session_time_segments`).
		WithArgs(int64(11), "solo", 8.0, 4.0).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`SELECT id, venue_id, name, station_type`).
		WithArgs(int64(3), int64(1)).
		WillReturnRows(stationRows(station))
	mock.ExpectQuery(`COALESCE\(MAX\(sequence\), 0\)`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"next"}).AddRow(2))
	mock.ExpectQuery(`INSERT INTO session_time_segments`).
		WithArgs(int64(7), 2, int64(3), "Table A", models.StationTypePool,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "group", 8.0, 14.0, 14.0, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(12), now))
	mock.ExpectQuery(`SUM\(time_amount\)`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"total"}).AddRow(18.666666666666668))
	mock.ExpectQuery(`SET status = 'closed'`).
		WithArgs(int64(7), pgxmock.AnyArg(), 18.67, int64(0), "group", 14.0).
		WillReturnRows(sessionRows(closed))
	mock.ExpectCommit()

	result, err := service.Close(context.Background(), 1, 7, CloseInput{
		Overrides: []SegmentTierOverride{{SegmentID: 11, PricingTier: "solo"}},
	})
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if result.Status != models.StatusClosed {
		t.Fatalf("expected closed session, got %q", result.Status)
	}
	if result.TotalAmount == nil || *result.TotalAmount != 18.67 {
		t.Fatalf("expected rounded total 18.67, got %v", result.TotalAmount)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCloseRejectsForeignSegmentOverride(t *testing.T) {
	mock, service := newSessionServiceMock(t)
	defer mock.Close()

	now := time.Now().UTC()
	session := models.Session{
		ID: 7, VenueID: 1, StationID: 3, Status: models.StatusActive, StartedAt: now.Add(-time.Hour),
		PricingTier: models.TierSolo, RateHourlySnapshot: 8, CreatedAt: now, UpdatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(int64(7), int64(1)).
		WillReturnRows(sessionRows(session))
	mock.ExpectQuery(`FROM session_time_segments\s+WHERE id`).
		WithArgs(int64(500), int64(7)).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := service.Close(context.Background(), 1, 7, CloseInput{
		Overrides: []SegmentTierOverride{{SegmentID: 500, PricingTier: "solo"}},
	})
	if !errors.Is(err, ErrForeignSegment) {
		t.Fatalf("expected ErrForeignSegment, got %v", err)
	}
}
