package repository

import (
	"context"

	"github.com/mudasirkk/Tabbd-sub000/internal/models"
)

type StationRepository struct {
	db DBTX
}

func NewStationRepository(db DBTX) *StationRepository {
	return &StationRepository{db: db}
}

func (r *StationRepository) GetByID(ctx context.Context, venueID, stationID int64) (*models.Station, error) {
	query := `
		SELECT id, venue_id, name, station_type, rate_solo_hourly, rate_group_hourly, is_enabled, created_at, updated_at
		FROM stations
		WHERE id = $1 AND venue_id = $2
	`
	var station models.Station
	err := r.db.QueryRow(ctx, query, stationID, venueID).Scan(
		&station.ID,
		&station.VenueID,
		&station.Name,
		&station.StationType,
		&station.RateSoloHourly,
		&station.RateGroupHourly,
		&station.IsEnabled,
		&station.CreatedAt,
		&station.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &station, nil
}

// ListWithOccupancy returns every station of the venue together with
// its open session, when one exists.
func (r *StationRepository) ListWithOccupancy(ctx context.Context, venueID int64) ([]models.StationOverview, error) {
	query := `
		SELECT st.id, st.venue_id, st.name, st.station_type, st.rate_solo_hourly, st.rate_group_hourly,
		       st.is_enabled, st.created_at, st.updated_at, s.id, s.status
		FROM stations st
		LEFT JOIN sessions s ON s.station_id = st.id AND s.status <> 'closed'
		WHERE st.venue_id = $1
		ORDER BY st.name ASC, st.id ASC
	`
	rows, err := r.db.Query(ctx, query, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overviews := make([]models.StationOverview, 0)
	for rows.Next() {
		var o models.StationOverview
		if err := rows.Scan(
			&o.ID,
			&o.VenueID,
			&o.Name,
			&o.StationType,
			&o.RateSoloHourly,
			&o.RateGroupHourly,
			&o.IsEnabled,
			&o.CreatedAt,
			&o.UpdatedAt,
			&o.SessionID,
			&o.SessionStatus,
		); err != nil {
			return nil, err
		}
		overviews = append(overviews, o)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return overviews, nil
}
