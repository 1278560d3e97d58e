package postgres

import (
	"context"
	"fmt"

	"github.com/oleandersen/pickup-orders/internal/domain"
	"github.com/oleandersen/pickup-orders/internal/interfaces"
)

type scheduleRepository struct {
	db DB
}

func NewScheduleRepository(db DB) interfaces.ScheduleRepository {
	return &scheduleRepository{db: db}
}

// GetOperatingHours loads the weekly schedule as stored on the restaurant
// profile. Day names are kept verbatim; normalization happens in the domain.
func (r *scheduleRepository) GetOperatingHours(ctx context.Context) ([]domain.OperatingHours, error) {
	query := `SELECT day, open_time, close_time, closed FROM operating_hours ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query operating hours: %w", err)
	}
	defer rows.Close()

	var schedule []domain.OperatingHours
	for rows.Next() {
		var entry domain.OperatingHours
		if err := rows.Scan(&entry.Day, &entry.Open, &entry.Close, &entry.Closed); err != nil {
			return nil, fmt.Errorf("failed to scan operating hours: %w", err)
		}
		schedule = append(schedule, entry)
	}

	return schedule, nil
}
