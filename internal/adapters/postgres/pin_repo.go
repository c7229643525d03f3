package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/soundpin/soundpin/internal/core/domain"
	"github.com/soundpin/soundpin/internal/core/ports"
)

// PinRepo implements ports.PinRepository with pgx.
type PinRepo struct {
	db *DB
}

// NewPinRepo creates a new PinRepo.
func NewPinRepo(db *DB) *PinRepo {
	return &PinRepo{db: db}
}

const pinColumns = `
	id, owner_id,
	ST_Y(location::geometry) as lat,
	ST_X(location::geometry) as lng,
	location_accuracy,
	audio_url, audio_duration_seconds, audio_format,
	weather, time_tag, COALESCE(title, ''), status, COALESCE(report_reason, ''),
	ai_analysis, device_info, created_at, updated_at`

func scanPin(row pgx.Row) (*domain.Pin, error) {
	var p domain.Pin
	err := row.Scan(
		&p.ID, &p.OwnerID,
		&p.Location.Lat, &p.Location.Lng, &p.Location.Accuracy,
		&p.Audio.URL, &p.Audio.DurationSeconds, &p.Audio.Format,
		&p.Weather, &p.TimeTag, &p.Title, &p.Status, &p.ReportReason,
		&p.AIAnalysis, &p.DeviceInfo, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPins(rows pgx.Rows) ([]domain.Pin, error) {
	defer rows.Close()
	var pins []domain.Pin
	for rows.Next() {
		p, err := scanPin(rows)
		if err != nil {
			return nil, err
		}
		pins = append(pins, *p)
	}
	return pins, rows.Err()
}

// Create inserts a pin and returns it with database timestamps.
func (r *PinRepo) Create(ctx context.Context, pin *domain.Pin) (*domain.Pin, error) {
	row := r.db.Pool.QueryRow(ctx, `
		INSERT INTO pins (
			id, owner_id, location, location_accuracy,
			audio_url, audio_duration_seconds, audio_format,
			weather, time_tag, title, status, ai_analysis, device_info
		)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5,
		        $6, $7, $8, $9, $10, NULLIF($11, ''), $12, $13, $14)
		RETURNING `+pinColumns,
		pin.ID, pin.OwnerID, pin.Location.Lng, pin.Location.Lat, pin.Location.Accuracy,
		pin.Audio.URL, pin.Audio.DurationSeconds, pin.Audio.Format,
		pin.Weather, pin.TimeTag, pin.Title, pin.Status, pin.AIAnalysis, pin.DeviceInfo,
	)
	return scanPin(row)
}

// GetByID returns a pin by id.
func (r *PinRepo) GetByID(ctx context.Context, id string) (*domain.Pin, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+pinColumns+` FROM pins WHERE id = $1 AND status <> 'deleted'`, id)
	p, err := scanPin(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

// Update applies a partial patch. Nil patch fields keep the stored value.
func (r *PinRepo) Update(ctx context.Context, id string, patch ports.UpdatePatch) (*domain.Pin, error) {
	row := r.db.Pool.QueryRow(ctx, `
		UPDATE pins SET
			title = COALESCE($2, title),
			status = COALESCE($3, status),
			ai_analysis = COALESCE($4, ai_analysis),
			report_reason = COALESCE($5, report_reason),
			updated_at = now()
		WHERE id = $1 AND status <> 'deleted'
		RETURNING `+pinColumns,
		id, patch.Title, patch.Status, patch.AIAnalysis, patch.ReportReason,
	)
	p, err := scanPin(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return p, err
}

// Delete removes a pin. Returns false when the id did not match a row.
func (r *PinRepo) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM pins WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// QueryByBounds returns visible pins inside a rectangle, newest first.
// Categories match against the AI analysis emotion or topic.
func (r *PinRepo) QueryByBounds(ctx context.Context, b domain.GeoBounds, limit int, categories []string) ([]domain.Pin, error) {
	sql := `SELECT ` + pinColumns + `
		FROM pins
		WHERE status = 'active'
		  AND location::geometry && ST_MakeEnvelope($1, $2, $3, $4, 4326)`
	args := []any{b.West, b.South, b.East, b.North}

	if len(categories) > 0 {
		sql += `
		  AND (ai_analysis->'categories'->>'emotion' = ANY($5)
		       OR ai_analysis->'categories'->>'topic' = ANY($5))`
		args = append(args, categories)
	}

	sql += fmt.Sprintf(`
		ORDER BY created_at DESC
		LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collectPins(rows)
}

// QueryByFilter runs a combined search. All filter fields are optional
// and compose with AND.
func (r *PinRepo) QueryByFilter(ctx context.Context, f ports.PinFilter) ([]domain.Pin, error) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conds = append(conds, `status = 'active'`)

	if f.Bounds != nil {
		b := f.Bounds
		conds = append(conds, fmt.Sprintf(
			`location::geometry && ST_MakeEnvelope(%s, %s, %s, %s, 4326)`,
			arg(b.West), arg(b.South), arg(b.East), arg(b.North)))
	}
	if f.Start != nil {
		conds = append(conds, fmt.Sprintf(`created_at >= %s`, arg(*f.Start)))
	}
	if f.End != nil {
		conds = append(conds, fmt.Sprintf(`created_at <= %s`, arg(*f.End)))
	}
	if len(f.Categories) > 0 {
		p := arg(f.Categories)
		conds = append(conds, fmt.Sprintf(
			`(ai_analysis->'categories'->>'emotion' = ANY(%s) OR ai_analysis->'categories'->>'topic' = ANY(%s))`, p, p))
	}
	if len(f.Weather) > 0 {
		conds = append(conds, fmt.Sprintf(`weather->>'condition' = ANY(%s)`, arg(f.Weather)))
	}

	sql := `SELECT ` + pinColumns + `
		FROM pins
		WHERE ` + strings.Join(conds, "\n		  AND ") + `
		ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collectPins(rows)
}

// ListByOwner returns all of a user's pins regardless of status,
// except deleted ones, newest first.
func (r *PinRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Pin, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+pinColumns+`
		 FROM pins
		 WHERE owner_id = $1 AND status <> 'deleted'
		 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	return collectPins(rows)
}
