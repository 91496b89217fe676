package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stanstork/rapidaid-api/internal/models"
)

type AlertRepository interface {
	CreateAlert(ctx context.Context, alert *models.Alert) error
	GetAlert(ctx context.Context, id string) (models.Alert, error)
	ListAlerts(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error)
	UpdateAlert(ctx context.Context, alert models.Alert) error
	DeleteAlert(ctx context.Context, id string) error
	// FindAlertsWithinRadius lists alerts with the given status whose point lies
	// within radiusKm of center, nearest first.
	FindAlertsWithinRadius(ctx context.Context, center models.Location, radiusKm float64, status models.AlertStatus) ([]models.Alert, error)
}

type alertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) AlertRepository {
	return &alertRepository{db: db}
}

type alertRow struct {
	ID            string     `db:"id"`
	Title         string     `db:"title"`
	Description   string     `db:"description"`
	Area          string     `db:"area"`
	Severity      string     `db:"severity"`
	Status        string     `db:"status"`
	CreatedBy     string     `db:"created_by"`
	CreatorName   *string    `db:"creator_name"`
	CreatorRole   *string    `db:"creator_role"`
	AffectedUsers int        `db:"affected_users"`
	Longitude     float64    `db:"longitude"`
	Latitude      float64    `db:"latitude"`
	Address       string     `db:"address"`
	CreatedAt     time.Time  `db:"created_at"`
	ResolvedAt    *time.Time `db:"resolved_at"`
}

func (r alertRow) toModel() models.Alert {
	return models.Alert{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Area:          r.Area,
		Severity:      models.AlertSeverity(r.Severity),
		Status:        models.AlertStatus(r.Status),
		CreatedBy:     userRef(r.CreatedBy, r.CreatorName, r.CreatorRole),
		AffectedUsers: r.AffectedUsers,
		CreatedAt:     r.CreatedAt,
		ResolvedAt:    r.ResolvedAt,
		Location:      models.NewPoint(r.Longitude, r.Latitude, r.Address),
	}
}

const selectAlerts = `
	SELECT a.id, a.title, a.description, a.area, a.severity, a.status, a.created_by,
	       u.name AS creator_name, u.role AS creator_role, a.affected_users,
	       a.longitude, a.latitude, a.address, a.created_at, a.resolved_at
	FROM alerts a
	LEFT JOIN users u ON u.id = a.created_by`

func (r *alertRepository) CreateAlert(ctx context.Context, alert *models.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO alerts (id, title, description, area, severity, status, created_by,
		                    affected_users, longitude, latitude, address, created_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.db.ExecContext(ctx, query,
		alert.ID,
		alert.Title,
		alert.Description,
		alert.Area,
		string(alert.Severity),
		string(alert.Status),
		alert.CreatedBy.ID,
		alert.AffectedUsers,
		alert.Location.Longitude(),
		alert.Location.Latitude(),
		alert.Location.Address,
		alert.CreatedAt,
		alert.ResolvedAt,
	)
	return mapError(err, "Alert", "create alert")
}

func (r *alertRepository) GetAlert(ctx context.Context, id string) (models.Alert, error) {
	var row alertRow
	if err := r.db.GetContext(ctx, &row, selectAlerts+` WHERE a.id = $1`, id); err != nil {
		return models.Alert{}, mapError(err, "Alert", "get alert")
	}
	return row.toModel(), nil
}

func (r *alertRepository) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error) {
	var c conditions
	if filter.Status != "" {
		c.add("a.status = $%d", string(filter.Status))
	}
	if filter.Severity != "" {
		c.add("a.severity = $%d", string(filter.Severity))
	}
	return r.selectMany(ctx, selectAlerts+c.where()+` ORDER BY a.created_at DESC`, c.args, "list alerts")
}

func (r *alertRepository) UpdateAlert(ctx context.Context, alert models.Alert) error {
	const query = `
		UPDATE alerts
		SET title = $2, description = $3, area = $4, severity = $5, status = $6,
		    affected_users = $7, longitude = $8, latitude = $9, address = $10, resolved_at = COALESCE(resolved_at, $11)
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		alert.ID,
		alert.Title,
		alert.Description,
		alert.Area,
		string(alert.Severity),
		string(alert.Status),
		alert.AffectedUsers,
		alert.Location.Longitude(),
		alert.Location.Latitude(),
		alert.Location.Address,
		alert.ResolvedAt,
	)
	if err != nil {
		return mapError(err, "Alert", "update alert")
	}
	return rowsAffected(res, "Alert", "update alert")
}

func (r *alertRepository) DeleteAlert(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alerts WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "Alert", "delete alert")
	}
	return rowsAffected(res, "Alert", "delete alert")
}

func (r *alertRepository) FindAlertsWithinRadius(ctx context.Context, center models.Location, radiusKm float64, status models.AlertStatus) ([]models.Alert, error) {
	var c conditions
	distance := c.addRadius("a.latitude", "a.longitude", center, radiusKm)
	if status != "" {
		c.add("a.status = $%d", string(status))
	}
	query := selectAlerts + c.where() + ` ORDER BY ` + distance
	return r.selectMany(ctx, query, c.args, "find alerts within radius")
}

func (r *alertRepository) selectMany(ctx context.Context, query string, args []interface{}, op string) ([]models.Alert, error) {
	var rows []alertRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err, "Alert", op)
	}
	alerts := make([]models.Alert, 0, len(rows))
	for _, row := range rows {
		alerts = append(alerts, row.toModel())
	}
	return alerts, nil
}
