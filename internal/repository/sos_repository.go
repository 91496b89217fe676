package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stanstork/rapidaid-api/internal/models"
)

type SOSRepository interface {
	CreateSOS(ctx context.Context, sos *models.SOSRequest) error
	GetSOS(ctx context.Context, id string) (models.SOSRequest, error)
	ListSOS(ctx context.Context, filter models.SOSFilter) ([]models.SOSRequest, error)
	UpdateSOS(ctx context.Context, sos models.SOSRequest) error
	DeleteSOS(ctx context.Context, id string) error
	FindSOSWithinRadius(ctx context.Context, center models.Location, radiusKm float64, status models.SOSStatus) ([]models.SOSRequest, error)
}

type sosRepository struct {
	db *sqlx.DB
}

func NewSOSRepository(db *sqlx.DB) SOSRepository {
	return &sosRepository{db: db}
}

type sosRow struct {
	ID           string     `db:"id"`
	UserID       string     `db:"user_id"`
	UserName     *string    `db:"user_name"`
	UserRole     *string    `db:"user_role"`
	Emergency    string     `db:"emergency"`
	Description  string     `db:"description"`
	Longitude    float64    `db:"longitude"`
	Latitude     float64    `db:"latitude"`
	Address      string     `db:"address"`
	Status       string     `db:"status"`
	AssignedTo   *string    `db:"assigned_to"`
	AssigneeName *string    `db:"assignee_name"`
	AssigneeRole *string    `db:"assignee_role"`
	CreatedAt    time.Time  `db:"created_at"`
	ResolvedAt   *time.Time `db:"resolved_at"`
}

func (r sosRow) toModel() models.SOSRequest {
	sos := models.SOSRequest{
		ID:          r.ID,
		User:        userRef(r.UserID, r.UserName, r.UserRole),
		Emergency:   models.EmergencyType(r.Emergency),
		Description: r.Description,
		Location:    models.NewPoint(r.Longitude, r.Latitude, r.Address),
		Status:      models.SOSStatus(r.Status),
		CreatedAt:   r.CreatedAt,
		ResolvedAt:  r.ResolvedAt,
	}
	if r.AssignedTo != nil {
		assignee := userRef(*r.AssignedTo, r.AssigneeName, r.AssigneeRole)
		sos.AssignedTo = &assignee
	}
	return sos
}

func userRef(id string, name, role *string) models.UserRef {
	ref := models.UserRef{ID: id}
	if name != nil {
		ref.Name = *name
	}
	if role != nil {
		ref.Role = models.UserRole(*role)
	}
	return ref
}

const selectSOS = `
	SELECT s.id, s.user_id, u.name AS user_name, u.role AS user_role, s.emergency, s.description,
	       s.longitude, s.latitude, s.address, s.status, s.assigned_to,
	       a.name AS assignee_name, a.role AS assignee_role, s.created_at, s.resolved_at
	FROM sos_requests s
	LEFT JOIN users u ON u.id = s.user_id
	LEFT JOIN users a ON a.id = s.assigned_to`

func (r *sosRepository) CreateSOS(ctx context.Context, sos *models.SOSRequest) error {
	if sos.ID == "" {
		sos.ID = uuid.NewString()
	}
	if sos.CreatedAt.IsZero() {
		sos.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO sos_requests (id, user_id, emergency, description, longitude, latitude, address,
		                          status, assigned_to, created_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query,
		sos.ID,
		sos.User.ID,
		string(sos.Emergency),
		sos.Description,
		sos.Location.Longitude(),
		sos.Location.Latitude(),
		sos.Location.Address,
		string(sos.Status),
		assigneeID(sos.AssignedTo),
		sos.CreatedAt,
		sos.ResolvedAt,
	)
	return mapError(err, "SOS request", "create SOS request")
}

func (r *sosRepository) GetSOS(ctx context.Context, id string) (models.SOSRequest, error) {
	var row sosRow
	if err := r.db.GetContext(ctx, &row, selectSOS+` WHERE s.id = $1`, id); err != nil {
		return models.SOSRequest{}, mapError(err, "SOS request", "get SOS request")
	}
	return row.toModel(), nil
}

func (r *sosRepository) ListSOS(ctx context.Context, filter models.SOSFilter) ([]models.SOSRequest, error) {
	var c conditions
	if filter.UserID != "" {
		c.add("s.user_id = $%d", filter.UserID)
	}
	if filter.Status != "" {
		c.add("s.status = $%d", string(filter.Status))
	}
	return r.selectMany(ctx, selectSOS+c.where()+` ORDER BY s.created_at DESC`, c.args, "list SOS requests")
}

func (r *sosRepository) UpdateSOS(ctx context.Context, sos models.SOSRequest) error {
	const query = `
		UPDATE sos_requests
		SET emergency = $2, description = $3, longitude = $4, latitude = $5, address = $6,
		    status = $7, assigned_to = $8, resolved_at = COALESCE(resolved_at, $9)
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		sos.ID,
		string(sos.Emergency),
		sos.Description,
		sos.Location.Longitude(),
		sos.Location.Latitude(),
		sos.Location.Address,
		string(sos.Status),
		assigneeID(sos.AssignedTo),
		sos.ResolvedAt,
	)
	if err != nil {
		return mapError(err, "SOS request", "update SOS request")
	}
	return rowsAffected(res, "SOS request", "update SOS request")
}

func (r *sosRepository) DeleteSOS(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sos_requests WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "SOS request", "delete SOS request")
	}
	return rowsAffected(res, "SOS request", "delete SOS request")
}

func (r *sosRepository) FindSOSWithinRadius(ctx context.Context, center models.Location, radiusKm float64, status models.SOSStatus) ([]models.SOSRequest, error) {
	var c conditions
	distance := c.addRadius("s.latitude", "s.longitude", center, radiusKm)
	if status != "" {
		c.add("s.status = $%d", string(status))
	}
	return r.selectMany(ctx, selectSOS+c.where()+` ORDER BY `+distance, c.args, "find SOS requests within radius")
}

func (r *sosRepository) selectMany(ctx context.Context, query string, args []interface{}, op string) ([]models.SOSRequest, error) {
	var rows []sosRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err, "SOS request", op)
	}
	requests := make([]models.SOSRequest, 0, len(rows))
	for _, row := range rows {
		requests = append(requests, row.toModel())
	}
	return requests, nil
}

func assigneeID(ref *models.UserRef) *string {
	if ref == nil || ref.ID == "" {
		return nil
	}
	return &ref.ID
}
