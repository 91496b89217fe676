package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stanstork/rapidaid-api/internal/models"
)

type BaseCampRepository interface {
	CreateBaseCamp(ctx context.Context, camp *models.BaseCamp) error
	GetBaseCamp(ctx context.Context, id string) (models.BaseCamp, error)
	ListBaseCamps(ctx context.Context) ([]models.BaseCamp, error)
	UpdateBaseCamp(ctx context.Context, camp models.BaseCamp) error
	DeleteBaseCamp(ctx context.Context, id string) error
	FindBaseCampsWithinRadius(ctx context.Context, center models.Location, radiusKm float64) ([]models.BaseCamp, error)
}

type baseCampRepository struct {
	db *sqlx.DB
}

func NewBaseCampRepository(db *sqlx.DB) BaseCampRepository {
	return &baseCampRepository{db: db}
}

type baseCampRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	Longitude  float64        `db:"longitude"`
	Latitude   float64        `db:"latitude"`
	Address    string         `db:"address"`
	Capacity   int            `db:"capacity"`
	Occupancy  int            `db:"occupancy"`
	Resources  resourceList   `db:"resources"`
	Volunteers pq.StringArray `db:"volunteers"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r baseCampRow) toModel() models.BaseCamp {
	camp := models.BaseCamp{
		ID:         r.ID,
		Name:       r.Name,
		Location:   models.NewPoint(r.Longitude, r.Latitude, r.Address),
		Capacity:   r.Capacity,
		Occupancy:  r.Occupancy,
		Resources:  []models.Resource(r.Resources),
		Volunteers: []string(r.Volunteers),
		CreatedAt:  r.CreatedAt,
	}
	if camp.Resources == nil {
		camp.Resources = []models.Resource{}
	}
	if camp.Volunteers == nil {
		camp.Volunteers = []string{}
	}
	return camp
}

const selectBaseCamps = `
	SELECT id, name, longitude, latitude, address, capacity, occupancy, resources,
	       volunteers::text[] AS volunteers, created_at
	FROM base_camps`

func (r *baseCampRepository) CreateBaseCamp(ctx context.Context, camp *models.BaseCamp) error {
	if camp.ID == "" {
		camp.ID = uuid.NewString()
	}
	if camp.CreatedAt.IsZero() {
		camp.CreatedAt = time.Now().UTC()
	}
	for i := range camp.Resources {
		if camp.Resources[i].ID == "" {
			camp.Resources[i].ID = uuid.NewString()
		}
	}

	const query = `
		INSERT INTO base_camps (id, name, longitude, latitude, address, capacity, occupancy,
		                        resources, volunteers, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query,
		camp.ID,
		camp.Name,
		camp.Location.Longitude(),
		camp.Location.Latitude(),
		camp.Location.Address,
		camp.Capacity,
		camp.Occupancy,
		resourceList(camp.Resources),
		pq.Array(volunteerIDs(camp.Volunteers)),
		camp.CreatedAt,
	)
	return mapError(err, "Base camp", "create base camp")
}

func (r *baseCampRepository) GetBaseCamp(ctx context.Context, id string) (models.BaseCamp, error) {
	var row baseCampRow
	if err := r.db.GetContext(ctx, &row, selectBaseCamps+` WHERE id = $1`, id); err != nil {
		return models.BaseCamp{}, mapError(err, "Base camp", "get base camp")
	}
	return row.toModel(), nil
}

func (r *baseCampRepository) ListBaseCamps(ctx context.Context) ([]models.BaseCamp, error) {
	return r.selectMany(ctx, selectBaseCamps+` ORDER BY name`, nil, "list base camps")
}

func (r *baseCampRepository) UpdateBaseCamp(ctx context.Context, camp models.BaseCamp) error {
	const query = `
		UPDATE base_camps
		SET name = $2, longitude = $3, latitude = $4, address = $5, capacity = $6,
		    occupancy = $7, resources = $8, volunteers = $9
		WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		camp.ID,
		camp.Name,
		camp.Location.Longitude(),
		camp.Location.Latitude(),
		camp.Location.Address,
		camp.Capacity,
		camp.Occupancy,
		resourceList(camp.Resources),
		pq.Array(volunteerIDs(camp.Volunteers)),
	)
	if err != nil {
		return mapError(err, "Base camp", "update base camp")
	}
	return rowsAffected(res, "Base camp", "update base camp")
}

func (r *baseCampRepository) DeleteBaseCamp(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM base_camps WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "Base camp", "delete base camp")
	}
	return rowsAffected(res, "Base camp", "delete base camp")
}

func (r *baseCampRepository) FindBaseCampsWithinRadius(ctx context.Context, center models.Location, radiusKm float64) ([]models.BaseCamp, error) {
	var c conditions
	distance := c.addRadius("latitude", "longitude", center, radiusKm)
	return r.selectMany(ctx, selectBaseCamps+c.where()+` ORDER BY `+distance, c.args, "find base camps within radius")
}

func (r *baseCampRepository) selectMany(ctx context.Context, query string, args []interface{}, op string) ([]models.BaseCamp, error) {
	var rows []baseCampRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, mapError(err, "Base camp", op)
	}
	camps := make([]models.BaseCamp, 0, len(rows))
	for _, row := range rows {
		camps = append(camps, row.toModel())
	}
	return camps, nil
}

func volunteerIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
