package repository

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	appErr "github.com/stanstork/rapidaid-api/internal/errors"
	"github.com/stanstork/rapidaid-api/internal/models"
)

// Postgres error codes handled explicitly.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqInvalidText         = "22P02"
	pqCheckViolation      = "23514"
)

const metersPerKm = 1000.0

// mapError converts a driver error into the application error taxonomy.
// entity names the record in user-facing messages; op describes the failed
// operation for the wrapped persistence error.
func mapError(err error, entity, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErr.NewNotFound("%s not found", entity)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return appErr.NewConflict("%s already exists", entity)
		case pqInvalidText:
			// Malformed ids can never match a row.
			return appErr.NewNotFound("%s not found", entity)
		case pqForeignKeyViolation:
			return appErr.NewValidation("Referenced record does not exist", map[string]string{
				constraintField(pqErr.Constraint): "referenced record does not exist",
			})
		case pqCheckViolation:
			return appErr.NewValidation("Record violates a storage constraint", map[string]string{
				constraintField(pqErr.Constraint): pqErr.Message,
			})
		}
	}
	return appErr.NewPersistence(errors.Wrapf(err, "failed to %s", op), fmt.Sprintf("could not %s", op))
}

// constraintField turns "alerts_created_by_fkey" into "created_by".
func constraintField(constraint string) string {
	if constraint == "" {
		return "record"
	}
	parts := strings.SplitN(constraint, "_", 2)
	if len(parts) == 2 {
		constraint = parts[1]
	}
	for _, suffix := range []string{"_fkey", "_check", "_key"} {
		constraint = strings.TrimSuffix(constraint, suffix)
	}
	return constraint
}

// rowsAffected returns NotFound when res touched nothing.
func rowsAffected(res sql.Result, entity, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err, entity, op)
	}
	if n == 0 {
		return appErr.NewNotFound("%s not found", entity)
	}
	return nil
}

// conditions accumulates WHERE clauses with positional arguments.
type conditions struct {
	clauses []string
	args    []interface{}
}

func (c *conditions) add(clause string, arg interface{}) {
	c.args = append(c.args, arg)
	c.clauses = append(c.clauses, fmt.Sprintf(clause, len(c.args)))
}

// addRadius constrains (latCol, lngCol) to the circle around center. The box
// test lets postgres use the gist index before the exact distance check. The
// returned expression is the distance from center, for ordering.
func (c *conditions) addRadius(latCol, lngCol string, center models.Location, radiusKm float64) string {
	c.args = append(c.args, center.Latitude(), center.Longitude(), radiusKm*metersPerKm)
	lat, lng, m := len(c.args)-2, len(c.args)-1, len(c.args)
	point := fmt.Sprintf("ll_to_earth(%s, %s)", latCol, lngCol)
	origin := fmt.Sprintf("ll_to_earth($%d, $%d)", lat, lng)
	c.clauses = append(c.clauses,
		fmt.Sprintf("earth_box(%s, $%d) @> %s", origin, m, point),
		fmt.Sprintf("earth_distance(%s, %s) <= $%d", origin, point, m),
	)
	return fmt.Sprintf("earth_distance(%s, %s)", origin, point)
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(c.clauses, " AND ")
}

// resourceList stores base camp inventory as JSONB.
type resourceList []models.Resource

func (r resourceList) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]models.Resource(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *resourceList) Scan(src interface{}) error {
	return scanJSON(src, (*[]models.Resource)(r))
}

// donatedList stores donated goods as JSONB.
type donatedList []models.DonatedResource

func (d donatedList) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]models.DonatedResource(d))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (d *donatedList) Scan(src interface{}) error {
	return scanJSON(src, (*[]models.DonatedResource)(d))
}

func scanJSON(src interface{}, dst interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
	return json.Unmarshal(data, dst)
}
