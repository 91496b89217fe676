package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stanstork/rapidaid-api/internal/models"
)

type DonationRepository interface {
	CreateDonation(ctx context.Context, donation *models.Donation) error
	GetDonation(ctx context.Context, id string) (models.Donation, error)
	ListDonations(ctx context.Context, filter models.DonationFilter) ([]models.Donation, error)
	UpdateDonation(ctx context.Context, donation models.Donation) error
	// DeliverDonation saves donation and, unless it was already delivered,
	// merges its resources into the base camp inventory in the same
	// transaction. It reports whether the merge happened.
	DeliverDonation(ctx context.Context, donation models.Donation) (bool, error)
	DeleteDonation(ctx context.Context, id string) error
}

type donationRepository struct {
	db *sqlx.DB
}

func NewDonationRepository(db *sqlx.DB) DonationRepository {
	return &donationRepository{db: db}
}

type donationRow struct {
	ID            string          `db:"id"`
	DonorID       string          `db:"donor_id"`
	DonorName     *string         `db:"donor_name"`
	DonorRole     *string         `db:"donor_role"`
	DonationType  string          `db:"donation_type"`
	Amount        sql.NullFloat64 `db:"amount"`
	PaymentID     string          `db:"payment_id"`
	Resources     donatedList     `db:"resources"`
	BaseCampID    string          `db:"base_camp_id"`
	Status        string          `db:"status"`
	ScheduledDate time.Time       `db:"scheduled_date"`
	DeliveredDate *time.Time      `db:"delivered_date"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (r donationRow) toModel() models.Donation {
	d := models.Donation{
		ID:            r.ID,
		Donor:         userRef(r.DonorID, r.DonorName, r.DonorRole),
		DonationType:  models.DonationType(r.DonationType),
		PaymentID:     r.PaymentID,
		Resources:     []models.DonatedResource(r.Resources),
		BaseCampID:    r.BaseCampID,
		Status:        models.DonationStatus(r.Status),
		ScheduledDate: r.ScheduledDate,
		DeliveredDate: r.DeliveredDate,
		CreatedAt:     r.CreatedAt,
	}
	if r.Amount.Valid {
		amount := r.Amount.Float64
		d.Amount = &amount
	}
	if d.Resources == nil {
		d.Resources = []models.DonatedResource{}
	}
	return d
}

const selectDonations = `
	SELECT d.id, d.donor_id, u.name AS donor_name, u.role AS donor_role, d.donation_type, d.amount,
	       d.payment_id, d.resources, d.base_camp_id, d.status, d.scheduled_date, d.delivered_date,
	       d.created_at
	FROM donations d
	LEFT JOIN users u ON u.id = d.donor_id`

func (r *donationRepository) CreateDonation(ctx context.Context, donation *models.Donation) error {
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}
	if donation.CreatedAt.IsZero() {
		donation.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO donations (id, donor_id, donation_type, amount, payment_id, resources,
		                       base_camp_id, status, scheduled_date, delivered_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.ExecContext(ctx, query,
		donation.ID,
		donation.Donor.ID,
		string(donation.DonationType),
		donation.Amount,
		donation.PaymentID,
		donatedList(donation.Resources),
		donation.BaseCampID,
		string(donation.Status),
		donation.ScheduledDate,
		donation.DeliveredDate,
		donation.CreatedAt,
	)
	return mapError(err, "Donation", "create donation")
}

func (r *donationRepository) GetDonation(ctx context.Context, id string) (models.Donation, error) {
	var row donationRow
	if err := r.db.GetContext(ctx, &row, selectDonations+` WHERE d.id = $1`, id); err != nil {
		return models.Donation{}, mapError(err, "Donation", "get donation")
	}
	return row.toModel(), nil
}

func (r *donationRepository) ListDonations(ctx context.Context, filter models.DonationFilter) ([]models.Donation, error) {
	var c conditions
	if filter.DonorID != "" {
		c.add("d.donor_id = $%d", filter.DonorID)
	}
	if filter.BaseCampID != "" {
		c.add("d.base_camp_id = $%d", filter.BaseCampID)
	}
	if filter.Status != "" {
		c.add("d.status = $%d", string(filter.Status))
	}

	var rows []donationRow
	query := selectDonations + c.where() + ` ORDER BY d.created_at DESC`
	if err := r.db.SelectContext(ctx, &rows, query, c.args...); err != nil {
		return nil, mapError(err, "Donation", "list donations")
	}
	donations := make([]models.Donation, 0, len(rows))
	for _, row := range rows {
		donations = append(donations, row.toModel())
	}
	return donations, nil
}

const updateDonationQuery = `
	UPDATE donations
	SET donation_type = $2, amount = $3, payment_id = $4, resources = $5, status = $6,
	    scheduled_date = $7, delivered_date = COALESCE(delivered_date, $8)
	WHERE id = $1`

func updateDonationArgs(d models.Donation) []interface{} {
	return []interface{}{
		d.ID,
		string(d.DonationType),
		d.Amount,
		d.PaymentID,
		donatedList(d.Resources),
		string(d.Status),
		d.ScheduledDate,
		d.DeliveredDate,
	}
}

func (r *donationRepository) UpdateDonation(ctx context.Context, donation models.Donation) error {
	res, err := r.db.ExecContext(ctx, updateDonationQuery, updateDonationArgs(donation)...)
	if err != nil {
		return mapError(err, "Donation", "update donation")
	}
	return rowsAffected(res, "Donation", "update donation")
}

func (r *donationRepository) DeliverDonation(ctx context.Context, donation models.Donation) (merged bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, mapError(err, "Donation", "begin delivery")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Wrap(err, rbErr.Error())
			}
		}
	}()

	// The row lock serializes concurrent deliveries of the same donation.
	var deliveredAt sql.NullTime
	err = tx.GetContext(ctx, &deliveredAt, `SELECT delivered_date FROM donations WHERE id = $1 FOR UPDATE`, donation.ID)
	if err != nil {
		return false, mapError(err, "Donation", "lock donation")
	}

	res, err := tx.ExecContext(ctx, updateDonationQuery, updateDonationArgs(donation)...)
	if err != nil {
		return false, mapError(err, "Donation", "update donation")
	}
	if err = rowsAffected(res, "Donation", "update donation"); err != nil {
		return false, err
	}

	if !deliveredAt.Valid {
		var inventory resourceList
		err = tx.GetContext(ctx, &inventory, `SELECT resources FROM base_camps WHERE id = $1 FOR UPDATE`, donation.BaseCampID)
		if err != nil {
			return false, mapError(err, "Base camp", "lock base camp inventory")
		}
		next := models.MergeDonation(inventory, donation.Resources, uuid.NewString)
		if _, err = tx.ExecContext(ctx, `UPDATE base_camps SET resources = $2 WHERE id = $1`, donation.BaseCampID, resourceList(next)); err != nil {
			return false, mapError(err, "Base camp", "update base camp inventory")
		}
	}

	if err = tx.Commit(); err != nil {
		return false, mapError(err, "Donation", "commit delivery")
	}
	return !deliveredAt.Valid, nil
}

func (r *donationRepository) DeleteDonation(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM donations WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "Donation", "delete donation")
	}
	return rowsAffected(res, "Donation", "delete donation")
}
