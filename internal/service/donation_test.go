package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stanstork/rapidaid-api/internal/authz"
	appErr "github.com/stanstork/rapidaid-api/internal/errors"
	"github.com/stanstork/rapidaid-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestDonationService(donations *mockDonationRepo, camps *mockBaseCampRepo) *DonationService {
	svc := NewDonationService(donations, camps, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func storedDonation(status models.DonationStatus) models.Donation {
	return models.Donation{
		ID:            "donation-1",
		Donor:         models.UserRef{ID: "donor-1", Role: models.RoleDonor},
		DonationType:  models.DonationResource,
		Resources:     []models.DonatedResource{{Name: "Water", Quantity: 50, Unit: "litres"}},
		BaseCampID:    "camp-1",
		Status:        status,
		ScheduledDate: fixedNow.Add(24 * time.Hour),
		CreatedAt:     fixedNow.Add(-time.Hour),
	}
}

func TestDonationService_Create(t *testing.T) {
	scheduled := fixedNow.Add(48 * time.Hour)
	input := DonationInput{
		Resources:     []models.DonatedResource{{Name: "Rice", Quantity: 20, Unit: "kg"}},
		BaseCampID:    "camp-1",
		ScheduledDate: &scheduled,
	}

	t.Run("defaults to a pending resource donation", func(t *testing.T) {
		donations, camps := new(mockDonationRepo), new(mockBaseCampRepo)
		camps.On("GetBaseCamp", mock.Anything, "camp-1").Return(models.BaseCamp{ID: "camp-1"}, nil)
		donations.On("CreateDonation", mock.Anything, mock.AnythingOfType("*models.Donation")).Return(nil)

		d, err := newTestDonationService(donations, camps).Create(context.Background(), input, donor)

		require.NoError(t, err)
		assert.Equal(t, "donation-1", d.ID)
		assert.Equal(t, models.DonationResource, d.DonationType)
		assert.Equal(t, models.DonationPending, d.Status)
		assert.Equal(t, "donor-1", d.Donor.ID)
		assert.Nil(t, d.DeliveredDate)
		donations.AssertExpectations(t)
	})

	t.Run("unknown camp", func(t *testing.T) {
		donations, camps := new(mockDonationRepo), new(mockBaseCampRepo)
		camps.On("GetBaseCamp", mock.Anything, "camp-1").Return(models.BaseCamp{}, appErr.NewNotFound("Base camp not found"))

		_, err := newTestDonationService(donations, camps).Create(context.Background(), input, donor)

		assert.True(t, appErr.IsNotFound(err))
		donations.AssertNotCalled(t, "CreateDonation", mock.Anything, mock.Anything)
	})

	t.Run("cash donation needs amount and payment id", func(t *testing.T) {
		_, err := newTestDonationService(new(mockDonationRepo), new(mockBaseCampRepo)).Create(context.Background(), DonationInput{
			DonationType:  models.DonationCash,
			BaseCampID:    "camp-1",
			ScheduledDate: &scheduled,
		}, donor)

		v, ok := appErr.AsValidation(err)
		require.True(t, ok)
		assert.Equal(t, []string{"amount", "paymentId"}, v.Fields)
	})
}

func TestDonationService_DeliveryMergesInventoryOnce(t *testing.T) {
	donations := new(mockDonationRepo)
	donations.On("GetDonation", mock.Anything, "donation-1").Return(storedDonation(models.DonationInTransit), nil).Once()
	donations.On("DeliverDonation", mock.Anything, mock.MatchedBy(func(d models.Donation) bool {
		return d.Status == models.DonationDelivered && d.DeliveredDate != nil && d.DeliveredDate.Equal(fixedNow)
	})).Return(true, nil).Once()
	svc := newTestDonationService(donations, new(mockBaseCampRepo))

	delivered := models.DonationDelivered
	d, err := svc.Update(context.Background(), "donation-1", DonationPatch{Status: &delivered}, responder)
	require.NoError(t, err)
	require.NotNil(t, d.DeliveredDate)

	// Saving the delivered donation again must not merge the goods twice.
	donations.On("GetDonation", mock.Anything, "donation-1").Return(d, nil)
	donations.On("UpdateDonation", mock.Anything, mock.Anything).Return(nil)
	again, err := svc.Update(context.Background(), "donation-1", DonationPatch{Status: &delivered}, responder)

	require.NoError(t, err)
	assert.Equal(t, fixedNow, *again.DeliveredDate)
	donations.AssertNumberOfCalls(t, "DeliverDonation", 1)
	donations.AssertNumberOfCalls(t, "UpdateDonation", 1)
}

func TestDonationService_DeliveryLostToConcurrentRequest(t *testing.T) {
	earlier := fixedNow.Add(-time.Minute)
	stored := storedDonation(models.DonationDelivered)
	stored.DeliveredDate = &earlier

	donations := new(mockDonationRepo)
	donations.On("GetDonation", mock.Anything, "donation-1").Return(storedDonation(models.DonationInTransit), nil).Once()
	donations.On("DeliverDonation", mock.Anything, mock.Anything).Return(false, nil).Once()
	donations.On("GetDonation", mock.Anything, "donation-1").Return(stored, nil).Once()
	svc := newTestDonationService(donations, new(mockBaseCampRepo))

	delivered := models.DonationDelivered
	d, err := svc.Update(context.Background(), "donation-1", DonationPatch{Status: &delivered}, responder)

	require.NoError(t, err)
	assert.Equal(t, earlier, *d.DeliveredDate)
	donations.AssertExpectations(t)
}

func TestDonationService_UpdateForbidsOtherDonors(t *testing.T) {
	donations := new(mockDonationRepo)
	donations.On("GetDonation", mock.Anything, "donation-1").Return(storedDonation(models.DonationPending), nil)

	status := models.DonationCancelled
	_, err := newTestDonationService(donations, new(mockBaseCampRepo)).
		Update(context.Background(), "donation-1", DonationPatch{Status: &status}, otherDonor)

	assert.ErrorIs(t, err, appErr.ErrForbidden)
}

func TestDonationService_Delete(t *testing.T) {
	tests := []struct {
		name     string
		status   models.DonationStatus
		identity *authz.Identity
		allowed  bool
	}{
		{name: "donor while pending", status: models.DonationPending, identity: donor, allowed: true},
		{name: "donor after dispatch", status: models.DonationInTransit, identity: donor},
		{name: "other donor", status: models.DonationPending, identity: otherDonor},
		{name: "responder", status: models.DonationPending, identity: responder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			donations := new(mockDonationRepo)
			donations.On("GetDonation", mock.Anything, "donation-1").Return(storedDonation(tt.status), nil)
			donations.On("DeleteDonation", mock.Anything, "donation-1").Return(nil)

			err := newTestDonationService(donations, new(mockBaseCampRepo)).Delete(context.Background(), "donation-1", tt.identity)

			if tt.allowed {
				assert.NoError(t, err)
				donations.AssertCalled(t, "DeleteDonation", mock.Anything, "donation-1")
				return
			}
			assert.ErrorIs(t, err, appErr.ErrForbidden)
			donations.AssertNotCalled(t, "DeleteDonation", mock.Anything, mock.Anything)
		})
	}
}

func TestDonationService_ListScopesDonors(t *testing.T) {
	donations := new(mockDonationRepo)
	donations.On("ListDonations", mock.Anything, models.DonationFilter{DonorID: "donor-1", BaseCampID: "camp-1"}).
		Return([]models.Donation{}, nil)

	_, err := newTestDonationService(donations, new(mockBaseCampRepo)).
		List(context.Background(), models.DonationFilter{DonorID: "someone-else", BaseCampID: "camp-1"}, donor)

	require.NoError(t, err)
	donations.AssertExpectations(t)
}
