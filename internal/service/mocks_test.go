package service

import (
	"context"

	"github.com/stanstork/rapidaid-api/internal/models"
	"github.com/stretchr/testify/mock"
)

type mockAlertRepo struct{ mock.Mock }

func (m *mockAlertRepo) CreateAlert(ctx context.Context, alert *models.Alert) error {
	args := m.Called(ctx, alert)
	if args.Error(0) == nil {
		alert.ID = "alert-1"
	}
	return args.Error(0)
}

func (m *mockAlertRepo) GetAlert(ctx context.Context, id string) (models.Alert, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Alert), args.Error(1)
}

func (m *mockAlertRepo) ListAlerts(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Alert), args.Error(1)
}

func (m *mockAlertRepo) UpdateAlert(ctx context.Context, alert models.Alert) error {
	return m.Called(ctx, alert).Error(0)
}

func (m *mockAlertRepo) DeleteAlert(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockAlertRepo) FindAlertsWithinRadius(ctx context.Context, center models.Location, radiusKm float64, status models.AlertStatus) ([]models.Alert, error) {
	args := m.Called(ctx, center, radiusKm, status)
	return args.Get(0).([]models.Alert), args.Error(1)
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(ctx context.Context, name, email, password string, role models.UserRole) (models.User, error) {
	args := m.Called(ctx, name, email, password, role)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserRepo) AuthenticateUser(ctx context.Context, email, password string) (models.User, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.User), args.Error(1)
}

func (m *mockUserRepo) FindAnyByRole(ctx context.Context, role models.UserRole) (models.User, error) {
	args := m.Called(ctx, role)
	return args.Get(0).(models.User), args.Error(1)
}

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) DispatchAlert(ctx context.Context, alert models.Alert) models.NotificationResults {
	return m.Called(ctx, alert).Get(0).(models.NotificationResults)
}

func (m *mockDispatcher) TestChannels(ctx context.Context) map[models.NotificationChannel]models.ChannelCheck {
	return m.Called(ctx).Get(0).(map[models.NotificationChannel]models.ChannelCheck)
}

type mockSOSRepo struct{ mock.Mock }

func (m *mockSOSRepo) CreateSOS(ctx context.Context, sos *models.SOSRequest) error {
	args := m.Called(ctx, sos)
	if args.Error(0) == nil {
		sos.ID = "sos-1"
	}
	return args.Error(0)
}

func (m *mockSOSRepo) GetSOS(ctx context.Context, id string) (models.SOSRequest, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.SOSRequest), args.Error(1)
}

func (m *mockSOSRepo) ListSOS(ctx context.Context, filter models.SOSFilter) ([]models.SOSRequest, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.SOSRequest), args.Error(1)
}

func (m *mockSOSRepo) UpdateSOS(ctx context.Context, sos models.SOSRequest) error {
	return m.Called(ctx, sos).Error(0)
}

func (m *mockSOSRepo) DeleteSOS(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSOSRepo) FindSOSWithinRadius(ctx context.Context, center models.Location, radiusKm float64, status models.SOSStatus) ([]models.SOSRequest, error) {
	args := m.Called(ctx, center, radiusKm, status)
	return args.Get(0).([]models.SOSRequest), args.Error(1)
}

type mockBaseCampRepo struct{ mock.Mock }

func (m *mockBaseCampRepo) CreateBaseCamp(ctx context.Context, camp *models.BaseCamp) error {
	args := m.Called(ctx, camp)
	if args.Error(0) == nil {
		camp.ID = "camp-1"
	}
	return args.Error(0)
}

func (m *mockBaseCampRepo) GetBaseCamp(ctx context.Context, id string) (models.BaseCamp, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.BaseCamp), args.Error(1)
}

func (m *mockBaseCampRepo) ListBaseCamps(ctx context.Context) ([]models.BaseCamp, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.BaseCamp), args.Error(1)
}

func (m *mockBaseCampRepo) UpdateBaseCamp(ctx context.Context, camp models.BaseCamp) error {
	return m.Called(ctx, camp).Error(0)
}

func (m *mockBaseCampRepo) DeleteBaseCamp(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockBaseCampRepo) FindBaseCampsWithinRadius(ctx context.Context, center models.Location, radiusKm float64) ([]models.BaseCamp, error) {
	args := m.Called(ctx, center, radiusKm)
	return args.Get(0).([]models.BaseCamp), args.Error(1)
}

type mockDonationRepo struct{ mock.Mock }

func (m *mockDonationRepo) CreateDonation(ctx context.Context, donation *models.Donation) error {
	args := m.Called(ctx, donation)
	if args.Error(0) == nil {
		donation.ID = "donation-1"
	}
	return args.Error(0)
}

func (m *mockDonationRepo) GetDonation(ctx context.Context, id string) (models.Donation, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Donation), args.Error(1)
}

func (m *mockDonationRepo) ListDonations(ctx context.Context, filter models.DonationFilter) ([]models.Donation, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Donation), args.Error(1)
}

func (m *mockDonationRepo) UpdateDonation(ctx context.Context, donation models.Donation) error {
	return m.Called(ctx, donation).Error(0)
}

func (m *mockDonationRepo) DeliverDonation(ctx context.Context, donation models.Donation) (bool, error) {
	args := m.Called(ctx, donation)
	return args.Bool(0), args.Error(1)
}

func (m *mockDonationRepo) DeleteDonation(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
