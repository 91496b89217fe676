package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stanstork/rapidaid-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	channel models.NotificationChannel

	mu       sync.Mutex
	sent     []string
	failures map[string]error
	panicOn  string
	block    bool
	verify   error
}

func newFakeSender(ch models.NotificationChannel) *fakeSender {
	return &fakeSender{channel: ch, failures: map[string]error{}}
}

func (f *fakeSender) Channel() models.NotificationChannel { return f.channel }

func (f *fakeSender) Address(r models.Recipient) string {
	if f.channel == models.ChannelSMS {
		return r.Phone
	}
	return r.Email
}

func (f *fakeSender) Send(ctx context.Context, to string, _ Message) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if to == f.panicOn {
		panic("provider exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failures[to]; ok {
		return err
	}
	f.sent = append(f.sent, to)
	return nil
}

func (f *fakeSender) Verify(context.Context) error { return f.verify }

func (f *fakeSender) sentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

var roster = []models.Recipient{
	{Name: "Asha", Email: "asha@example.com", Phone: "+15550000001"},
	{Name: "Ravi", Email: "ravi@example.com", Phone: "+15550000002"},
}

func TestDispatch_AllChannelsHealthy(t *testing.T) {
	sms, email := newFakeSender(models.ChannelSMS), newFakeSender(models.ChannelEmail)
	d := NewDispatcher(roster, []Capability{Available(sms), Available(email)}, zerolog.Nop())

	results := d.Dispatch(context.Background(), Message{Subject: "s", Body: "b"})

	assert.Equal(t, 2, results.SMS.Success)
	assert.Equal(t, 0, results.SMS.Failed)
	assert.Equal(t, 2, results.Email.Success)
	assert.Equal(t, 0, results.Email.Failed)
	assert.Empty(t, results.SMS.Errors)
	assert.NotNil(t, results.SMS.Errors)
	assert.Equal(t, []string{"+15550000001", "+15550000002"}, sms.sentTo())
	assert.Equal(t, []string{"asha@example.com", "ravi@example.com"}, email.sentTo())
}

func TestDispatch_UnavailableChannelIsShortCircuited(t *testing.T) {
	email := newFakeSender(models.ChannelEmail)
	d := NewDispatcher(roster, []Capability{
		Unavailable(models.ChannelSMS, "twilio account sid and auth token are required"),
		Available(email),
	}, zerolog.Nop())

	results := d.Dispatch(context.Background(), Message{Body: "b"})

	assert.Equal(t, 0, results.SMS.Success)
	assert.Equal(t, 2, results.SMS.Failed)
	assert.Equal(t, 2, results.Email.Success)
	assert.Equal(t, 0, results.Email.Failed)
	require.Len(t, results.SMS.Errors, 2)
	for i, failure := range results.SMS.Errors {
		assert.Equal(t, string(KindChannelUnavailable), failure.Code)
		assert.Equal(t, roster[i].Name, failure.Recipient)
		assert.Contains(t, failure.Error, "auth token")
	}
}

func TestDispatch_FailuresDoNotAbortOtherAttempts(t *testing.T) {
	sms, email := newFakeSender(models.ChannelSMS), newFakeSender(models.ChannelEmail)
	sms.failures["+15550000001"] = &DeliveryError{Kind: KindInvalidRecipient, Code: "21211", Message: "invalid To number"}
	email.failures["ravi@example.com"] = errors.New("connection reset")

	d := NewDispatcher(roster, []Capability{Available(sms), Available(email)}, zerolog.Nop())
	results := d.Dispatch(context.Background(), Message{Body: "b"})

	assert.Equal(t, 1, results.SMS.Success)
	assert.Equal(t, 1, results.SMS.Failed)
	assert.Equal(t, 1, results.Email.Success)
	assert.Equal(t, 1, results.Email.Failed)

	require.Len(t, results.SMS.Errors, 1)
	assert.Equal(t, models.FailureDetail{Recipient: "+15550000001", Error: "invalid To number", Code: "21211"}, results.SMS.Errors[0])
	require.Len(t, results.Email.Errors, 1)
	assert.Equal(t, string(KindProvider), results.Email.Errors[0].Code)
	assert.Equal(t, "connection reset", results.Email.Errors[0].Error)
}

func TestDispatch_EveryAttemptFails(t *testing.T) {
	d := NewDispatcher(roster, []Capability{
		Unavailable(models.ChannelSMS, "no credentials"),
		Unavailable(models.ChannelEmail, "no smtp host"),
	}, zerolog.Nop())

	results := d.Dispatch(context.Background(), Message{Body: "b"})

	assert.Equal(t, 2, results.SMS.Failed)
	assert.Equal(t, 2, results.Email.Failed)
	assert.Len(t, results.Outcomes, 4)
}

func TestDispatch_MissingAddress(t *testing.T) {
	sms, email := newFakeSender(models.ChannelSMS), newFakeSender(models.ChannelEmail)
	recipients := []models.Recipient{{Name: "NoPhone", Email: "np@example.com"}}
	d := NewDispatcher(recipients, []Capability{Available(sms), Available(email)}, zerolog.Nop())

	results := d.Dispatch(context.Background(), Message{Body: "b"})

	assert.Equal(t, 1, results.SMS.Failed)
	assert.Equal(t, string(KindInvalidRecipient), results.SMS.Errors[0].Code)
	assert.Equal(t, "NoPhone", results.SMS.Errors[0].Recipient)
	assert.Equal(t, 1, results.Email.Success)
	assert.Empty(t, sms.sentTo())
}

func TestDispatch_PanicIsRecordedAsFailure(t *testing.T) {
	sms, email := newFakeSender(models.ChannelSMS), newFakeSender(models.ChannelEmail)
	sms.panicOn = "+15550000001"
	d := NewDispatcher(roster, []Capability{Available(sms), Available(email)}, zerolog.Nop())

	results := d.Dispatch(context.Background(), Message{Body: "b"})

	assert.Equal(t, 1, results.SMS.Success)
	assert.Equal(t, 1, results.SMS.Failed)
	assert.Contains(t, results.SMS.Errors[0].Error, "provider exploded")
	assert.Equal(t, 2, results.Email.Success)
}

func TestDispatch_SendTimeoutBoundsHungProvider(t *testing.T) {
	sms, email := newFakeSender(models.ChannelSMS), newFakeSender(models.ChannelEmail)
	sms.block = true
	d := NewDispatcher(roster, []Capability{Available(sms), Available(email)}, zerolog.Nop(),
		WithSendTimeout(20*time.Millisecond))

	start := time.Now()
	results := d.Dispatch(context.Background(), Message{Body: "b"})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 2, results.SMS.Failed)
	assert.Contains(t, results.SMS.Errors[0].Error, "deadline exceeded")
	assert.Equal(t, 2, results.Email.Success)
}

func TestDispatch_OrderIsDeterministicUnderConcurrency(t *testing.T) {
	var recipients []models.Recipient
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		recipients = append(recipients, models.Recipient{Name: n, Email: n + "@example.com", Phone: "+1555" + n})
	}
	sms, email := newFakeSender(models.ChannelSMS), newFakeSender(models.ChannelEmail)
	d := NewDispatcher(recipients, []Capability{Available(sms), Available(email)}, zerolog.Nop(),
		WithConcurrency(4))

	results := d.Dispatch(context.Background(), Message{Body: "b"})

	require.Len(t, results.Outcomes, 2*len(recipients))
	for i, r := range recipients {
		smsOutcome, emailOutcome := results.Outcomes[2*i], results.Outcomes[2*i+1]
		assert.Equal(t, models.ChannelSMS, smsOutcome.Channel)
		assert.Equal(t, r.Phone, smsOutcome.Recipient)
		assert.Equal(t, models.ChannelEmail, emailOutcome.Channel)
		assert.Equal(t, r.Email, emailOutcome.Recipient)
	}
	assert.Equal(t, len(recipients), results.SMS.Success)
	assert.Equal(t, len(recipients), results.Email.Success)
}

func TestDispatch_EmptyRoster(t *testing.T) {
	d := NewDispatcher(nil, []Capability{Available(newFakeSender(models.ChannelSMS))}, zerolog.Nop())

	results := d.Dispatch(context.Background(), Message{Body: "b"})

	assert.Equal(t, models.ChannelSummary{Errors: []models.FailureDetail{}}, results.SMS)
	assert.Equal(t, models.ChannelSummary{Errors: []models.FailureDetail{}}, results.Email)
}

func TestAlertMessage(t *testing.T) {
	tests := []struct {
		name  string
		alert models.Alert
		want  string
	}{
		{name: "title and area", alert: models.Alert{Title: "Flood", Area: "Riverside"}, want: "🚨 Alert: Flood in Riverside."},
		{name: "defaults", alert: models.Alert{}, want: "🚨 Alert: Disaster in your area."},
		{name: "blank values", alert: models.Alert{Title: "  ", Area: "\t"}, want: "🚨 Alert: Disaster in your area."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := AlertMessage(tt.alert)
			assert.Equal(t, tt.want, msg.Body)
			assert.Equal(t, alertSubject, msg.Subject)
		})
	}
}

func TestRecipientsReturnsCopy(t *testing.T) {
	d := NewDispatcher(roster, nil, zerolog.Nop())
	got := d.Recipients()
	got[0].Name = "changed"
	assert.Equal(t, "Asha", d.Recipients()[0].Name)
}

func TestTestChannels(t *testing.T) {
	sms := newFakeSender(models.ChannelSMS)
	email := newFakeSender(models.ChannelEmail)
	email.verify = &DeliveryError{Kind: KindProviderAuth, Code: "535", Message: "bad credentials"}

	d := NewDispatcher(roster, []Capability{Available(sms), Available(email)}, zerolog.Nop())
	checks := d.TestChannels(context.Background())

	require.Contains(t, checks, models.ChannelSMS)
	assert.True(t, checks[models.ChannelSMS].Success)
	assert.Equal(t, []string{"+15550000001"}, sms.sentTo())

	require.Contains(t, checks, models.ChannelEmail)
	assert.False(t, checks[models.ChannelEmail].Success)
	assert.Contains(t, checks[models.ChannelEmail].Message, "Authentication error")
	assert.Empty(t, email.sentTo())
}

func TestTestChannels_Unavailable(t *testing.T) {
	d := NewDispatcher(roster, []Capability{Unavailable(models.ChannelSMS, "missing sid")}, zerolog.Nop())
	checks := d.TestChannels(context.Background())

	assert.False(t, checks[models.ChannelSMS].Success)
	assert.Equal(t, "missing sid", checks[models.ChannelSMS].Error)
}
