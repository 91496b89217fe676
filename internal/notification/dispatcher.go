package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stanstork/rapidaid-api/internal/config"
	"github.com/stanstork/rapidaid-api/internal/metrics"
	"github.com/stanstork/rapidaid-api/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	alertSubject = "🚨 Emergency Alert Notification"
	testSubject  = "Test Email from Rapid Aid Connect"
	testBody     = "This is a test message from Rapid Aid Connect"
)

// Dispatcher delivers a message to every recipient over every channel.
// Delivery failures are returned as data; Dispatch never fails.
type Dispatcher struct {
	capabilities []Capability
	recipients   []models.Recipient
	sendTimeout  time.Duration
	concurrency  int
	logger       zerolog.Logger
}

type DispatcherOption func(*Dispatcher)

// WithSendTimeout bounds every individual provider call.
func WithSendTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.sendTimeout = d
		}
	}
}

// WithConcurrency sets how many recipients are served at once.
func WithConcurrency(n int) DispatcherOption {
	return func(disp *Dispatcher) {
		if n > 0 {
			disp.concurrency = n
		}
	}
}

// NewDispatcher takes the roster and the channel capabilities in the order
// they should be attempted for each recipient.
func NewDispatcher(recipients []models.Recipient, capabilities []Capability, logger zerolog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		capabilities: append([]Capability(nil), capabilities...),
		recipients:   append([]models.Recipient(nil), recipients...),
		sendTimeout:  config.DefaultSendTimeout,
		concurrency:  1,
		logger:       logger.With().Str("component", "dispatcher").Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, c := range d.capabilities {
		if !c.Usable() {
			d.logger.Warn().Str("channel", string(c.Channel())).Str("reason", c.Reason()).Msg("notification channel unavailable")
		}
	}
	return d
}

// Recipients returns a copy of the roster.
func (d *Dispatcher) Recipients() []models.Recipient {
	return append([]models.Recipient(nil), d.recipients...)
}

// AlertMessage builds the notification text for an alert.
func AlertMessage(alert models.Alert) Message {
	title := strings.TrimSpace(alert.Title)
	if title == "" {
		title = "Disaster"
	}
	area := strings.TrimSpace(alert.Area)
	if area == "" {
		area = "your area"
	}
	return Message{
		Subject: alertSubject,
		Body:    fmt.Sprintf("🚨 Alert: %s in %s.", title, area),
	}
}

// DispatchAlert notifies the roster about alert.
func (d *Dispatcher) DispatchAlert(ctx context.Context, alert models.Alert) models.NotificationResults {
	results := d.Dispatch(ctx, AlertMessage(alert))
	d.logger.Info().
		Str("alert_id", alert.ID).
		Int("sms_success", results.SMS.Success).
		Int("sms_failed", results.SMS.Failed).
		Int("email_success", results.Email.Success).
		Int("email_failed", results.Email.Failed).
		Msg("alert dispatch finished")
	return results
}

// Dispatch sends msg to each recipient on each channel. Outcomes are
// aggregated in roster order, channels in configured order, regardless of
// how many recipients are served concurrently.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) models.NotificationResults {
	perRecipient := make([][]models.NotificationOutcome, len(d.recipients))

	g := new(errgroup.Group)
	g.SetLimit(d.concurrency)
	for i, recipient := range d.recipients {
		i, recipient := i, recipient
		g.Go(func() error {
			perRecipient[i] = d.deliverTo(ctx, recipient, msg)
			return nil
		})
	}
	_ = g.Wait()

	results := models.NewNotificationResults()
	for _, outcomes := range perRecipient {
		for _, o := range outcomes {
			results.Record(o)
		}
	}
	return results
}

func (d *Dispatcher) deliverTo(ctx context.Context, recipient models.Recipient, msg Message) []models.NotificationOutcome {
	outcomes := make([]models.NotificationOutcome, 0, len(d.capabilities))
	for _, capability := range d.capabilities {
		outcomes = append(outcomes, d.attempt(ctx, capability, recipient, msg))
	}
	return outcomes
}

func (d *Dispatcher) attempt(ctx context.Context, capability Capability, recipient models.Recipient, msg Message) (outcome models.NotificationOutcome) {
	channel := capability.Channel()
	outcome = models.NotificationOutcome{Channel: channel, Recipient: recipient.Name}

	if !capability.Usable() {
		return d.fail(outcome, string(KindChannelUnavailable), capability.Reason())
	}

	sender := capability.Sender()
	to := sender.Address(recipient)
	if to == "" {
		return d.fail(outcome, string(KindInvalidRecipient), fmt.Sprintf("recipient %q has no %s address", recipient.Name, channel))
	}
	outcome.Recipient = to

	defer func() {
		if r := recover(); r != nil {
			outcome = d.fail(outcome, string(KindProvider), fmt.Sprintf("provider panic: %v", r))
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	start := time.Now()
	err := sender.Send(callCtx, to, msg)
	metrics.NotificationDuration.WithLabelValues(string(channel)).Observe(time.Since(start).Seconds())
	if err != nil {
		code, message := failureDetails(err)
		d.logger.Warn().Err(err).Str("channel", string(channel)).Str("recipient", to).Msg("failed to deliver notification")
		return d.fail(outcome, code, message)
	}

	outcome.Result = models.DeliverySuccess
	metrics.NotificationDeliveries.WithLabelValues(string(channel), string(models.DeliverySuccess)).Inc()
	return outcome
}

func (d *Dispatcher) fail(outcome models.NotificationOutcome, code, message string) models.NotificationOutcome {
	outcome.Result = models.DeliveryFailure
	outcome.Code = code
	outcome.Error = message
	metrics.NotificationDeliveries.WithLabelValues(string(outcome.Channel), string(models.DeliveryFailure)).Inc()
	return outcome
}

// TestChannels verifies each channel and sends a test message to the first
// recipient, reporting per channel what happened.
func (d *Dispatcher) TestChannels(ctx context.Context) map[models.NotificationChannel]models.ChannelCheck {
	checks := make(map[models.NotificationChannel]models.ChannelCheck, len(d.capabilities))
	for _, capability := range d.capabilities {
		checks[capability.Channel()] = d.testChannel(ctx, capability)
	}
	return checks
}

func (d *Dispatcher) testChannel(ctx context.Context, capability Capability) models.ChannelCheck {
	if !capability.Usable() {
		return models.ChannelCheck{Message: fmt.Sprintf("%s channel not initialized", capability.Channel()), Error: capability.Reason()}
	}
	if len(d.recipients) == 0 {
		return models.ChannelCheck{Message: "no recipients configured", Error: "notification.recipients is empty"}
	}

	sender := capability.Sender()
	callCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	if err := sender.Verify(callCtx); err != nil {
		return models.ChannelCheck{Message: checkFailureMessage(err), Error: err.Error()}
	}

	to := sender.Address(d.recipients[0])
	if to == "" {
		return models.ChannelCheck{Message: "first recipient has no address for this channel", Error: string(KindInvalidRecipient)}
	}
	sendCtx, cancelSend := context.WithTimeout(ctx, d.sendTimeout)
	defer cancelSend()
	if err := sender.Send(sendCtx, to, Message{Subject: testSubject, Body: testBody}); err != nil {
		return models.ChannelCheck{Message: checkFailureMessage(err), Error: err.Error()}
	}
	return models.ChannelCheck{Success: true, Message: fmt.Sprintf("Test %s sent to %s", capability.Channel(), to)}
}

func checkFailureMessage(err error) string {
	switch {
	case IsKind(err, KindProviderAuth):
		return "Authentication error. Check the provider credentials."
	case IsKind(err, KindInvalidRecipient):
		return "The recipient is not valid or not verified for this account."
	default:
		return "Failed to send test message"
	}
}
