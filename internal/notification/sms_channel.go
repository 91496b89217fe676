package notification

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stanstork/rapidaid-api/internal/config"
	"github.com/stanstork/rapidaid-api/internal/models"
	twilio "github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Twilio error codes we classify explicitly.
const (
	twilioAuthFailed     = 20003
	twilioInvalidTo      = 21211
	twilioUnverifiedTo   = 21608
	twilioUnsubscribedTo = 21610
	twilioNotMobileTo    = 21614
)

// twilioAPI is the subset of the Twilio REST API used by SMSChannel.
type twilioAPI interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
	FetchAccount(sid string) (*openapi.ApiV2010Account, error)
}

type SMSChannel struct {
	api        twilioAPI
	accountSID string
	from       string
	logger     zerolog.Logger
}

func newSMSChannel(api twilioAPI, accountSID, from string, logger zerolog.Logger) *SMSChannel {
	return &SMSChannel{
		api:        api,
		accountSID: accountSID,
		from:       from,
		logger:     logger.With().Str("channel", "sms").Logger(),
	}
}

// NewSMSCapability builds the Twilio channel and validates its credentials.
// Any problem yields an Unavailable capability rather than an error.
func NewSMSCapability(ctx context.Context, cfg config.SMSConfig, timeout time.Duration, logger zerolog.Logger) Capability {
	sid := strings.TrimSpace(cfg.AccountSID)
	token := strings.TrimSpace(cfg.AuthToken)
	from := strings.TrimSpace(cfg.From)
	switch {
	case sid == "" || token == "":
		return Unavailable(models.ChannelSMS, "twilio account sid and auth token are required")
	case from == "":
		return Unavailable(models.ChannelSMS, "twilio from number is required")
	}

	if timeout <= 0 {
		timeout = config.DefaultSendTimeout
	}
	rest := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: sid,
		Password: token,
	})
	rest.SetTimeout(timeout)
	ch := newSMSChannel(rest.Api, sid, from, logger)

	if cfg.VerifyOnStartup {
		verifyCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := ch.Verify(verifyCtx); err != nil {
			ch.logger.Error().Err(err).Msg("twilio credential validation failed")
			return Unavailable(models.ChannelSMS, fmt.Sprintf("twilio credential validation failed: %v", err))
		}
	}
	return Available(ch)
}

func (c *SMSChannel) Channel() models.NotificationChannel { return models.ChannelSMS }

func (c *SMSChannel) Address(r models.Recipient) string { return strings.TrimSpace(r.Phone) }

func (c *SMSChannel) Send(ctx context.Context, to string, msg Message) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(msg.Body)

	var result *openapi.ApiV2010Message
	err := runWithContext(ctx, func() error {
		var err error
		result, err = c.api.CreateMessage(params)
		return err
	})
	if err != nil {
		return classifyTwilioError(err)
	}

	sid := ""
	if result != nil && result.Sid != nil {
		sid = *result.Sid
	}
	c.logger.Info().Str("to", to).Str("sid", sid).Msg("sms sent")
	return nil
}

func (c *SMSChannel) Verify(ctx context.Context) error {
	var account *openapi.ApiV2010Account
	err := runWithContext(ctx, func() error {
		var err error
		account, err = c.api.FetchAccount(c.accountSID)
		return err
	})
	if err != nil {
		return classifyTwilioError(err)
	}
	if account != nil && account.Status != nil && *account.Status != "active" {
		return &DeliveryError{
			Kind:    KindProviderAuth,
			Message: fmt.Sprintf("twilio account status is %q", *account.Status),
		}
	}
	return nil
}

func (c *SMSChannel) String() string {
	return "SMSChannel(twilio)"
}

func classifyTwilioError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newDeliveryError(KindProvider, "timeout", err)
	}
	var restErr *twclient.TwilioRestError
	if !errors.As(err, &restErr) {
		return newDeliveryError(KindProvider, "", err)
	}
	code := strconv.Itoa(restErr.Code)
	de := &DeliveryError{Code: code, Message: restErr.Message, Err: err}
	switch restErr.Code {
	case twilioAuthFailed:
		de.Kind = KindProviderAuth
	case twilioInvalidTo, twilioUnverifiedTo, twilioUnsubscribedTo, twilioNotMobileTo:
		de.Kind = KindInvalidRecipient
	default:
		de.Kind = KindProvider
	}
	if de.Message == "" {
		de.Message = err.Error()
	}
	return de
}

// runWithContext runs a blocking provider call that has no context support,
// giving up when ctx ends. The call itself is bounded by the client timeout.
func runWithContext(ctx context.Context, call func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		done <- call()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
