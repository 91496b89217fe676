package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stanstork/rapidaid-api/internal/models"
)

// Message is the content delivered on every channel. Channels without a
// subject line ignore Subject.
type Message struct {
	Subject string
	Body    string
}

// Sender delivers messages over one provider.
type Sender interface {
	Channel() models.NotificationChannel
	// Address returns the destination for r on this channel, or "" if r has none.
	Address(r models.Recipient) string
	Send(ctx context.Context, to string, msg Message) error
	// Verify checks that the provider accepts our credentials without sending anything.
	Verify(ctx context.Context) error
}

// Capability is the startup result for a channel: either an available
// sender or the reason the channel cannot be used.
type Capability struct {
	channel models.NotificationChannel
	sender  Sender
	reason  string
}

func Available(sender Sender) Capability {
	return Capability{channel: sender.Channel(), sender: sender}
}

func Unavailable(channel models.NotificationChannel, reason string) Capability {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "channel not configured"
	}
	return Capability{channel: channel, reason: reason}
}

func (c Capability) Channel() models.NotificationChannel { return c.channel }

func (c Capability) Usable() bool { return c.sender != nil }

func (c Capability) Sender() Sender { return c.sender }

func (c Capability) Reason() string { return c.reason }

func (c Capability) String() string {
	if !c.Usable() {
		return fmt.Sprintf("%s(unavailable: %s)", c.channel, c.reason)
	}
	return string(c.channel)
}

type DeliveryErrorKind string

const (
	KindProviderAuth       DeliveryErrorKind = "provider_auth"
	KindInvalidRecipient   DeliveryErrorKind = "invalid_recipient"
	KindProvider           DeliveryErrorKind = "provider_error"
	KindChannelUnavailable DeliveryErrorKind = "channel_unavailable"
)

// DeliveryError is a failed delivery attempt. Code carries the provider's own
// error code when it reported one.
type DeliveryError struct {
	Kind    DeliveryErrorKind
	Code    string
	Message string
	Err     error
}

func (e *DeliveryError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (code %s): %s", e.Kind, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func newDeliveryError(kind DeliveryErrorKind, code string, err error) *DeliveryError {
	de := &DeliveryError{Kind: kind, Code: code, Err: err}
	if err != nil {
		de.Message = err.Error()
	}
	return de
}

// IsKind reports whether err is a DeliveryError of the given kind.
func IsKind(err error, kind DeliveryErrorKind) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Kind == kind
}

// failureDetails turns any send error into the code/message pair recorded in
// an outcome.
func failureDetails(err error) (code, message string) {
	var de *DeliveryError
	if errors.As(err, &de) {
		code = de.Code
		if code == "" {
			code = string(de.Kind)
		}
		message = de.Message
		if message == "" {
			message = de.Error()
		}
		return code, message
	}
	return string(KindProvider), err.Error()
}
