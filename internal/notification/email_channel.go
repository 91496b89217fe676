package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog"
	"github.com/stanstork/rapidaid-api/internal/config"
	"github.com/stanstork/rapidaid-api/internal/models"
)

const implicitTLSPort = 465

type EmailChannel struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	timeout  time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

func newEmailChannel(cfg config.EmailConfig, timeout time.Duration, logger zerolog.Logger) *EmailChannel {
	port := cfg.SMTPPort
	if port == 0 {
		port = config.DefaultSMTPPort
	}
	if timeout <= 0 {
		timeout = config.DefaultSendTimeout
	}
	return &EmailChannel{
		host:     strings.TrimSpace(cfg.SMTPHost),
		port:     port,
		username: strings.TrimSpace(cfg.Username),
		password: cfg.Password,
		from:     strings.TrimSpace(cfg.From),
		fromName: strings.TrimSpace(cfg.FromName),
		timeout:  timeout,
		now:      time.Now,
		logger:   logger.With().Str("channel", "email").Logger(),
	}
}

// NewEmailCapability builds the SMTP channel. When configured to, it verifies
// the connection and login once; failures make the channel Unavailable.
func NewEmailCapability(ctx context.Context, cfg config.EmailConfig, timeout time.Duration, logger zerolog.Logger) Capability {
	switch {
	case strings.TrimSpace(cfg.SMTPHost) == "":
		return Unavailable(models.ChannelEmail, "smtp_host is required for email notifications")
	case strings.TrimSpace(cfg.From) == "":
		return Unavailable(models.ChannelEmail, "from is required for email notifications")
	case strings.TrimSpace(cfg.Username) == "" || cfg.Password == "":
		return Unavailable(models.ChannelEmail, "smtp username and password are required")
	}

	ch := newEmailChannel(cfg, timeout, logger)
	if cfg.VerifyOnStartup {
		verifyCtx, cancel := context.WithTimeout(ctx, ch.timeout)
		defer cancel()
		if err := ch.Verify(verifyCtx); err != nil {
			ch.logger.Error().Err(err).Msg("smtp verification failed")
			return Unavailable(models.ChannelEmail, fmt.Sprintf("smtp verification failed: %v", err))
		}
	}
	return Available(ch)
}

func (c *EmailChannel) Channel() models.NotificationChannel { return models.ChannelEmail }

func (c *EmailChannel) Address(r models.Recipient) string { return strings.TrimSpace(r.Email) }

func (c *EmailChannel) Send(ctx context.Context, to string, msg Message) error {
	body, err := c.compose(to, msg)
	if err != nil {
		return newDeliveryError(KindProvider, "", fmt.Errorf("compose message: %w", err))
	}

	err = c.session(ctx, func(client *smtp.Client) error {
		if err := client.Mail(c.from); err != nil {
			return classifySMTPError(err, false)
		}
		if err := client.Rcpt(to); err != nil {
			return classifySMTPError(err, true)
		}
		w, err := client.Data()
		if err != nil {
			return classifySMTPError(err, false)
		}
		if _, err := w.Write(body); err != nil {
			return classifySMTPError(err, false)
		}
		if err := w.Close(); err != nil {
			return classifySMTPError(err, false)
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info().Str("to", to).Msg("email sent")
	return nil
}

// Verify opens a session, authenticates and quits without sending.
func (c *EmailChannel) Verify(ctx context.Context) error {
	return c.session(ctx, func(*smtp.Client) error { return nil })
}

func (c *EmailChannel) String() string {
	return fmt.Sprintf("EmailChannel(%s:%d)", c.host, c.port)
}

func (c *EmailChannel) compose(to string, msg Message) ([]byte, error) {
	var h mail.Header
	h.SetDate(c.now())
	h.SetAddressList("From", []*mail.Address{{Name: c.fromName, Address: c.from}})
	h.SetAddressList("To", []*mail.Address{{Address: to}})
	h.SetSubject(msg.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *EmailChannel) session(ctx context.Context, fn func(*smtp.Client) error) error {
	addr := net.JoinHostPort(c.host, strconv.Itoa(c.port))
	dialer := &net.Dialer{Timeout: c.timeout}
	tlsConfig := &tls.Config{ServerName: c.host}

	var (
		conn net.Conn
		err  error
	)
	if c.port == implicitTLSPort {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return newDeliveryError(KindProvider, "connect", err)
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, c.host)
	if err != nil {
		conn.Close()
		return classifySMTPError(err, false)
	}
	defer client.Close()

	if c.port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return classifySMTPError(err, false)
			}
		}
	}
	if c.username != "" {
		if err := client.Auth(smtp.PlainAuth("", c.username, c.password, c.host)); err != nil {
			return classifyAuthError(err)
		}
	}
	if err := fn(client); err != nil {
		return err
	}
	if err := client.Quit(); err != nil {
		return classifySMTPError(err, false)
	}
	return nil
}

func classifyAuthError(err error) error {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return &DeliveryError{Kind: KindProviderAuth, Code: strconv.Itoa(tpErr.Code), Message: tpErr.Msg, Err: err}
	}
	return newDeliveryError(KindProviderAuth, "", err)
}

func classifySMTPError(err error, atRecipient bool) error {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de
	}
	var tpErr *textproto.Error
	if !errors.As(err, &tpErr) {
		return newDeliveryError(KindProvider, "", err)
	}
	code := strconv.Itoa(tpErr.Code)
	switch {
	case tpErr.Code == 530 || tpErr.Code == 534 || tpErr.Code == 535:
		return &DeliveryError{Kind: KindProviderAuth, Code: code, Message: tpErr.Msg, Err: err}
	case atRecipient && (tpErr.Code == 501 || tpErr.Code == 550 || tpErr.Code == 553):
		return &DeliveryError{Kind: KindInvalidRecipient, Code: code, Message: tpErr.Msg, Err: err}
	default:
		return &DeliveryError{Kind: KindProvider, Code: code, Message: tpErr.Msg, Err: err}
	}
}
