package notification

import (
	"context"
	"encoding/base64"
	"errors"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stanstork/rapidaid-api/internal/config"
	"github.com/stanstork/rapidaid-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTP is a minimal plaintext SMTP server. It accepts PLAIN auth with
// the configured password and rejects recipients containing "invalid".
type fakeSMTP struct {
	ln       net.Listener
	password string

	mu       sync.Mutex
	rcpts    []string
	messages []string
}

func startFakeSMTP(t *testing.T, password string) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeSMTP{ln: ln, password: password}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serve(conn)
		}
	}()
	return s
}

func (s *fakeSMTP) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *fakeSMTP) serve(conn net.Conn) {
	defer conn.Close()
	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 localhost ESMTP")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		upper := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(upper, "EHLO"), strings.HasPrefix(upper, "HELO"):
			_ = tp.PrintfLine("250-localhost")
			_ = tp.PrintfLine("250 AUTH PLAIN")
		case strings.HasPrefix(upper, "AUTH PLAIN "):
			raw, _ := base64.StdEncoding.DecodeString(line[len("AUTH PLAIN "):])
			parts := strings.Split(string(raw), "\x00")
			if len(parts) == 3 && parts[2] == s.password {
				_ = tp.PrintfLine("235 2.7.0 Authentication successful")
			} else {
				_ = tp.PrintfLine("535 5.7.8 Authentication credentials invalid")
			}
		case strings.HasPrefix(upper, "MAIL FROM:"):
			_ = tp.PrintfLine("250 2.1.0 OK")
		case strings.HasPrefix(upper, "RCPT TO:"):
			addr := strings.Trim(line[len("RCPT TO:"):], "<> ")
			if strings.Contains(addr, "invalid") {
				_ = tp.PrintfLine("550 5.1.1 Mailbox unavailable")
				continue
			}
			s.mu.Lock()
			s.rcpts = append(s.rcpts, addr)
			s.mu.Unlock()
			_ = tp.PrintfLine("250 2.1.5 OK")
		case upper == "DATA":
			_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
			lines, err := tp.ReadDotLines()
			if err != nil {
				return
			}
			s.mu.Lock()
			s.messages = append(s.messages, strings.Join(lines, "\n"))
			s.mu.Unlock()
			_ = tp.PrintfLine("250 2.0.0 Queued")
		case upper == "QUIT":
			_ = tp.PrintfLine("221 2.0.0 Bye")
			return
		default:
			_ = tp.PrintfLine("502 5.5.2 Command not recognized")
		}
	}
}

func (s *fakeSMTP) received() ([]string, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.rcpts...), append([]string(nil), s.messages...)
}

func testEmailConfig(port int, password string) config.EmailConfig {
	return config.EmailConfig{
		From:     "alerts@example.com",
		FromName: "Disaster Alert System",
		SMTPHost: "127.0.0.1",
		SMTPPort: port,
		Username: "alerts",
		Password: password,
	}
}

func TestEmailChannel_Send(t *testing.T) {
	server := startFakeSMTP(t, "secret")
	ch := newEmailChannel(testEmailConfig(server.port(), "secret"), 2*time.Second, zerolog.Nop())

	err := ch.Send(context.Background(), "asha@example.com", Message{Subject: "Flood warning", Body: "Alert: Flood in Riverside."})

	require.NoError(t, err)
	rcpts, messages := server.received()
	assert.Equal(t, []string{"asha@example.com"}, rcpts)
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "Subject: Flood warning")
	assert.Contains(t, messages[0], "asha@example.com")
	assert.Contains(t, messages[0], "alerts@example.com")
	assert.Contains(t, messages[0], "Alert: Flood in Riverside.")
}

func TestEmailChannel_SendRejectedRecipient(t *testing.T) {
	server := startFakeSMTP(t, "secret")
	ch := newEmailChannel(testEmailConfig(server.port(), "secret"), 2*time.Second, zerolog.Nop())

	err := ch.Send(context.Background(), "invalid@example.com", Message{Body: "b"})

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, KindInvalidRecipient, de.Kind)
	assert.Equal(t, "550", de.Code)
	_, messages := server.received()
	assert.Empty(t, messages)
}

func TestEmailChannel_BadCredentials(t *testing.T) {
	server := startFakeSMTP(t, "secret")
	ch := newEmailChannel(testEmailConfig(server.port(), "wrong"), 2*time.Second, zerolog.Nop())

	err := ch.Verify(context.Background())

	assert.True(t, IsKind(err, KindProviderAuth))
	assert.Contains(t, err.Error(), "535")
}

func TestEmailChannel_ConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	ch := newEmailChannel(testEmailConfig(port, "secret"), time.Second, zerolog.Nop())
	err = ch.Send(context.Background(), "asha@example.com", Message{Body: "b"})

	var de *DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, KindProvider, de.Kind)
	assert.Equal(t, "connect", de.Code)
}

func TestNewEmailCapability(t *testing.T) {
	server := startFakeSMTP(t, "secret")

	tests := []struct {
		name   string
		cfg    config.EmailConfig
		usable bool
		reason string
	}{
		{name: "no host", cfg: config.EmailConfig{From: "a@example.com", Username: "u", Password: "p"}, reason: "smtp_host is required"},
		{name: "no from", cfg: config.EmailConfig{SMTPHost: "127.0.0.1", Username: "u", Password: "p"}, reason: "from is required"},
		{name: "no password", cfg: config.EmailConfig{SMTPHost: "127.0.0.1", From: "a@example.com", Username: "u"}, reason: "username and password"},
		{name: "verified", cfg: withVerify(testEmailConfig(server.port(), "secret")), usable: true},
		{name: "verification fails", cfg: withVerify(testEmailConfig(server.port(), "wrong")), reason: "smtp verification failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			capability := NewEmailCapability(context.Background(), tt.cfg, 2*time.Second, zerolog.Nop())
			assert.Equal(t, models.ChannelEmail, capability.Channel())
			assert.Equal(t, tt.usable, capability.Usable())
			if !tt.usable {
				assert.Contains(t, capability.Reason(), tt.reason)
			}
		})
	}
}

func withVerify(cfg config.EmailConfig) config.EmailConfig {
	cfg.VerifyOnStartup = true
	return cfg
}

func TestClassifySMTPError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		atRecipient bool
		wantKind    DeliveryErrorKind
		wantCode    string
	}{
		{name: "auth required", err: &textproto.Error{Code: 530, Msg: "Authentication required"}, wantKind: KindProviderAuth, wantCode: "530"},
		{name: "unknown mailbox", err: &textproto.Error{Code: 550, Msg: "No such user"}, atRecipient: true, wantKind: KindInvalidRecipient, wantCode: "550"},
		{name: "550 outside rcpt", err: &textproto.Error{Code: 550, Msg: "Rejected"}, wantKind: KindProvider, wantCode: "550"},
		{name: "greylisted", err: &textproto.Error{Code: 451, Msg: "Try again later"}, atRecipient: true, wantKind: KindProvider, wantCode: "451"},
		{name: "io error", err: errors.New("broken pipe"), wantKind: KindProvider, wantCode: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var de *DeliveryError
			require.ErrorAs(t, classifySMTPError(tt.err, tt.atRecipient), &de)
			assert.Equal(t, tt.wantKind, de.Kind)
			assert.Equal(t, tt.wantCode, de.Code)
		})
	}
}

func TestEmailChannel_Compose(t *testing.T) {
	ch := newEmailChannel(testEmailConfig(587, "secret"), time.Second, zerolog.Nop())
	ch.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	raw, err := ch.compose("ravi@example.com", Message{Subject: "Heads up", Body: "Shelter open at the stadium."})

	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, "Subject: Heads up")
	assert.Contains(t, text, "Disaster Alert System")
	assert.Contains(t, text, "<ravi@example.com>")
	assert.Contains(t, text, "text/plain")
	assert.Contains(t, text, "Sat, 01 Jun 2024 12:00:00")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(text), "Shelter open at the stadium."))
}
