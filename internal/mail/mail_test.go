package mail

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbourhotels/hotel-site/internal/config"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func testMessage() Message {
	return Message{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Phone:    "+49 40 123456",
		Location: "Hamburg",
		Subject:  "Room enquiry",
		Body:     "Do you have a double room\nfor two nights?",
	}
}

func TestCompose(t *testing.T) {
	raw := string(Compose(testMessage(), "website@example.com", "reservations@example.com", fixedNow))

	head, body, found := strings.Cut(raw, "\r\n\r\n")
	require.True(t, found)

	assert.Equal(t, []string{
		"From: website@example.com",
		"To: reservations@example.com",
		`Reply-To: "Jane Doe" <jane@example.com>`,
		"Subject: [Contact] Room enquiry",
		"Date: Sat, 14 Mar 2026 09:30:00 +0000",
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"Content-Transfer-Encoding: 8bit",
	}, strings.Split(head, "\r\n"))

	assert.Contains(t, body, "Name: Jane Doe\r\n")
	assert.Contains(t, body, "Email: jane@example.com\r\n")
	assert.Contains(t, body, "Phone: +49 40 123456\r\n")
	assert.Contains(t, body, "Location: Hamburg\r\n")
	assert.Contains(t, body, "Do you have a double room\r\nfor two nights?\r\n")
	assert.NotContains(t, strings.ReplaceAll(raw, "\r\n", ""), "\n")
}

func TestComposeOptionalFields(t *testing.T) {
	msg := testMessage()
	msg.Phone = ""
	msg.Location = ""

	raw := string(Compose(msg, "a@example.com", "b@example.com", fixedNow))

	assert.Contains(t, raw, "Phone: -\r\n")
	assert.Contains(t, raw, "Location: -\r\n")
}

func TestComposeStripsHeaderInjection(t *testing.T) {
	msg := testMessage()
	msg.Subject = "Hello\r\nBcc: victim@example.com"
	msg.Name = "Eve\nX-Injected: 1"

	raw := string(Compose(msg, "a@example.com", "b@example.com", fixedNow))
	head, _, _ := strings.Cut(raw, "\r\n\r\n")

	for _, line := range strings.Split(head, "\r\n") {
		assert.False(t, strings.HasPrefix(line, "Bcc:"), line)
		assert.False(t, strings.HasPrefix(line, "X-Injected:"), line)
	}

	assert.Contains(t, head, "Subject: [Contact] Hello  Bcc: victim@example.com")
}

func TestComposeEncodesNonASCIISubject(t *testing.T) {
	msg := testMessage()
	msg.Subject = "Zimmer für zwei"

	raw := string(Compose(msg, "a@example.com", "b@example.com", fixedNow))

	assert.Contains(t, raw, "Subject: =?utf-8?q?")
	assert.Contains(t, raw, "Subject: Zimmer für zwei\r\n")
}

// smtpServer is a scripted single session SMTP server.
type smtpServer struct {
	ln         net.Listener
	rejectRcpt bool
	done       chan struct{}

	mu       sync.Mutex
	commands []string
	data     string
}

func startSMTP(t *testing.T, rejectRcpt bool) *smtpServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := &smtpServer{ln: ln, rejectRcpt: rejectRcpt, done: make(chan struct{})}

	t.Cleanup(func() { _ = ln.Close() })

	go s.serve()

	return s
}

func (s *smtpServer) port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *smtpServer) record(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commands = append(s.commands, line)
}

func (s *smtpServer) wait(t *testing.T) ([]string, string) {
	t.Helper()

	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("smtp session did not finish")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commands, s.data
}

func decodeLine(line string) string {
	b, _ := base64.StdEncoding.DecodeString(strings.TrimSpace(line))

	return string(b)
}

func (s *smtpServer) serve() {
	defer close(s.done)

	conn, err := s.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	reply := func(line string) { _, _ = fmt.Fprintf(conn, "%s\r\n", line) }

	reply("220 localhost ESMTP ready")

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}

		line = strings.TrimRight(line, "\r\n")
		verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])

		switch verb {
		case "EHLO":
			s.record("EHLO")
			reply("250-localhost")
			reply("250 AUTH LOGIN PLAIN")
		case "AUTH":
			fields := strings.Fields(line)
			if strings.EqualFold(fields[1], "LOGIN") {
				s.record("AUTH LOGIN")
				reply("334 VXNlcm5hbWU6")

				u, _ := r.ReadString('\n')
				s.record("user " + decodeLine(u))
				reply("334 UGFzc3dvcmQ6")

				p, _ := r.ReadString('\n')
				s.record("pass " + decodeLine(p))
			} else {
				s.record("AUTH PLAIN " + strings.ReplaceAll(decodeLine(fields[2]), "\x00", "|"))
			}

			reply("235 2.7.0 Authentication successful")
		case "MAIL", "RCPT":
			s.record(line)

			if verb == "RCPT" && s.rejectRcpt {
				reply("550 5.1.1 no such mailbox")

				continue
			}

			reply("250 OK")
		case "DATA":
			s.record("DATA")
			reply("354 end with <CRLF>.<CRLF>")

			var b strings.Builder

			for {
				l, err := r.ReadString('\n')
				if err != nil {
					return
				}

				if l == ".\r\n" {
					break
				}

				b.WriteString(l)
			}

			s.mu.Lock()
			s.data = b.String()
			s.mu.Unlock()

			reply("250 queued")
		case "QUIT":
			s.record("QUIT")
			reply("221 bye")

			return
		default:
			s.record(line)
			reply("502 command not implemented")
		}
	}
}

func relayConfig(port int) config.Mail {
	return config.Mail{
		Enabled:       true,
		Host:          "127.0.0.1",
		Port:          port,
		Username:      "website",
		Password:      "s3cret",
		AuthMechanism: "login",
		From:          "website@example.com",
		To:            "reservations@example.com",
		Timeout:       5 * time.Second,
	}
}

func newTestRelay(cfg config.Mail) *Relay {
	r := NewRelay(cfg)
	r.now = func() time.Time { return fixedNow }

	return r
}

func TestRelaySendLogin(t *testing.T) {
	srv := startSMTP(t, false)

	err := newTestRelay(relayConfig(srv.port())).Send(context.Background(), testMessage())
	require.NoError(t, err)

	commands, data := srv.wait(t)

	assert.Equal(t, []string{
		"EHLO",
		"AUTH LOGIN",
		"user website",
		"pass s3cret",
		"MAIL FROM:<website@example.com>",
		"RCPT TO:<reservations@example.com>",
		"DATA",
		"QUIT",
	}, commands)

	assert.Contains(t, data, "Subject: [Contact] Room enquiry\r\n")
	assert.Contains(t, data, `Reply-To: "Jane Doe" <jane@example.com>`)
	assert.Contains(t, data, "for two nights?")
}

func TestRelaySendPlain(t *testing.T) {
	srv := startSMTP(t, false)

	cfg := relayConfig(srv.port())
	cfg.AuthMechanism = "PLAIN"

	require.NoError(t, newTestRelay(cfg).Send(context.Background(), testMessage()))

	commands, _ := srv.wait(t)
	assert.Contains(t, commands, "AUTH PLAIN |website|s3cret")
}

func TestRelaySendWithoutAuth(t *testing.T) {
	srv := startSMTP(t, false)

	cfg := relayConfig(srv.port())
	cfg.Username = ""

	require.NoError(t, newTestRelay(cfg).Send(context.Background(), testMessage()))

	commands, _ := srv.wait(t)
	assert.Equal(t, []string{
		"EHLO",
		"MAIL FROM:<website@example.com>",
		"RCPT TO:<reservations@example.com>",
		"DATA",
		"QUIT",
	}, commands)
}

func TestRelayRejectedRecipient(t *testing.T) {
	srv := startSMTP(t, true)

	err := newTestRelay(relayConfig(srv.port())).Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rcpt to")

	commands, data := srv.wait(t)
	assert.NotContains(t, commands, "DATA")
	assert.Empty(t, data)
}

func TestRelayDisabled(t *testing.T) {
	cfg := relayConfig(25)
	cfg.Enabled = false

	err := NewRelay(cfg).Send(context.Background(), testMessage())
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestRelayDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	err = newTestRelay(relayConfig(port)).Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial")
}

func TestLoginAuthRefusesRemotePlaintext(t *testing.T) {
	a := LoginAuth("u", "p", "smtp.example.com")

	_, _, err := a.Start(&smtp.ServerInfo{Name: "smtp.example.com"})
	require.Error(t, err)

	mech, _, err := a.Start(&smtp.ServerInfo{Name: "smtp.example.com", TLS: true})
	require.NoError(t, err)
	assert.Equal(t, "LOGIN", mech)

	_, err = a.Next([]byte("Something:"), true)
	assert.Error(t, err)
}
