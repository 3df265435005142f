package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/harbourhotels/hotel-site/internal/config"
)

// ErrDisabled is returned by Send when mail is not enabled.
var ErrDisabled = errors.New("mail relay is not enabled")

// Sender delivers contact messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Relay sends each message in its own SMTP session. There is no retry and no
// connection reuse, a failure anywhere aborts the attempt.
type Relay struct {
	cfg  config.Mail
	now  func() time.Time
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

// NewRelay returns a Relay for cfg.
func NewRelay(cfg config.Mail) *Relay {
	d := &net.Dialer{Timeout: cfg.Timeout}

	return &Relay{
		cfg:  cfg,
		now:  time.Now,
		dial: d.DialContext,
	}
}

func (r *Relay) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName:         r.cfg.Host,
		InsecureSkipVerify: r.cfg.SkipVerify, //nolint:gosec // opt-in for self signed relays
		MinVersion:         tls.VersionTLS12,
	}
}

func (r *Relay) auth() smtp.Auth {
	if r.cfg.Username == "" {
		return nil
	}

	if strings.EqualFold(r.cfg.AuthMechanism, "plain") {
		return smtp.PlainAuth("", r.cfg.Username, r.cfg.Password, r.cfg.Host)
	}

	return LoginAuth(r.cfg.Username, r.cfg.Password, r.cfg.Host)
}

// Send composes msg and delivers it to the configured mailbox.
func (r *Relay) Send(ctx context.Context, msg Message) error {
	if !r.cfg.Enabled {
		relays.WithLabelValues("disabled").Inc()

		return ErrDisabled
	}

	if err := r.send(ctx, msg); err != nil {
		relays.WithLabelValues("error").Inc()

		return err
	}

	relays.WithLabelValues("ok").Inc()

	return nil
}

func (r *Relay) send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(r.cfg.Host, strconv.Itoa(r.cfg.Port))

	conn, err := r.dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(r.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err = conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	if r.cfg.ImplicitTLS {
		tlsConn := tls.Client(conn, r.tlsConfig())
		if err = tlsConn.HandshakeContext(ctx); err != nil {
			return fmt.Errorf("tls handshake: %w", err)
		}

		conn = tlsConn
	}

	c, err := smtp.NewClient(conn, r.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp greeting: %w", err)
	}
	defer c.Close()

	if !r.cfg.ImplicitTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err = c.StartTLS(r.tlsConfig()); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if auth := r.auth(); auth != nil {
		if err = c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err = c.Mail(r.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}

	if err = c.Rcpt(r.cfg.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}

	if _, err = w.Write(Compose(msg, r.cfg.From, r.cfg.To, r.now())); err != nil {
		return fmt.Errorf("write message: %w", err)
	}

	if err = w.Close(); err != nil {
		return fmt.Errorf("end of data: %w", err)
	}

	return c.Quit()
}

type loginAuth struct {
	username, password, host string
}

// LoginAuth implements the AUTH LOGIN mechanism. Like smtp.PlainAuth it
// refuses to send credentials over an unencrypted connection to a remote host.
func LoginAuth(username, password, host string) smtp.Auth {
	return &loginAuth{username: username, password: password, host: host}
}

func isLocalhost(name string) bool {
	return name == "localhost" || name == "127.0.0.1" || name == "::1"
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS && !isLocalhost(server.Name) {
		return "", nil, errors.New("unencrypted connection")
	}

	if server.Name != a.host {
		return "", nil, errors.New("wrong host name")
	}

	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}

	prompt := strings.ToLower(strings.TrimSpace(string(fromServer)))

	switch {
	case strings.HasPrefix(prompt, "user"):
		return []byte(a.username), nil
	case strings.HasPrefix(prompt, "pass"):
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected login challenge %q", fromServer)
	}
}
