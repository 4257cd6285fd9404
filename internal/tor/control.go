package tor

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// controlDialTimeout bounds the TCP connect to the control port. The port
// is on loopback, so a slow connect means the listener is gone.
const controlDialTimeout = 2 * time.Second

// controlIOTimeout bounds each command/reply exchange on an established
// control connection.
const controlIOTimeout = 5 * time.Second

// SignalNewIdentity is the control-port signal that makes Tor switch to
// clean circuits, changing the instance's apparent origin.
const SignalNewIdentity = "NEWNYM"

// Controller speaks the Tor control-port protocol for one instance.
// Each operation opens a fresh administrative connection: authenticate,
// issue the command, quit. Controllers are cheap values; the pool creates
// one per rotation.
type Controller struct {
	// addr is the control listener in host:port form.
	addr string

	// password is sent with AUTHENTICATE when non-empty. Empty matches
	// a torrc with no authentication method configured.
	password string
}

// NewController creates a controller for the loopback control port.
func NewController(controlPort int, password string) *Controller {
	return &Controller{
		addr:     net.JoinHostPort("127.0.0.1", strconv.Itoa(controlPort)),
		password: password,
	}
}

// Signal opens a control connection, authenticates, and issues a single
// SIGNAL command. It returns ErrControlUnavailable when the port does not
// accept connections, ErrControlAuthFailed when authentication is
// rejected, and ErrControlProtocol on any other non-250 reply.
func (c *Controller) Signal(ctx context.Context, signal string) error {
	var d net.Dialer
	dialCtx, cancel := context.WithTimeout(ctx, controlDialTimeout)
	defer cancel()

	conn, err := d.DialContext(dialCtx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrControlUnavailable, c.addr)
	}
	defer conn.Close() //nolint:errcheck // Read side already consumed

	if err := conn.SetDeadline(time.Now().Add(controlIOTimeout)); err != nil {
		return fmt.Errorf("failed to set control deadline: %w", err)
	}

	r := bufio.NewReader(conn)

	// AUTHENTICATE, with the password quoted when configured. Tor replies
	// "250 OK" on success and a 515 on bad credentials.
	authLine := "AUTHENTICATE"
	if c.password != "" {
		authLine = fmt.Sprintf("AUTHENTICATE %q", c.password)
	}
	if err := roundTrip(conn, r, authLine); err != nil {
		return fmt.Errorf("%w: %w", ErrControlAuthFailed, err)
	}

	if err := roundTrip(conn, r, "SIGNAL "+signal); err != nil {
		return err
	}

	// Best-effort goodbye; the reply does not matter.
	_, _ = fmt.Fprintf(conn, "QUIT\r\n") //nolint:errcheck // Connection closes either way

	return nil
}

// NewIdentity sends SIGNAL NEWNYM.
func (c *Controller) NewIdentity(ctx context.Context) error {
	return c.Signal(ctx, SignalNewIdentity)
}

// Addr returns the controller's target address.
func (c *Controller) Addr() string {
	return c.addr
}

// roundTrip writes one command line and checks for a 250-class reply.
// Control replies are CRLF-terminated lines starting with a three-digit
// status; multi-line replies use "250-" continuation lines before the
// final "250 " line, all of which share the status code.
func roundTrip(conn net.Conn, r *bufio.Reader, command string) error {
	if _, err := fmt.Fprintf(conn, "%s\r\n", command); err != nil {
		return fmt.Errorf("failed to send control command: %w", err)
	}

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read control reply: %w", err)
		}
		line = strings.TrimRight(line, "\r\n")

		if len(line) < 3 {
			return fmt.Errorf("%w: %q", ErrControlProtocol, line)
		}
		if !strings.HasPrefix(line, "250") {
			return fmt.Errorf("%w: %q", ErrControlProtocol, line)
		}

		// "250-" and "250+" mark continuations; "250 " (or bare "250")
		// ends the reply.
		if len(line) == 3 || line[3] == ' ' {
			return nil
		}
	}
}
