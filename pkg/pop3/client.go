// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

// Package pop3 implements the client side of the Post Office Protocol,
// version 3 (RFC 1939), restricted to the minimal command set needed to
// sign in, list, retrieve, and delete messages.
package pop3

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultPort is used when the server address carries no explicit port.
const DefaultPort = 110

// ServerError is a `-ERR` reply from the server. The Detail text is reported
// verbatim, as the server sent it.
type ServerError struct {
	Detail string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %s", e.Detail)
}

// ListEntry is one line of a LIST scan listing.
type ListEntry struct {
	// Seq is the 1-based message sequence number assigned by the server.
	Seq int
	// Size is the message size in octets.
	Size int
}

// Client is a connection to a POP3 server. A Client is not goroutine safe;
// commands must be issued one at a time.
type Client struct {
	// Timeout bounds each command round trip when non-zero. NewClient sets
	// it; it may be adjusted between commands.
	Timeout time.Duration

	nc       net.Conn
	tp       *textproto.Conn
	log      *zap.Logger
	greeting string
}

// Dial connects to the POP3 server at addr and consumes the greeting. If addr
// has no port, DefaultPort is used. A non-zero timeout bounds every round
// trip, the greeting included.
func Dial(ctx context.Context, addr string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, strconv.Itoa(DefaultPort))
	}

	var dialer net.Dialer
	nc, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("Failed to connect: %w", err)
	}

	return NewClient(nc, timeout, log)
}

// NewClient creates a Client over an already-established connection and
// consumes the server greeting. The deadline applies before the greeting is
// read: a server that accepts the connection but never sends its banner must
// not block the caller forever.
func NewClient(nc net.Conn, timeout time.Duration, log *zap.Logger) (*Client, error) {
	c := &Client{
		Timeout: timeout,
		nc:      nc,
		tp:      textproto.NewConn(nc),
		log:     log.With(zap.Stringer("address", nc.RemoteAddr())),
	}
	if timeout > 0 {
		nc.SetDeadline(time.Now().Add(timeout))
	}
	var err error
	c.greeting, err = c.readReplyLine()
	if err != nil {
		c.tp.Close()
		return nil, fmt.Errorf("Failed to open connection: %w", err)
	}
	return c, nil
}

// Greeting returns the server banner sent when the connection was opened.
func (c *Client) Greeting() string {
	return c.greeting
}

// Login authenticates the connection with the USER and PASS commands. The
// server rejecting either command surfaces as a *ServerError.
func (c *Client) Login(user, pass string) error {
	if _, err := c.transaction("USER %s", user); err != nil {
		return err
	}
	if _, err := c.transaction("PASS %s", pass); err != nil {
		return err
	}
	c.log.Info("Opened mailbox", zap.String("user", user))
	return nil
}

// Stat reports the number of messages in the mailbox and their total size.
func (c *Client) Stat() (count, size int, err error) {
	reply, err := c.transaction("STAT")
	if err != nil {
		return 0, 0, err
	}
	if n, err := fmt.Sscanf(reply, "%d %d", &count, &size); n != 2 || err != nil {
		return 0, 0, fmt.Errorf("Bad STAT reply %q", reply)
	}
	return count, size, nil
}

// List returns the scan listing for every message in the mailbox, in server
// order.
func (c *Client) List() ([]ListEntry, error) {
	if _, err := c.transaction("LIST"); err != nil {
		return nil, err
	}
	lines, err := c.tp.ReadDotLines()
	if err != nil {
		return nil, err
	}
	entries := make([]ListEntry, len(lines))
	for i, line := range lines {
		var entry ListEntry
		n, err := fmt.Sscanf(line, "%d %d", &entry.Seq, &entry.Size)
		if n != 2 || err != nil {
			c.log.Error("Bad scan listing line", zap.Int("index", i), zap.String("line", line))
			return nil, fmt.Errorf("Bad server reply")
		}
		entries[i] = entry
	}
	return entries, nil
}

// Retrieve fetches the full content of the message numbered seq. The returned
// reader must be fully consumed before the next command is issued.
func (c *Client) Retrieve(seq int) (io.Reader, error) {
	if _, err := c.transaction("RETR %d", seq); err != nil {
		return nil, err
	}
	return c.tp.DotReader(), nil
}

// Delete marks the message numbered seq as deleted. The server commits
// deletions when the session ends with Quit.
func (c *Client) Delete(seq int) error {
	_, err := c.transaction("DELE %d", seq)
	return err
}

// Quit ends the session with the QUIT command, committing any deletions.
func (c *Client) Quit() error {
	_, err := c.transaction("QUIT")
	return err
}

// Close tears down the connection without issuing any command.
func (c *Client) Close() error {
	return c.tp.Close()
}

func (c *Client) transaction(format string, args ...any) (string, error) {
	log := c.log.With(zap.String("command", format))
	log.Debug("Sending transaction")
	if c.Timeout > 0 {
		c.nc.SetDeadline(time.Now().Add(c.Timeout))
	}
	if err := c.tp.PrintfLine(format, args...); err != nil {
		log.Error("Failed to send command")
		return "", err
	}
	reply, err := c.readReplyLine()
	if err != nil {
		log.Error("Command failed", zap.Error(err))
		return reply, err
	}
	log.Debug("Command succeeded", zap.String("reply", reply))
	return reply, nil
}

func (c *Client) readReplyLine() (string, error) {
	line, err := c.tp.ReadLine()
	if err != nil {
		return line, err
	}
	if strings.HasPrefix(line, "+OK") {
		return strings.TrimPrefix(line[3:], " "), nil
	}
	if strings.HasPrefix(line, "-ERR") {
		return "", &ServerError{Detail: strings.TrimPrefix(line[4:], " ")}
	}
	return "", fmt.Errorf("Unexpected server reply: %q", line)
}
