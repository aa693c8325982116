// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package pop3

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

// RFC 1939 § 10
func TestClientExampleSession(t *testing.T) {
	s := newTestServer()
	l := runServer(t, s)
	defer l.Close()

	s.msgs[1] = &testMessage{1, 120, false, ""}
	s.msgs[2] = &testMessage{2, 200, false, ""}

	c, err := Dial(context.Background(), l.Addr().String(), time.Minute, zap.NewNop())
	ok(t, err)

	if !strings.Contains(c.Greeting(), "server ready") {
		t.Errorf("Unexpected greeting %q", c.Greeting())
	}

	ok(t, c.Login("u", "p"))

	count, size, err := c.Stat()
	ok(t, err)
	if want, got := 2, count; want != got {
		t.Errorf("Expected %d messages, got %d", want, got)
	}
	if want, got := 320, size; want != got {
		t.Errorf("Expected maildrop size %d, got %d", want, got)
	}

	entries, err := c.List()
	ok(t, err)
	if want, got := 2, len(entries); want != got {
		t.Errorf("Expected %d listing entries, got %d", want, got)
	}
	if want, got := (ListEntry{1, 120}), entries[0]; want != got {
		t.Errorf("Expected entry %v, got %v", want, got)
	}
	if want, got := (ListEntry{2, 200}), entries[1]; want != got {
		t.Errorf("Expected entry %v, got %v", want, got)
	}

	ok(t, c.Quit())
	ok(t, c.Close())
}

func TestClientRetrieve(t *testing.T) {
	s := newTestServer()
	l := runServer(t, s)
	defer l.Close()

	body := `This is a test message.
<html>It contains HTML</html>

and ------
---.
.
Boundary items
`

	s.msgs[1] = &testMessage{1, len(body), false, body}

	c, err := Dial(context.Background(), l.Addr().String(), time.Minute, zap.NewNop())
	ok(t, err)

	ok(t, c.Login("u", "p"))

	r, err := c.Retrieve(1)
	ok(t, err)

	got, err := io.ReadAll(r)
	ok(t, err)

	if string(got) != body {
		t.Errorf("Expected body %q, got %q", body, string(got))
	}

	ok(t, c.Quit())
	ok(t, c.Close())
}

func TestClientServerErrors(t *testing.T) {
	s := newTestServer()
	l := runServer(t, s)
	defer l.Close()

	s.msgs[1] = &testMessage{1, 12, false, "hello world\n"}

	c, err := Dial(context.Background(), l.Addr().String(), time.Minute, zap.NewNop())
	ok(t, err)

	var serverErr *ServerError

	err = c.Login("u", "bad")
	if !errors.As(err, &serverErr) {
		t.Errorf("Expected *ServerError for bad password, got %v", err)
	}

	ok(t, c.Login("u", "p"))

	_, err = c.Retrieve(100)
	if !errors.As(err, &serverErr) {
		t.Errorf("Expected *ServerError for unknown message, got %v", err)
	}
	if !strings.Contains(serverErr.Detail, "no such message") {
		t.Errorf("Expected verbatim server detail, got %q", serverErr.Detail)
	}

	err = c.Delete(100)
	if !errors.As(err, &serverErr) {
		t.Errorf("Expected *ServerError for unknown message, got %v", err)
	}

	ok(t, c.Delete(1))

	err = c.Delete(1)
	if !errors.As(err, &serverErr) {
		t.Errorf("Expected *ServerError for double delete, got %v", err)
	}

	count, _, err := c.Stat()
	ok(t, err)
	if count != 0 {
		t.Errorf("Expected empty maildrop after delete, got %d", count)
	}

	ok(t, c.Quit())
	ok(t, c.Close())
}

func TestClientGreetingTimeout(t *testing.T) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	// Accept the connection but never send a banner.
	quiet := make(chan struct{})
	defer close(quiet)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		<-quiet
	}()

	done := make(chan error, 1)
	go func() {
		_, err := Dial(context.Background(), l.Addr().String(), 100*time.Millisecond, zap.NewNop())
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Errorf("Expected timeout error waiting for the greeting")
		}
	case <-time.After(2 * time.Second):
		t.Errorf("Dial still blocked waiting for the greeting")
	}
}

func TestClientDialError(t *testing.T) {
	// No port in the address exercises the DefaultPort path.
	_, err := Dial(context.Background(), "\x00bad host", 0, zap.NewNop())
	if err == nil {
		t.Errorf("Expected dial error")
	}
}
