// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package pop3

import (
	"fmt"
	"io"
	"net"
	"net/textproto"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func _fl(depth int) string {
	_, file, line, _ := runtime.Caller(depth + 1)
	return fmt.Sprintf("[%s:%d]", filepath.Base(file), line)
}

func ok(t testing.TB, err error) {
	if err != nil {
		t.Errorf("%s unexpected error: %v", _fl(1), err)
	}
}

// testServer is a loopback POP3 server with a single mailbox, enough of
// RFC 1939 to exercise the client.
type testServer struct {
	user, pass string
	msgs       map[int]*testMessage
}

type testMessage struct {
	seq     int
	size    int
	deleted bool
	body    string
}

func newTestServer() *testServer {
	return &testServer{
		user: "u",
		pass: "p",
		msgs: make(map[int]*testMessage),
	}
}

func runServer(t *testing.T, s *testServer) net.Listener {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal(err)
		return nil
	}

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go s.acceptConnection(conn)
		}
	}()
	return l
}

type serverState int

const (
	stateAuth serverState = iota
	stateTxn
)

func (s *testServer) acceptConnection(netConn net.Conn) {
	tp := textproto.NewConn(netConn)
	defer tp.Close()

	state := stateAuth
	user := ""

	tp.PrintfLine("+OK POP3 (popdesk-test) server ready")

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}

		var cmd string
		fmt.Sscanf(line, "%s", &cmd)

		switch strings.ToUpper(cmd) {
		case "QUIT":
			tp.PrintfLine("+OK goodbye")
			return
		case "USER":
			if state != stateAuth {
				tp.PrintfLine("-ERR not in AUTHORIZATION")
				continue
			}
			user = line[len("USER "):]
			tp.PrintfLine("+OK")
		case "PASS":
			if state != stateAuth || user != s.user || line[len("PASS "):] != s.pass {
				tp.PrintfLine("-ERR invalid credentials")
				continue
			}
			state = stateTxn
			tp.PrintfLine("+OK")
		case "STAT":
			if state != stateTxn {
				tp.PrintfLine("-ERR not in TRANSACTION")
				continue
			}
			num, size := 0, 0
			for _, msg := range s.msgs {
				if msg.deleted {
					continue
				}
				num++
				size += msg.size
			}
			tp.PrintfLine("+OK %d %d", num, size)
		case "LIST":
			if state != stateTxn {
				tp.PrintfLine("-ERR not in TRANSACTION")
				continue
			}
			tp.PrintfLine("+OK scan listing")
			for seq := 1; seq <= len(s.msgs); seq++ {
				if msg, found := s.msgs[seq]; found && !msg.deleted {
					tp.PrintfLine("%d %d", msg.seq, msg.size)
				}
			}
			tp.PrintfLine(".")
		case "RETR":
			msg := s.requestedMessage(tp, state, line)
			if msg == nil {
				continue
			}
			tp.PrintfLine("+OK %d", msg.size)
			w := tp.DotWriter()
			io.WriteString(w, msg.body)
			w.Close()
		case "DELE":
			msg := s.requestedMessage(tp, state, line)
			if msg == nil {
				continue
			}
			msg.deleted = true
			tp.PrintfLine("+OK")
		case "NOOP":
			tp.PrintfLine("+OK")
		default:
			tp.PrintfLine("-ERR unknown command")
		}
	}
}

func (s *testServer) requestedMessage(tp *textproto.Conn, state serverState, line string) *testMessage {
	if state != stateTxn {
		tp.PrintfLine("-ERR not in TRANSACTION")
		return nil
	}
	var cmd string
	var seq int
	if _, err := fmt.Sscanf(line, "%s %d", &cmd, &seq); err != nil {
		tp.PrintfLine("-ERR syntax error")
		return nil
	}
	msg, found := s.msgs[seq]
	if !found || msg.deleted {
		tp.PrintfLine("-ERR no such message")
		return nil
	}
	return msg
}
