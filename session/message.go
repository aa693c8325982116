// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package session

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
)

// Message is one mail message fetched into a mailbox snapshot. It is
// immutable once fetched; the sequence number is only meaningful within the
// snapshot it was fetched into.
type Message struct {
	// Seq is the 1-based sequence number assigned by the server.
	Seq int
	// Size is the message size in octets, as reported by the server.
	Size int

	From    string
	To      []string
	Subject string
	Date    time.Time

	// Body is the text content of the message: the first text/plain part,
	// or the whole raw message if it could not be parsed as RFC 822.
	Body string

	// Raw is the message exactly as the server sent it.
	Raw []byte
}

// parseMessage builds a Message from the raw RFC 822 bytes retrieved from the
// server. A message that cannot be parsed is kept with its raw content as the
// body rather than dropped; a snapshot must hold every message the server
// listed.
func parseMessage(seq, size int, raw []byte) Message {
	msg := Message{
		Seq:  seq,
		Size: size,
		Raw:  raw,
	}

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		msg.Body = string(raw)
		return msg
	}
	defer mr.Close()

	msg.Subject, _ = mr.Header.Subject()
	msg.Date, _ = mr.Header.Date()
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		msg.From = from[0].String()
	}
	if to, err := mr.Header.AddressList("To"); err == nil {
		for _, addr := range to {
			msg.To = append(msg.To, addr.String())
		}
	}

	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}
		header, inline := part.Header.(*mail.InlineHeader)
		if !inline {
			continue
		}
		contentType, _, _ := header.ContentType()
		if !strings.HasPrefix(contentType, "text/plain") {
			continue
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		msg.Body = string(body)
		break
	}

	return msg
}
