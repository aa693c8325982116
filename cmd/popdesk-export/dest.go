// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"encoding/base64"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Destination stores raw RFC 2822 messages in a destination mail account.
type Destination interface {
	AddMessage([]byte) error
}

type gmailDestination struct {
	svc *gmail.Service
	log *zap.Logger
}

func newGmailDestination(ctx context.Context, client *http.Client, log *zap.Logger) (Destination, error) {
	svc, err := gmail.NewService(ctx,
		option.WithHTTPClient(client),
		option.WithUserAgent("popdesk-export"))
	if err != nil {
		return nil, err
	}
	return &gmailDestination{svc: svc, log: log}, nil
}

func (d *gmailDestination) AddMessage(raw []byte) error {
	call := d.svc.Users.Messages.Insert("me", &gmail.Message{
		LabelIds: []string{"INBOX", "UNREAD"},
		Raw:      base64.RawURLEncoding.EncodeToString(raw),
	})
	result, err := call.Do()
	if err != nil {
		return err
	}
	d.log.Info("Stored message", zap.String("gmail-id", result.Id))
	return nil
}
