// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"fmt"
	"time"

	"src.bluestatic.org/popdesk/hostdir"
)

type Config struct {
	// HostsPath is the host directory file used to resolve the source
	// mailbox's domain.
	HostsPath string

	// CommandTimeout bounds each POP3 round trip. Zero disables the
	// deadline.
	CommandTimeout time.Duration

	// Source is the POP3 mailbox to export.
	Source struct {
		Email    string
		Password string
	}

	// Destination is the Gmail account receiving the messages.
	Destination struct {
		Email string
	}

	// DeleteAfterExport removes each message from the source mailbox once
	// it has been stored in the destination.
	DeleteAfterExport bool

	OAuthServer OAuthServerConfig
}

type OAuthServerConfig struct {
	RedirectURL     string
	ListenAddr      string
	CredentialsPath string
	TokenStore      string
}

func (c *Config) Validate() error {
	if c.HostsPath == "" {
		c.HostsPath = hostdir.DefaultPath
	}
	if c.Source.Email == "" || c.Source.Password == "" {
		return fmt.Errorf("Missing Source email/password")
	}
	if c.Destination.Email == "" {
		return fmt.Errorf("Missing Destination email")
	}
	if c.OAuthServer.CredentialsPath == "" {
		return fmt.Errorf("Missing OAuthServer.CredentialsPath")
	}
	if c.OAuthServer.TokenStore == "" {
		return fmt.Errorf("Missing OAuthServer.TokenStore")
	}
	if c.OAuthServer.ListenAddr == "" || c.OAuthServer.RedirectURL == "" {
		return fmt.Errorf("Missing OAuthServer listen/redirect address")
	}
	return nil
}
