// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

// popdesk-export copies every message from a POP3 mailbox into a Gmail
// account, authorizing against Gmail through a local OAuth redirect server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"

	"src.bluestatic.org/popdesk/hostdir"
	"src.bluestatic.org/popdesk/pkg/version"
	"src.bluestatic.org/popdesk/session"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s config.json\n", os.Args[0])
		os.Exit(1)
	}

	if os.Args[1] == "version" {
		fmt.Print(version.VersionString)
		os.Exit(0)
	}

	configFile, err := os.Open(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config file: %s\n", err)
		os.Exit(2)
	}

	var config Config
	if err := json.NewDecoder(configFile).Decode(&config); err != nil {
		fmt.Fprintf(os.Stderr, "config file: %s\n", err)
		os.Exit(3)
	}
	configFile.Close()

	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config file: %s\n", err)
		os.Exit(3)
	}

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Development = false
	logConfig.DisableStacktrace = true
	logConfig.Level.SetLevel(zap.DebugLevel)
	log, err := logConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(4)
	}

	log.Info("starting popdesk-export")

	dir, err := hostdir.Load(config.HostsPath)
	if err != nil {
		log.Fatal("Failed to load host directory", zap.Error(err))
	}

	clientSecret, err := os.ReadFile(config.OAuthServer.CredentialsPath)
	if err != nil {
		log.Fatal("Failed to read client secret", zap.Error(err))
	}
	oauthConfig, err := google.ConfigFromJSON(clientSecret, gmail.GmailInsertScope)
	if err != nil {
		log.Fatal("Failed to load API config", zap.Error(err))
	}

	ctx := context.Background()

	auth := runAuthServer(ctx, config.OAuthServer, oauthConfig, log)
	token, err := auth.Token(ctx, config.Destination.Email)
	if err != nil {
		log.Fatal("Failed to get OAuth token", zap.Error(err))
	}

	dest, err := newGmailDestination(ctx, auth.client(ctx, token), log)
	if err != nil {
		log.Fatal("Failed to create GMail client", zap.Error(err))
	}

	transport := session.NewPOP3Transport(config.CommandTimeout, log)
	sess := session.New(dir, transport, log)
	defer sess.End()

	if err := sess.SignIn(ctx, config.Source.Email, config.Source.Password); err != nil {
		log.Fatal("Failed to sign in to source mailbox", zap.Error(err))
	}

	log.Info("Exporting mailbox",
		zap.String("source", sess.Address()),
		zap.Int("count", sess.MessageCount()))

	var exported []int
	for _, msg := range sess.Messages() {
		if err := dest.AddMessage(msg.Raw); err != nil {
			log.Error("Failed to store message", zap.Int("seq", msg.Seq), zap.Error(err))
			continue
		}
		exported = append(exported, msg.Seq)
	}

	if config.DeleteAfterExport {
		// Each deletion commits when its session ends, renumbering the
		// messages after it, so delete the highest numbers first.
		for i := len(exported) - 1; i >= 0; i-- {
			if err := sess.DeleteMessage(ctx, exported[i]); err != nil {
				log.Error("Failed to delete message", zap.Int("seq", exported[i]), zap.Error(err))
			}
		}
	}

	log.Info("Export finished", zap.Int("exported", len(exported)))
}
