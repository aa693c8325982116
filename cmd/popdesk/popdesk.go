// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"src.bluestatic.org/popdesk/hostdir"
	"src.bluestatic.org/popdesk/pkg/version"
	"src.bluestatic.org/popdesk/session"
)

func main() {
	if len(os.Args) > 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s [config.json]\n", os.Args[0])
		os.Exit(1)
	}

	config := DefaultConfig()
	if len(os.Args) == 2 {
		if os.Args[1] == "version" {
			fmt.Print(version.VersionString)
			os.Exit(0)
		}
		var err error
		config, err = LoadConfig(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "config file: %s\n", err)
			os.Exit(2)
		}
	}

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Development = false
	logConfig.DisableStacktrace = true
	logConfig.Level.SetLevel(zap.WarnLevel)
	log, err := logConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(3)
	}

	// Without the host directory no session can be served.
	dir, err := hostdir.Load(config.HostsPath)
	if err != nil {
		log.Fatal("Failed to load host directory", zap.Error(err))
	}

	transport := session.NewPOP3Transport(config.CommandTimeout, log)
	sess := session.New(dir, transport, log)

	ctx := context.Background()
	stdin := bufio.NewScanner(os.Stdin)

	if signIn(ctx, sess, stdin) {
		commandLoop(ctx, sess, stdin)
	}

	sess.End()
}

// signIn prompts until a sign-in succeeds. It returns false when stdin is
// exhausted.
func signIn(ctx context.Context, sess *session.Session, stdin *bufio.Scanner) bool {
	for {
		address, more := prompt(stdin, "email: ")
		if !more {
			return false
		}
		secret, more := prompt(stdin, "password: ")
		if !more {
			return false
		}

		err := sess.SignIn(ctx, address, secret)
		if err == nil {
			fmt.Printf("Signed in as %s, %d message(s)\n", sess.Address(), sess.MessageCount())
			return true
		}

		var formErr *session.CredentialsFormError
		switch {
		case errors.As(err, &formErr):
			fmt.Printf("%s\n", formErr.Reason)
		case errors.Is(err, session.ErrHostNotFound):
			fmt.Printf("no mail server known for that domain\n")
		default:
			fmt.Printf("sign-in failed: %s\n", err)
		}
	}
}

func commandLoop(ctx context.Context, sess *session.Session, stdin *bufio.Scanner) {
	for {
		line, more := prompt(stdin, "> ")
		if !more {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "check":
			if err := sess.RefreshMailbox(ctx); err != nil {
				fmt.Printf("check failed: %s\n", err)
				continue
			}
			fmt.Printf("%d message(s)\n", sess.MessageCount())
		case "list":
			for _, msg := range sess.Messages() {
				fmt.Printf("%3d  %-30s  %s\n", msg.Seq, msg.From, msg.Subject)
			}
			if sess.Stale() {
				fmt.Printf("(list is stale; run check)\n")
			}
		case "read":
			msg := findMessage(sess, fields)
			if msg == nil {
				continue
			}
			fmt.Printf("From: %s\nTo: %s\nSubject: %s\nDate: %s\n\n%s\n",
				msg.From, strings.Join(msg.To, ", "), msg.Subject, msg.Date, msg.Body)
		case "delete":
			if len(fields) != 2 {
				fmt.Printf("usage: delete <number>\n")
				continue
			}
			seq, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Printf("usage: delete <number>\n")
				continue
			}
			if err := sess.DeleteMessage(ctx, seq); err != nil {
				fmt.Printf("delete failed: %s\n", err)
				continue
			}
			fmt.Printf("deleted message %d; run check to refresh\n", seq)
		case "quit", "exit":
			return
		case "help":
			fmt.Printf("commands: check, list, read <n>, delete <n>, quit\n")
		default:
			fmt.Printf("unknown command %q; try help\n", fields[0])
		}
	}
}

func findMessage(sess *session.Session, fields []string) *session.Message {
	if len(fields) != 2 {
		fmt.Printf("usage: %s <number>\n", fields[0])
		return nil
	}
	seq, err := strconv.Atoi(fields[1])
	if err != nil {
		fmt.Printf("usage: %s <number>\n", fields[0])
		return nil
	}
	msgs := sess.Messages()
	for i := range msgs {
		if msgs[i].Seq == seq {
			return &msgs[i]
		}
	}
	fmt.Printf("no message %d in the last listing\n", seq)
	return nil
}

func prompt(stdin *bufio.Scanner, label string) (string, bool) {
	fmt.Print(label)
	if !stdin.Scan() {
		fmt.Println()
		return "", false
	}
	return strings.TrimSpace(stdin.Text()), true
}
