// popdesk
// Copyright 2025 Blue Static <https://www.bluestatic.org>
// This program is free software licensed under the GNU General Public License,
// version 3.0. The full text of the license can be found in LICENSE.txt.
// SPDX-License-Identifier: GPL-3.0-only

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const tokenStoreVersion = 1

type (
	tokenMap map[string]*oauth2.Token

	tokenStore struct {
		Version int
		Tokens  tokenMap
	}
)

func readTokenStore(path string) (*tokenStore, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &tokenStore{Version: tokenStoreVersion, Tokens: make(tokenMap)}, nil
		}
		return nil, err
	}
	defer f.Close()
	var ts *tokenStore
	if err := json.NewDecoder(f).Decode(&ts); err != nil {
		return nil, err
	}
	if ts.Version != tokenStoreVersion {
		return nil, fmt.Errorf("Invalid tokenStore version, got %d, expected %d", ts.Version, tokenStoreVersion)
	}
	return ts, nil
}

func (ts *tokenStore) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(ts)
}

// authServer obtains Gmail OAuth tokens, reusing stored tokens and running a
// local redirect endpoint to capture new authorization codes.
type authServer struct {
	log      *zap.Logger
	sc       OAuthServerConfig
	o2c      *oauth2.Config
	mu       sync.Mutex
	codeReqs map[string]chan<- string
}

func runAuthServer(ctx context.Context, sc OAuthServerConfig, o2c *oauth2.Config, log *zap.Logger) *authServer {
	o2c.RedirectURL = sc.RedirectURL
	s := &authServer{
		log:      log,
		sc:       sc,
		o2c:      o2c,
		codeReqs: make(map[string]chan<- string),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRedirect)
	srv := &http.Server{
		Handler: mux,
		Addr:    sc.ListenAddr,
	}
	go func() {
		log.Info("Starting OAuth server", zap.String("addr", srv.Addr))
		err := srv.ListenAndServe()
		if err == http.ErrServerClosed {
			log.Info("Stopping OAuth server")
		} else {
			log.Error("ListenAndServe", zap.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	return s
}

// Token returns an OAuth token for the user, from the token store if one was
// saved earlier, otherwise by prompting the user to authorize in a browser
// and waiting for the redirect to deliver the code.
func (s *authServer) Token(ctx context.Context, userid string) (*oauth2.Token, error) {
	log := s.log.With(zap.String("userid", userid))

	ts, err := readTokenStore(s.sc.TokenStore)
	if err != nil {
		return nil, err
	}
	if token, found := ts.Tokens[userid]; found {
		return token, nil
	}

	nonce := fmt.Sprintf("rd%d", rand.Int64())
	// Buffered so a redirect arriving after this request gave up can never
	// block the HTTP handler.
	codeCh := make(chan string, 1)
	s.mu.Lock()
	s.codeReqs[nonce] = codeCh
	s.mu.Unlock()

	// `ApprovalForce` is needed in combination with `AccessTypeOffline` in
	// order to get a refresh token.
	url := s.o2c.AuthCodeURL(nonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	log.Info("Requesting authorization", zap.String("nonce", nonce), zap.String("url", url))

	var code string
	select {
	case code = <-codeCh:
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.codeReqs, nonce)
		s.mu.Unlock()
		return nil, ctx.Err()
	}

	log.Info("Received code, exchanging for token")
	token, err := s.o2c.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	ts, err = readTokenStore(s.sc.TokenStore)
	if err != nil {
		return nil, err
	}
	ts.Tokens[userid] = token
	if err := ts.Save(s.sc.TokenStore); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *authServer) handleRedirect(rw http.ResponseWriter, req *http.Request) {
	id := req.FormValue("state")
	s.mu.Lock()
	ch, found := s.codeReqs[id]
	if found {
		delete(s.codeReqs, id)
		defer close(ch)
	}
	s.mu.Unlock()

	log := s.log.With(zap.String("id", id))

	if !found {
		log.Error("No channel for token", zap.String("id", id))
		http.Error(rw, "Invalid State", http.StatusBadRequest)
		return
	}
	if code := req.FormValue("code"); code != "" {
		fmt.Fprintln(rw, "<h1>Authorized!</h1>")
		log.Info("Received authorization code", zap.String("id", id))
		ch <- code
		return
	}
	log.Error("Invalid request - missing code", zap.String("id", id))
	http.Error(rw, "Invalid Code", http.StatusBadRequest)
}

func (s *authServer) client(ctx context.Context, token *oauth2.Token) *http.Client {
	return s.o2c.Client(ctx, token)
}
