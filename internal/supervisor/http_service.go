// Storelens - Retail Analytics Dashboard Engine
// Copyright 2026 Storelens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storelens/storelens

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/storelens/storelens/internal/logging"
)

// HTTPService adapts an http.Server to the suture service contract with
// graceful shutdown.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewHTTPService wraps the server.
func NewHTTPService(server *http.Server, shutdownTimeout time.Duration) *HTTPService {
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve runs the server until ctx is cancelled, then drains connections.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.server.Addr).Msg("http server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("http server shutdown failed")
		return err
	}
	logging.Info().Msg("http server stopped")
	return ctx.Err()
}

func (s *HTTPService) String() string { return "http-server" }
