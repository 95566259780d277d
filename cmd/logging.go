// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"

	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/config"
	"github.com/cognitiveclodfr/shopify-fulfillment-tool-sub000/internal/helpers"
)

const debugEnv = "FULFILLMENT_DEBUG"

// setupLogging installs the default logger. Records go to stderr as text
// and, when a log file is configured, to that file as JSON. The returned
// function closes the log file.
func setupLogging(cfg *config.Config, stderr io.Writer) (func() error, error) {
	level := slog.LevelInfo
	if cfg.DevMode || helpers.GetBoolEnv(debugEnv, false) {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	closer := func() error { return nil }
	handlers := []slog.Handler{slog.NewTextHandler(stderr, opts)}

	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return closer, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, opts))
		closer = f.Close
	}

	mode := "production"
	if cfg.DevMode {
		mode = "development"
	}
	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)).With(
		slog.String("mode", mode),
	))
	return closer, nil
}
