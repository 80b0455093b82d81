// Copyright 2022 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/thediveo/sparouter"
	"github.com/thediveo/sparouter/internal/config"
	"github.com/thediveo/sparouter/internal/demo"
	"github.com/thediveo/sparouter/internal/server"
)

// openBrowser opens the specified URL in the user's browser.
var openBrowser = browser.OpenURL

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sparouter",
		Short: "Serve a single page application",
		Long: `Serve a single page application (SPA) and its static assets, forwarding
all client routes to the SPA's entry document so that the SPA's client-side
router can take over.

A path is a client route when its final segment contains no dot and it has
no more than --max-depth segments; all other paths reference static assets.

Examples:
  sparouter --root ./dist
  sparouter --root ./dist --listen :8080 --max-depth 6
  sparouter --config ./sparouter.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRoot,
	}
	flags := cmd.Flags()
	flags.String("config", "", "YAML configuration file")
	flags.String("env-file", ".env", "environment file to load, if present")
	flags.String("listen", "", "address to listen on, such as \"127.0.0.1:8080\"")
	flags.String("root", "", "SPA bundle directory (default: built-in demo SPA)")
	flags.String("entry", "", "entry document, relative to the bundle directory")
	flags.Int("max-depth", sparouter.DefaultMaxDepth, "maximum number of client route segments, 0 for unlimited")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text, json")
	flags.Bool("open", false, "open the SPA in the default browser")
	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "sparouter: %v\n", err)
		return err
	}
	logger := cfg.Log.NewLogger(cmd.ErrOrStderr())
	if err := serve(cmd.Context(), cfg, logger); err != nil {
		logger.Error("fatal", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// resolveConfig layers defaults, configuration file, environment and finally
// explicitly set command line flags.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	envFile, _ := flags.GetString("env-file")
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.Config{}, err
	}
	configPath, _ := flags.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	strs := map[string]*string{
		"listen":     &cfg.Listen,
		"root":       &cfg.Root,
		"entry":      &cfg.Entry,
		"log-level":  &cfg.Log.Level,
		"log-format": &cfg.Log.Format,
	}
	for name, field := range strs {
		if flags.Changed(name) {
			*field, _ = flags.GetString(name)
		}
	}
	if flags.Changed("max-depth") {
		cfg.MaxDepth, _ = flags.GetInt("max-depth")
	}
	if flags.Changed("open") {
		cfg.Open, _ = flags.GetBool("open")
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newRouter returns the SPA router for the configured bundle, refusing to
// serve a bundle without its entry document.
func newRouter(cfg config.Config) (*sparouter.Router, error) {
	var fsys fs.FS
	entry := cfg.Entry
	if cfg.Root == "" {
		fsys, entry = demo.FS(), demo.EntryDocument
	} else {
		info, err := os.Stat(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("invalid SPA bundle directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("invalid SPA bundle directory %s: not a directory", cfg.Root)
		}
		fsys = os.DirFS(cfg.Root)
	}
	router := sparouter.NewRouter(fsys, entry, sparouter.WithMaxDepth(cfg.MaxDepth))
	if err := router.Validate(); err != nil {
		return nil, err
	}
	return router, nil
}

// serve runs the SPA service until ctx is done or serving fails.
func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	router, err := newRouter(cfg)
	if err != nil {
		return err
	}
	srv := server.New(cfg, router, logger)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	bundle := cfg.Root
	if bundle == "" {
		bundle = "(built-in demo)"
	}
	logger.Info("serving SPA",
		slog.String("bundle", bundle),
		slog.String("entry", router.Entry()),
		slog.Int("max_depth", router.MaxDepth()),
		slog.String("url", srv.URL()))
	if cfg.Open {
		if err := openBrowser(srv.URL()); err != nil {
			logger.Warn("cannot open browser", slog.String("error", err.Error()))
		}
	}
	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-srv.Done():
		return err
	}
}
