// Copyright © 2017 NAME HERE <EMAIL ADDRESS>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/marpio/gallery/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the gallery over HTTP.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", ":5000", "listen address")
	f.String("username", "", "basic auth user name; empty disables auth")
	f.String("password", "", "basic auth password")
	v.BindPFlag("addr", f.Lookup("addr"))
	v.BindPFlag("username", f.Lookup("username"))
	v.BindPFlag("password", f.Lookup("password"))
	RootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	logctx := log.WithFields(log.Fields{
		"cmd":  "gallery-cli serve",
		"addr": cfg.Addr,
	})

	st, closeStore, err := openStore(ctx, cfg, logctx)
	if err != nil {
		return err
	}
	defer closeStore()
	res := st.Initialize(ctx)
	if res.Degraded() {
		logctx.WithError(res.Err).Warn("serving an empty gallery")
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(st, logctx).Handler(cfg.Username, cfg.Password),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logctx.Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logctx.Warn("SIGINT or SIGTERM - saving and terminating...")
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logctx.WithError(err).Error("error shutting down")
		}
		if !st.Initialize(shutdownCtx).Writable() {
			logctx.Warn("gallery never loaded, skipping save")
		} else if err := st.Persist(shutdownCtx); err != nil {
			return err
		}
	}
	logctx.Info("done serving.")
	return nil
}
