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

	"github.com/apex/log"
	"github.com/marpio/gallery/syncronizer"
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync SINK",
	Short: "Copy the gallery from the configured source to another sink.",
	Long: `Copy the gallery from the configured source to SINK, one of
document, sqlite or log. The document sink uses the configured storage.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runSync(ctx, args[0])
	},
}

func init() {
	RootCmd.AddCommand(syncCmd)
}

func runSync(ctx context.Context, to string) error {
	logctx := log.WithFields(log.Fields{
		"cmd":  "gallery-cli sync",
		"from": cfg.Source,
		"to":   to,
	})
	c := *cfg
	c.Sink = to
	if err := c.Validate(); err != nil {
		return err
	}
	src, closeSrc, err := openSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	sink, closeSink, err := openSink(ctx, &c, logctx)
	if err != nil {
		return err
	}
	defer closeSink()
	_, err = syncronizer.New(src, sink).Execute(ctx, logctx)
	return err
}
