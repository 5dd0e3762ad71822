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
	"fmt"
	"io"
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/multi"
	"github.com/apex/log/handlers/text"
	"github.com/marpio/gallery/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	envFile string
	v       = config.New()
	cfg     *config.Config
	logFile io.Closer
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "gallery-cli",
	Short: "Manage a JSON gallery document.",
	Long: `gallery-cli loads a gallery document ({"images": [...]}) from a file,
Backblaze B2, S3 or an HTTP url, and lists, edits or serves its items.
Every change is written back through the configured sink.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return err
		}
		return initLog()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	f := RootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gallery.yaml)")
	f.StringVar(&envFile, "env-file", "settings.env", "optional file with KEY=value settings")
	f.String("storage", config.StorageFS, "document storage: fs, b2 or s3")
	f.String("source", config.SourceDocument, "where to load the gallery from: document, http or sqlite")
	f.String("sink", config.SinkDocument, "where to write changes: document, sqlite or log")
	f.String("document", "database.json", "document name")
	f.String("data-dir", ".", "directory of the document for the fs storage")
	f.String("log-level", "info", "log level")
	f.String("log-file", "", "also write json logs to this file")
	for name, key := range map[string]string{
		"storage":   "storage",
		"source":    "source",
		"sink":      "sink",
		"document":  "document",
		"data-dir":  "data_dir",
		"log-level": "log_level",
		"log-file":  "log_file",
	} {
		v.BindPFlag(key, f.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	if err := config.LoadEnvFile(envFile); err != nil {
		return fmt.Errorf("loading %v: %w", envFile, err)
	}
	used, err := config.ReadConfigFile(v, cfgFile)
	if err != nil {
		return err
	}
	c, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = c
	if used != "" {
		log.WithField("file", used).Debug("using config file")
	}
	return nil
}

func initLog() error {
	lvl, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	if cfg.LogFile == "" {
		log.SetHandler(text.New(os.Stderr))
		return nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	logFile = f
	log.SetHandler(multi.New(
		text.New(os.Stderr),
		json.New(f),
	))
	return nil
}
