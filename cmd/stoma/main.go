// Copyright 2025 Kadir Pekel
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

// Command stoma indexes a filesystem tree into a full-text search
// service, tracking what it has already seen in a relational catalog.
//
// Usage:
//
//	stoma initdb --config stoma.yaml
//	stoma index --config stoma.yaml /srv/documents
//	stoma drop --config stoma.yaml --yes
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dmdm/stoma-go/internal/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Initdb InitdbCmd `cmd:"" help:"Create the catalog schema and search index."`
	Index  IndexCmd  `cmd:"" help:"Walk a directory, analyse and index changed files."`
	Drop   DropCmd   `cmd:"" help:"Drop the catalog schema and search index."`

	Config    string `short:"c" help:"Path to config file." type:"path" default:"stoma.yaml"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose, json, or custom)." default:"simple"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("stoma"),
		kong.Description("Incremental filesystem-to-search-index pipeline."),
		kong.UsageOnError(),
	)

	output := os.Stderr
	if cli.LogFile != "" {
		f, cleanup, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fatal: open log file: %v\n", err)
			os.Exit(1)
		}
		defer cleanup()
		output = f
	}

	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	logger.Init(level, output, cli.LogFormat)

	if err := ctx.Run(&cli); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
