// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/segtrie/blob/master/LICENSE.txt.

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/tigerwill90/segtrie"
	"github.com/tigerwill90/segtrie/internal/slogpretty"
	"github.com/tigerwill90/segtrie/tmplfile"
)

// config holds the global flags shared by every command.
type config struct {
	delimiter   string
	single      string
	multi       string
	empty       string
	maxSegments int
	ignoreCase  bool
	verbose     bool
}

func newRootCommand() *cobra.Command {
	cfg := new(config)

	rootCmd := &cobra.Command{
		Use:   "segtrie",
		Short: "Segment trie template matcher",
		Long: `segtrie loads delimiter-separated templates, with single (*) and multi (**)
wildcard segments, and reports which templates match concrete inputs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.delimiter, "delimiter", "/", "Segment delimiter (a single byte)")
	flags.StringVar(&cfg.single, "single", "*", "Single wildcard token")
	flags.StringVar(&cfg.multi, "multi", "**", "Multi wildcard token")
	flags.StringVar(&cfg.empty, "empty", "strict", "Empty segment policy: strict, trim or keep")
	flags.IntVar(&cfg.maxSegments, "max-segments", 0, "Maximum number of segments per template or input (0 for no limit)")
	flags.BoolVar(&cfg.ignoreCase, "ignore-case", false, "Compare literal segments case-insensitively")
	flags.BoolVarP(&cfg.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newCheckCommand(cfg))
	rootCmd.AddCommand(newMatchCommand(cfg))
	rootCmd.AddCommand(newDumpCommand(cfg))
	rootCmd.AddCommand(newExportCommand(cfg))

	return rootCmd
}

func (c *config) logger(cmd *cobra.Command) *slog.Logger {
	lvl := slog.LevelInfo
	if c.verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slogpretty.New(cmd.ErrOrStderr(), cmd.ErrOrStderr(), lvl))
}

func (c *config) options(logger *slog.Logger) ([]segtrie.Option, error) {
	if len(c.delimiter) != 1 {
		return nil, fmt.Errorf("%w: delimiter must be a single byte, got %q", segtrie.ErrInvalidConfig, c.delimiter)
	}

	var empty segtrie.EmptySegmentOption
	switch c.empty {
	case "strict":
		empty = segtrie.StrictSegments
	case "trim":
		empty = segtrie.TrimSegments
	case "keep":
		empty = segtrie.KeepSegments
	default:
		return nil, fmt.Errorf("%w: unknown empty segment policy %q", segtrie.ErrInvalidConfig, c.empty)
	}

	opts := []segtrie.Option{
		segtrie.WithDelimiter(c.delimiter[0]),
		segtrie.WithWildcardTokens(c.single, c.multi),
		segtrie.WithEmptySegments(empty),
		segtrie.WithMaxSegments(c.maxSegments),
		segtrie.WithLogger(logger),
	}
	if c.ignoreCase {
		opts = append(opts, segtrie.WithCaseInsensitive())
	}
	return opts, nil
}

// load creates a registry and registers the templates of every file.
func (c *config) load(logger *slog.Logger, files []string) (*segtrie.Registry, error) {
	opts, err := c.options(logger)
	if err != nil {
		return nil, err
	}

	r, err := segtrie.New(opts...)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		defs, err := tmplfile.Load(file)
		if err != nil {
			return nil, err
		}
		if err := tmplfile.Apply(r, defs); err != nil {
			return nil, err
		}
		logger.Debug("template file loaded", "file", file, "count", len(defs))
	}

	return r, nil
}
