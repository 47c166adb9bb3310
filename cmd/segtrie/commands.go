// Copyright 2022 Sylvain Müller. All rights reserved.
// Mount of this source code is governed by a Apache-2.0 license that can be found
// at https://github.com/tigerwill90/segtrie/blob/master/LICENSE.txt.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tigerwill90/segtrie"
	"github.com/tigerwill90/segtrie/tmplfile"
)

func newCheckCommand(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Validate template files",
		Long:  "Load every template file in a single registry and report the number of registered templates.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cfg.logger(cmd)
			r, err := cfg.load(logger, args)
			if err != nil {
				logger.Error("check failed", "error", err)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d templates, %d nodes\n", r.Size(), r.NodeCount())
			return nil
		},
	}
}

func newMatchCommand(cfg *config) *cobra.Command {
	var (
		files []string
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "match -t FILE [--all] INPUT...",
		Short: "Match inputs against templates",
		Long: `Match every input against the loaded templates. For each match, print the input,
the template identifier, the template and the wildcard bindings, tab separated.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cfg.logger(cmd)
			r, err := cfg.load(logger, files)
			if err != nil {
				return err
			}

			mode := segtrie.FirstBest
			if all {
				mode = segtrie.All
			}

			out := cmd.OutOrStdout()
			for _, input := range args {
				results, err := r.Match(input, mode)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					logger.Warn("no match", "input", input)
					continue
				}
				for _, res := range results {
					fmt.Fprintf(out, "%s\t%s\t%s", input, res.ID(), res.Template.Pattern())
					if b := formatBindings(res.Bindings); b != "" {
						fmt.Fprintf(out, "\t%s", b)
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&files, "templates", "t", nil, "Template file (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "Print every matching template, most specific first")
	_ = cmd.MarkFlagRequired("templates")

	return cmd
}

func newDumpCommand(cfg *config) *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "dump -t FILE",
		Short: "Print the template trie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := cfg.load(cfg.logger(cmd), files)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), r.String())
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&files, "templates", "t", nil, "Template file (repeatable)")
	_ = cmd.MarkFlagRequired("templates")

	return cmd
}

func newExportCommand(cfg *config) *cobra.Command {
	var (
		files  []string
		format string
	)

	cmd := &cobra.Command{
		Use:   "export -t FILE [-o yaml|text]",
		Short: "Merge template files and print them in a single format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := cfg.load(cfg.logger(cmd), files)
			if err != nil {
				return err
			}

			defs := tmplfile.Export(r)
			switch format {
			case "yaml":
				return tmplfile.EncodeYAML(cmd.OutOrStdout(), defs)
			case "text":
				return tmplfile.EncodeText(cmd.OutOrStdout(), defs)
			default:
				return fmt.Errorf("unknown output format %q", format)
			}
		},
	}

	cmd.Flags().StringSliceVarP(&files, "templates", "t", nil, "Template file (repeatable)")
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "Output format: yaml or text")
	_ = cmd.MarkFlagRequired("templates")

	return cmd
}

func formatBindings(bindings segtrie.Bindings) string {
	if len(bindings) == 0 {
		return ""
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		name := b.Name
		if name == "" {
			name = fmt.Sprintf("$%d", b.Index)
		}
		parts = append(parts, fmt.Sprintf("%s=%q", name, b.Value))
	}
	return strings.Join(parts, " ")
}
