package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/bluecite/internal/rules"
)

type retrieveOptions struct {
	corpus string
	format string
	quota  int
}

func newRetrieveCmd() *cobra.Command {
	var opts retrieveOptions

	cmd := &cobra.Command{
		Use:   "retrieve [flags] text...",
		Short: "Show the rules retrieved for a citation text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := buildIndex(opts.corpus, opts.format)
			if err != nil {
				return err
			}

			result, err := rules.NewRetriever(index).Retrieve(strings.Join(args, " "), opts.quota)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&opts.corpus, "corpus", "", "rule corpus file")
	cmd.Flags().StringVar(&opts.format, "format", "", "corpus format: yaml or json (default by extension)")
	cmd.Flags().IntVar(&opts.quota, "quota", 5, "rules returned per bucket")
	cmd.MarkFlagRequired("corpus")

	return cmd
}

func buildIndex(path, format string) (*rules.Index, error) {
	f, err := rules.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	corpus, err := rules.Load(path, f)
	if err != nil {
		return nil, err
	}

	return rules.Build(corpus, rules.NewWordTokenizer())
}
