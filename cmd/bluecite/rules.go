package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/bluecite/internal/rules"
	"github.com/JaimeStill/bluecite/internal/stages"
)

type rulesCheckOptions struct {
	corpus   string
	format   string
	patterns string
}

type checkReport struct {
	Stats   rules.Stats `json:"stats"`
	Missing []string    `json:"missing_rules"`
}

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect rule corpora",
	}
	cmd.AddCommand(newRulesCheckCmd())
	return cmd
}

func newRulesCheckCmd() *cobra.Command {
	var opts rulesCheckOptions

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a corpus and the rules the deterministic stages enforce",
		Long: `Loads and indexes the corpus, compiles the regex patterns, and verifies that
every rule cited by a regex error pattern or a structural check exists in the
corpus. Findings bound to a missing rule always fail evidence validation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			index, err := buildIndex(opts.corpus, opts.format)
			if err != nil {
				return err
			}

			patterns, err := stages.DefaultPatterns()
			if opts.patterns != "" {
				patterns, err = stages.LoadPatterns(opts.patterns)
			}
			if err != nil {
				return err
			}

			report := checkReport{
				Stats:   index.Corpus().Stats(),
				Missing: []string{},
			}
			for _, ref := range stages.MissingRules(patterns, index.Corpus()) {
				report.Missing = append(report.Missing, ref.String())
			}

			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if len(report.Missing) > 0 {
				return fmt.Errorf("corpus is missing %d enforced rules", len(report.Missing))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.corpus, "corpus", "", "rule corpus file")
	cmd.Flags().StringVar(&opts.format, "format", "", "corpus format: yaml or json (default by extension)")
	cmd.Flags().StringVar(&opts.patterns, "patterns", "", "regex pattern file (default embedded patterns)")
	cmd.MarkFlagRequired("corpus")

	return cmd
}
