package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JaimeStill/bluecite/internal/citations"
	"github.com/JaimeStill/bluecite/internal/config"
	"github.com/JaimeStill/bluecite/internal/infrastructure"
	"github.com/JaimeStill/bluecite/pkg/storage"
)

type validateOptions struct {
	config    string
	citations string
	output    string
}

func newValidateCmd() *cobra.Command {
	var opts validateOptions

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a citation batch with the configured inference service",
		Long: `Runs every citation in the batch through the regex, rule, and LLM stages
and writes the reports, the skipped citation ids, and the batch summary as JSON.
Interrupting the command stops dispatch; citations already running finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.config, "config", "", "config file (default config.toml or $BLUECITE_CONFIG)")
	cmd.Flags().StringVar(&opts.citations, "citations", "", "citation batch JSON file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "report file (default stdout)")
	cmd.MarkFlagRequired("citations")

	return cmd
}

func runValidate(cmd *cobra.Command, opts validateOptions) error {
	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}

	batch, err := citations.Load(opts.citations)
	if err != nil {
		return err
	}

	logger := infrastructure.NewLogger()

	var store storage.System
	if cfg.Corpus.BlobKey != "" {
		if store, err = storage.New(&cfg.Storage, logger); err != nil {
			return fmt.Errorf("storage init failed: %w", err)
		}
	}

	engine, err := infrastructure.NewEngine(cmd.Context(), cfg, store, logger)
	if err != nil {
		return err
	}

	result := engine.Orchestrator(nil).Run(cmd.Context(), batch.Citations)

	var out io.Writer = cmd.OutOrStdout()
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := writeJSON(out, result); err != nil {
		return fmt.Errorf("write reports: %w", err)
	}

	if len(result.Skipped) > 0 {
		return fmt.Errorf("batch cancelled: %d citations skipped", len(result.Skipped))
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}
