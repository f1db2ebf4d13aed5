package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/biodata-tracker/constants"
	"github.com/joseph-ayodele/biodata-tracker/internal/extract"
)

type extractOutput struct {
	File       string         `json:"file"`
	Model      string         `json:"model"`
	Confidence float64        `json:"confidence"`
	Fields     map[string]any `json:"fields"`
}

func newExtractCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file>",
		Short: "Run the configured extractor on one document and print the fields as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			if err := cfg.Validate(); err != nil {
				return err
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			extractor, closeExtractor, err := ctx.newExtractor(cmd.Context())
			if err != nil {
				return err
			}
			defer closeExtractor()

			name := filepath.Base(args[0])
			callCtx, cancel := context.WithTimeout(cmd.Context(), cfg.Extract.ItemTimeout)
			defer cancel()
			res, err := extractor.Extract(callCtx, extract.Document{
				Content:  content,
				MIMEHint: constants.MapExtToMIME(filepath.Ext(name)),
				Filename: name,
			})
			if err != nil {
				return extract.Classify(callCtx, err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(extractOutput{
				File:       name,
				Model:      res.Model,
				Confidence: res.Confidence,
				Fields:     res.Fields.Map(),
			})
		},
	}
}
