package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/accessinsight/accessinsight/modules/governance/domain/identity"
	"github.com/accessinsight/accessinsight/modules/governance/services"
)

func newExportCmd() *cobra.Command {
	var store storeFlags
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the merged access report as an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), store, output)
		},
	}

	store.register(cmd)
	cmd.Flags().StringVar(&output, "output", "", "Destination .xlsx path (required)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runExport(ctx context.Context, store storeFlags, output string) error {
	snap, _, err := loadWorkspace(ctx, store)
	if err != nil {
		return err
	}

	buf, err := services.NewExportService(identity.DefaultPolicy()).BuildWorkbook(snap)
	if err != nil {
		return withCode(exitValidation, fmt.Errorf("build report: %w", err))
	}
	if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
		return withCode(exitStoreWrite, fmt.Errorf("write %s: %w", output, err))
	}

	accesses := 0
	for _, u := range snap.Users {
		accesses += len(u.Accesses())
	}
	return writeJSONLine(map[string]any{
		"output": output,
		"users":  len(snap.Users),
		"rows":   accesses,
	})
}
