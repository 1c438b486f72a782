package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accessinsight/accessinsight/modules/governance/infrastructure/persistence"
)

func newShowCmd() *cobra.Command {
	var store storeFlags

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the workspace snapshot as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, _, err := loadWorkspace(cmd.Context(), store)
			if err != nil {
				return err
			}
			return writeJSONLine(persistence.ToModel(snap))
		},
	}

	store.register(cmd)
	return cmd
}

func newClearCmd() *cobra.Command {
	var store storeFlags
	var confirmed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Wipe the workspace snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd.Context(), store, confirmed)
		},
	}

	store.register(cmd)
	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm the wipe")
	return cmd
}

func runClear(ctx context.Context, store storeFlags, confirmed bool) error {
	if !confirmed {
		return withCode(exitUsage, fmt.Errorf("refusing to clear without --yes"))
	}
	repo, err := store.repository()
	if err != nil {
		return err
	}
	if err := repo.Delete(ctx); err != nil {
		return withCode(exitStoreWrite, fmt.Errorf("clear workspace: %w", err))
	}
	return writeJSONLine(map[string]any{"cleared": true})
}
