package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/accessinsight/accessinsight/modules/governance/domain/identity"
	"github.com/accessinsight/accessinsight/modules/governance/domain/reconcile"
	"github.com/accessinsight/accessinsight/modules/governance/domain/snapshot"
	"github.com/accessinsight/accessinsight/modules/governance/importing"
)

type importOptions struct {
	store      storeFlags
	sheetPath  string
	systemName string
	dryRun     bool
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Merge a spreadsheet of per-system permissions into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), opts)
		},
	}

	opts.store.register(cmd)
	cmd.Flags().StringVar(&opts.sheetPath, "file", "", "Spreadsheet to import (.xlsx or .csv, required)")
	cmd.Flags().StringVar(&opts.systemName, "system", "", "System name applied to rows without one")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Merge and report, but do not save")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func parseSheet(path string) ([]reconcile.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("open %s: %w", path, err))
	}
	defer func() {
		_ = f.Close()
	}()

	var rows []reconcile.Row
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		rows, err = importing.ParseCSV(f)
	} else {
		rows, err = importing.ParseXLSX(f)
	}
	if err != nil {
		return nil, withCode(exitValidation, fmt.Errorf("parse %s: %w", path, err))
	}
	return rows, nil
}

func runImport(ctx context.Context, opts importOptions) error {
	repo, err := opts.store.repository()
	if err != nil {
		return err
	}

	rows, err := parseSheet(opts.sheetPath)
	if err != nil {
		return err
	}

	prior, _, err := repo.Load(ctx)
	if err != nil {
		return withCode(exitStore, fmt.Errorf("load workspace: %w", err))
	}

	before := len(prior.Users)
	next := reconcile.Reconcile(prior, rows, time.Now().UTC(), opts.systemName, identity.DefaultPolicy())

	if !opts.dryRun {
		if err := repo.Save(ctx, next); err != nil {
			return withCode(exitStoreWrite, fmt.Errorf("save workspace: %w", err))
		}
	}

	return writeJSONLine(map[string]any{
		"rowsMerged":   len(rows),
		"newUsers":     len(next.Users) - before,
		"usersTotal":   len(next.Users),
		"systemsTotal": len(next.Systems),
		"dryRun":       opts.dryRun,
	})
}

func loadWorkspace(ctx context.Context, opts storeFlags) (snapshot.Snapshot, snapshot.Repository, error) {
	repo, err := opts.repository()
	if err != nil {
		return snapshot.Empty(), nil, err
	}
	s, _, err := repo.Load(ctx)
	if err != nil {
		return snapshot.Empty(), nil, withCode(exitStore, fmt.Errorf("load workspace: %w", err))
	}
	return s, repo, nil
}
