package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/accessinsight/accessinsight/modules/governance/domain/snapshot"
	"github.com/accessinsight/accessinsight/modules/governance/infrastructure/persistence"
	"github.com/accessinsight/accessinsight/pkg/logging"
)

type storeFlags struct {
	remoteURL     string
	workspaceFile string
	mirrorPath    string
	verbose       bool
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.remoteURL, "remote", "", "Workspace endpoint URL (e.g. http://host:3200/api/workspace)")
	cmd.Flags().StringVar(&f.workspaceFile, "workspace-file", "", "Local workspace JSON file (used when --remote is not set)")
	cmd.Flags().StringVar(&f.mirrorPath, "mirror", "", "Local mirror file kept alongside a remote workspace")
	cmd.Flags().BoolVar(&f.verbose, "verbose", false, "Log store activity to stderr")
}

func (f *storeFlags) logger() *logrus.Logger {
	if f.verbose {
		return logging.ConsoleLogger(logrus.InfoLevel)
	}
	return logging.ConsoleLogger(logrus.ErrorLevel)
}

// repository resolves the flag combination into a snapshot store:
// remote endpoint (optionally mirrored) or a plain local file.
func (f *storeFlags) repository() (snapshot.Repository, error) {
	remote := strings.TrimSpace(f.remoteURL)
	file := strings.TrimSpace(f.workspaceFile)

	switch {
	case remote != "" && strings.TrimSpace(f.mirrorPath) != "":
		return persistence.NewMirroredSnapshotRepository(
			persistence.NewHTTPSnapshotRepository(remote, nil),
			persistence.NewFileSnapshotRepository(f.mirrorPath),
			f.logger(),
		), nil
	case remote != "":
		return persistence.NewHTTPSnapshotRepository(remote, nil), nil
	case file != "":
		return persistence.NewFileSnapshotRepository(file), nil
	default:
		return nil, withCode(exitUsage, fmt.Errorf("either --remote or --workspace-file is required"))
	}
}
