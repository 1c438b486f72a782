package services

import "github.com/accessinsight/accessinsight/modules/governance/domain/snapshot"

// ImportedEvent is published after a spreadsheet batch has been merged.
type ImportedEvent struct {
	Result   snapshot.Snapshot
	Rows     int
	NewUsers int
	Systems  []string
}

// StateReplacedEvent is published when the whole snapshot is swapped,
// either via the API or the polling refresh.
type StateReplacedEvent struct {
	Result snapshot.Snapshot
}

// ClearedEvent is published when the workspace is wiped.
type ClearedEvent struct{}
