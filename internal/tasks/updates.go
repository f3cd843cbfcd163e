package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	ReadTable Phase = iota
	WriteFile
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case ReadTable:
		return "read_table"
	case WriteFile:
		return "write_file"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func readingTableUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadTable,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Reading %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, res TableExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d rows)", step, total, res.Table, res.Rows),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res TableExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteFile,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Table, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing manifest %s...", path),
	}
}
