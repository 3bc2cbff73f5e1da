// Package monitor implements the OS-event-driven change capture core:
// debounced intake, the change processor (diff + rename inference +
// dedup), prepopulation, the change log and checkpoints, and the
// revert engine. Everything in this package runs serialized through a
// single per-Monitor loop goroutine — see Monitor's doc comment for
// the concurrency model this buys.
package monitor

// Kind identifies the transition a Change record captures.
type Kind string

const (
	Created  Kind = "created"
	Modified Kind = "modified"
	Deleted  Kind = "deleted"
	Renamed  Kind = "renamed"
)

// Metadata carries the fields meaningful to a Change. Device/Inode are
// set on every successful read; the rest are populated only where
// relevant to the record's kind.
type Metadata struct {
	Device uint64 `json:"device"`
	Inode  uint64 `json:"inode"`

	OldPath string `json:"old_path,omitempty"` // set only on Renamed

	Attribution  string `json:"attribution,omitempty"`   // "confirmed" | "ambiguous", set by tagging
	OriginalTool string `json:"original_tool,omitempty"` // ToolName at first tagging

	OldSize int `json:"old_size,omitempty"`
	NewSize int `json:"new_size,omitempty"`
	Size    int `json:"size,omitempty"`
}

// Change is one append to the log: a single observed transition of a
// single file. Timestamps are monotonic nanoseconds, strictly
// increasing across all records in a session.
type Change struct {
	Path       string   `json:"path"`
	Kind       Kind     `json:"kind"`
	OldContent []byte   `json:"old_content,omitempty"`
	NewContent []byte   `json:"new_content,omitempty"`
	Timestamp  int64    `json:"timestamp"` // monotonic nanoseconds
	ToolName   string   `json:"tool_name"`
	Tools      []string `json:"tools,omitempty"`
	Metadata   Metadata `json:"metadata"`
}

// Checkpoint is a timestamp marker delimiting a turn or batch of work.
// ChangeCount is informational only; Timestamp is the authoritative
// boundary used for filtering and revert.
type Checkpoint struct {
	Timestamp   int64  `json:"timestamp"`
	ChangeCount int    `json:"change_count"`
	Label       string `json:"label,omitempty"`
	Cycle       *int   `json:"cycle,omitempty"`
}

// Stats summarizes the current log for a quick status readout.
type Stats struct {
	CountByKind map[Kind]int `json:"count_by_kind"`
	ToolNames   []string     `json:"tool_names"`
	ActiveWatch bool         `json:"active_watch"`
	Errors      int          `json:"errors"`
}

// RevertResult is what a successful revert_to_checkpoint or
// revert_to_original returns.
type RevertResult struct {
	NewChanges     []Change     `json:"-"`
	NewCheckpoints []Checkpoint `json:"-"`
	RevertedCount  int          `json:"reverted_count"`
	ErrorCount     int          `json:"error_count"`
	IsFullRevert   bool         `json:"is_full_revert"`
}

// TagArgs is the args parameter tag_changes_in_range consumes.
// Filepath, when set, is the path the attributed tool claimed to have
// touched; changes under it are "confirmed", everything else in range
// is "ambiguous".
type TagArgs struct {
	Filepath string
}

// ReadyStats is the payload of the prepopulator's on_ready callback.
type ReadyStats struct {
	FilesScanned       int   `json:"files_scanned"`
	FilesCached        int   `json:"files_cached"`
	BytesCached        int   `json:"bytes_cached"`
	Errors             int   `json:"errors"`
	DirectoriesScanned int   `json:"directories_scanned"`
	ElapsedMS          int64 `json:"elapsed_ms"`
}
