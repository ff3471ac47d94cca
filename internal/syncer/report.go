package syncer

// Per-title outcomes. Conflicts are data, not errors: the caller can retry
// with force or go look at the page.
const (
	ActionCreated          = "created"
	ActionUpdated          = "updated"
	ActionDeleted          = "deleted"
	ActionSkippedUnchanged = "skipped-unchanged"
	ActionSkippedConflict  = "skipped-conflict"
	ActionSkipped          = "skipped"
	ActionError            = "error"
	ActionWouldCreate      = "would_create"
	ActionWouldUpdate      = "would_update"
	ActionWouldDelete      = "would_delete"
)

// ReportEntry is the outcome for one title.
type ReportEntry struct {
	Title  string `json:"title"`
	Action string `json:"action"`
	Detail string `json:"detail,omitempty"`
}

// Report collects per-title outcomes for a pull or push run.
type Report struct {
	Entries []ReportEntry `json:"entries"`
}

func (r *Report) add(title, action, detail string) {
	r.Entries = append(r.Entries, ReportEntry{Title: title, Action: action, Detail: detail})
}

// Count returns how many entries ended with the given action.
func (r *Report) Count(action string) int {
	n := 0
	for _, e := range r.Entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

// Success reports whether the run finished with zero errors and zero
// conflicts.
func (r *Report) Success() bool {
	return r.Count(ActionError) == 0 && r.Count(ActionSkippedConflict) == 0
}
