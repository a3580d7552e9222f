package indexer

// ItemStatus is the outcome of loading one source file.
type ItemStatus string

const (
	ItemLoaded  ItemStatus = "loaded"
	ItemSkipped ItemStatus = "skipped"
)

// BatchStatus is the outcome of embedding one batch of files.
type BatchStatus string

const (
	BatchIndexed BatchStatus = "indexed"
	BatchFailed  BatchStatus = "failed"
)

// ItemResult reports what happened to one file.
type ItemResult struct {
	Path   string     `json:"path"`
	Status ItemStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
	Pages  int        `json:"pages"`
	Chunks int        `json:"chunks"`
}

// BatchResult reports what happened to one batch.
type BatchResult struct {
	Number int         `json:"number"` // 1-based
	Files  []string    `json:"files"`
	Status BatchStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
	Chunks int         `json:"chunks"`
}

// BuildReport is the full account of a build run.
type BuildReport struct {
	InputDir string        `json:"input_dir"`
	Items    []ItemResult  `json:"items"`
	Batches  []BatchResult `json:"batches"`
	Chunks   int           `json:"chunks"`
	Aborted  bool          `json:"aborted"`
}

// Loaded returns the number of files that were loaded.
func (r *BuildReport) Loaded() int {
	return r.countItems(ItemLoaded)
}

// Skipped returns the number of files that were skipped.
func (r *BuildReport) Skipped() int {
	return r.countItems(ItemSkipped)
}

// FailedBatches returns the number of batches whose chunks were discarded.
func (r *BuildReport) FailedBatches() int {
	n := 0
	for _, b := range r.Batches {
		if b.Status == BatchFailed {
			n++
		}
	}
	return n
}

func (r *BuildReport) countItems(s ItemStatus) int {
	n := 0
	for _, it := range r.Items {
		if it.Status == s {
			n++
		}
	}
	return n
}
