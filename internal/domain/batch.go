package domain

// ItemError is the outcome of a batch item that failed validation or insertion.
type ItemError struct {
	Index  int    `json:"index"`
	EPC    string `json:"epc,omitempty"`
	Reason string `json:"error"`
	Err    error  `json:"-"`
}

// BatchSummary counts the outcomes of a batch.
type BatchSummary struct {
	Total      int `json:"total"`
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

// BatchResult holds per-item outcomes of a batch create. Item failures are data:
// a BatchResult is returned even when nothing was created.
// swagger:model BatchResult
type BatchResult struct {
	Created    []*Tag       `json:"created"`
	Duplicates []string     `json:"duplicates"`
	Errors     []ItemError  `json:"errors"`
	Summary    BatchSummary `json:"summary"`
}

// NewBatchResult returns an empty result with non-nil slices so they encode as [].
func NewBatchResult() *BatchResult {
	return &BatchResult{
		Created:    []*Tag{},
		Duplicates: []string{},
		Errors:     []ItemError{},
	}
}

// Summarize fills Summary from the collected outcomes.
func (b *BatchResult) Summarize() {
	b.Summary = BatchSummary{
		Total:      len(b.Created) + len(b.Duplicates) + len(b.Errors),
		Created:    len(b.Created),
		Duplicates: len(b.Duplicates),
		Errors:     len(b.Errors),
	}
}
