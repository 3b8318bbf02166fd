package importer

// RowResult reports the outcome of one CSV row. Rows are numbered from
// 1, counting data rows after the header.
type RowResult struct {
	RowNumber int    `json:"row_number"`
	OK        bool   `json:"ok"`
	ID        int64  `json:"id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Report aggregates a finished batch. Rows that failed stay failed;
// rows that succeeded are committed regardless of later failures.
type Report struct {
	BatchID   string      `json:"batch_id"`
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Results   []RowResult `json:"results"`
}
