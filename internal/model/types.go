package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// FoldRecord is the portable form of a fully placed chain. Folding holds
// one compass code per residue (dx + 2*dy + 3*dz toward the successor,
// 0 for the final residue); Moves spells the same path as direction
// letters.
type FoldRecord struct {
	VersionedRecord
	ID       string `json:"id"`
	Sequence string `json:"sequence"`
	Dims     int    `json:"dims"`
	Moves    string `json:"moves"`
	Folding  []int  `json:"folding"`
	Score    int    `json:"score"`
}

// RunRecord summarizes one engine invocation.
type RunRecord struct {
	VersionedRecord
	ID           string `json:"id"`
	Algorithm    string `json:"algorithm"`
	Sequence     string `json:"sequence"`
	Dims         int    `json:"dims"`
	Seed         int64  `json:"seed"`
	Iterations   int    `json:"iterations"`
	Accepted     int    `json:"accepted"`
	Skipped      int    `json:"skipped"`
	Score        int    `json:"score"`
	FoldID       string `json:"fold_id"`
	CreatedAtUTC string `json:"created_at_utc"`
}

// TraceStep is one refinement iteration of a run.
type TraceStep struct {
	Iteration int    `json:"iteration"`
	Moves     string `json:"moves"`
	Score     int    `json:"score"`
}

// BaselineRecord aggregates repeated runs of one algorithm on one
// sequence.
type BaselineRecord struct {
	VersionedRecord
	Algorithm string  `json:"algorithm"`
	Sequence  string  `json:"sequence"`
	Dims      int     `json:"dims"`
	Trials    int     `json:"trials"`
	MeanScore float64 `json:"mean_score"`
	StdScore  float64 `json:"std_score"`
	MinScore  int     `json:"min_score"`
	MaxScore  int     `json:"max_score"`
}
