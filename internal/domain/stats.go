package domain

// OperationStat aggregates store calls for one collection and operation.
type OperationStat struct {
	Collection   string  `json:"collection"`
	Op           string  `json:"op"`
	Count        uint64  `json:"count"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
}

// ErrorStat counts failed store calls by error kind.
type ErrorStat struct {
	Collection string `json:"collection"`
	Kind       string `json:"kind"`
	Count      uint64 `json:"count"`
}

// StoreStats is the snapshot served by GET /v1/stats.
type StoreStats struct {
	InitSuccess        uint64          `json:"initSuccess"`
	InitFailure        uint64          `json:"initFailure"`
	Operations         []OperationStat `json:"operations"`
	Errors             []ErrorStat     `json:"errors"`
	IdempotencyHits    uint64          `json:"idempotencyHits"`
	IdempotencyMisses  uint64          `json:"idempotencyMisses"`
	IdempotencyHitRate float64         `json:"idempotencyHitRate"`
}
