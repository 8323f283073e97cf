package dto

type UsageEntry struct {
	Calls int64   `json:"calls"`
	Cost  float64 `json:"cost"`
}

// UsageSnapshot lists every known provider, including ones never called.
type UsageSnapshot struct {
	Providers  map[string]UsageEntry `json:"providers"`
	TotalCalls int64                 `json:"totalCalls"`
	TotalCost  float64               `json:"totalCost"`
}
