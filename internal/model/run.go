package model

// RunSpec is the struct for POST /api/v1/runs
type RunSpec struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	CacheKey string `json:"cacheKey" validate:"required"`
	Redis    Redis  `json:"redis"`
	Timeout  string `json:"timeout"` // e.g. "5m", defaults to 5 minutes
}

// Redis holds key-value store connection options
type Redis struct {
	Addr string `json:"addr"` // host:port, defaults to localhost:6379
}

// ReportResult summarizes the report stage of a run
type ReportResult struct {
	Distribution   StatusDistribution `json:"distribution"`
	ChartPath      string             `json:"chart_path"`
	SpeciesMatches []Character        `json:"species_matches"`
	NameMatches    []Character        `json:"name_matches"`
}
