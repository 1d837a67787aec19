package geostats

// GeoStat is the running aggregate of record-creation events for one region.
// Created lazily on the first record in a region, incremented on every
// successful create (updates count as new geographic events), never
// decremented or deleted.
type GeoStat struct {
	Region      string `json:"region"`
	TotalCases  uint64 `json:"total_cases"`
	LastUpdated uint64 `json:"last_updated"`
}
