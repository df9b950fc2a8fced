package types

// ImportResult aggregates the outcome of one bulk import. Row failures
// are isolated: a malformed row lands in Errors with its 1-based number
// and the batch keeps going.
type ImportResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`

	CatalogCreated int `json:"catalog_created"`
	CatalogUpdated int `json:"catalog_updated"`

	ConversionCreated int `json:"conversion_created"`
	ConversionUpdated int `json:"conversion_updated"`
	ConversionSkipped int `json:"conversion_skipped"`

	Failed int      `json:"failed"`
	Errors []string `json:"errors"`
}

func (r *ImportResult) Total() int {
	return r.CatalogCreated + r.CatalogUpdated + r.Failed
}

func (r *ImportResult) HasErrors() bool {
	return len(r.Errors) > 0
}
