// Package places adapts the external place-data provider into candidate
// lead batches. It hides provider pagination quirks and the synthetic
// fallback behind a single Fetch call.
package places

// Candidate is one raw provider result, before fingerprinting and persistence.
// Name is the only mandatory field.
type Candidate struct {
	Name         string
	Phone        string
	Address      string
	Category     string
	Website      string
	Rating       float64
	ReviewsCount int
}

// providerResponse mirrors the provider's JSON payload. The provider reports
// request-level failures through the error field with a 200 status.
type providerResponse struct {
	Error        string               `json:"error"`
	LocalResults []providerPlaceEntry `json:"local_results"`
}

type providerPlaceEntry struct {
	Title   string  `json:"title"`
	Phone   string  `json:"phone"`
	Address string  `json:"address"`
	Type    string  `json:"type"`
	Website string  `json:"website"`
	Rating  float64 `json:"rating"`
	Reviews int     `json:"reviews"`
}
