package models

// CategorySummary is the response of GET /summary/category: expense totals
// per category in rupees, largest first.
type CategorySummary struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
	Total  float64   `json:"total"`
}

// MonthlySummary is the response of GET /summary/monthly: expense totals
// for each month of Year.
type MonthlySummary struct {
	Year   int       `json:"year"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}
