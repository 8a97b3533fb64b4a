package models

import "time"

// CategoryResult records the outcome of crawling one category page.
type CategoryResult struct {
	Category Category
	Found    int
	Err      error
}

// WriteResult summarizes a two-tier write.
type WriteResult struct {
	Attempted    int
	Written      int
	Failed       int
	UsedFallback bool
	Errors       []error
}

// RunSummary is the operator-facing report for one scraper run.
type RunSummary struct {
	Source     Source
	StartedAt  time.Time
	FinishedAt time.Time
	Categories []CategoryResult
	TotalFound int
	Unique     int
	Write      WriteResult
	Cleaned    int64
	CleanupErr error
	Insights   *InsightReport
}

// InsightReport holds aggregate statistics over the normalized events of a run.
type InsightReport struct {
	TotalEvents      int
	EventsByCategory map[Category]int
	PricedEvents     int
	MinPrice         int
	MaxPrice         int
	AveragePrice     float64
	Currency         string
	EstimatedDates   int
	Cheapest         *CanonicalEvent
}

// PopulateSummary is the operator-facing report for one venue populator run.
type PopulateSummary struct {
	StartedAt      time.Time
	FinishedAt     time.Time
	Queries        int
	QueryFailures  int
	UniquePlaces   int
	DetailFailures int
	Write          WriteResult
}
