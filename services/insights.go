package services

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"bangalorelife-scraper/models"
	"bangalorelife-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
	out    io.Writer
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger, out: os.Stdout}
}

// Generate aggregates the normalized events of a run.
func (s *InsightService) Generate(events []*models.CanonicalEvent) *models.InsightReport {
	report := &models.InsightReport{
		EventsByCategory: make(map[models.Category]int),
	}

	if len(events) == 0 {
		return report
	}

	report.TotalEvents = len(events)
	report.Currency = events[0].PriceCurrency

	var total int
	for _, e := range events {
		report.EventsByCategory[e.Category]++

		if e.PriceMin != nil {
			p := *e.PriceMin
			if report.PricedEvents == 0 || p < report.MinPrice {
				report.MinPrice = p
				report.Cheapest = e
			}
			if report.PricedEvents == 0 || p > report.MaxPrice {
				report.MaxPrice = p
			}
			total += p
			report.PricedEvents++
		}
	}

	if report.PricedEvents > 0 {
		report.AveragePrice = round2(float64(total) / float64(report.PricedEvents))
	}
	if s.logger != nil {
		s.logger.Debug("[insights] %d events over %d categories, %d priced",
			report.TotalEvents, len(report.EventsByCategory), report.PricedEvents)
	}
	return report
}

// CountEstimatedDates records how many listings fell back to the default date.
func (s *InsightService) CountEstimatedDates(report *models.InsightReport, listings []*models.ScrapedListing) {
	for _, l := range listings {
		if l.StartDateEstimated {
			report.EstimatedDates++
		}
	}
}

// PrintRun writes the operator summary of a scraper run.
func (s *InsightService) PrintRun(r *models.RunSummary) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)
	w := s.out

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  RUN SUMMARY: %s\033[0m\n", strings.ToUpper(string(r.Source)))
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	fmt.Fprintf(w, "\033[1;33m  Listings per category\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, c := range r.Categories {
		status := ""
		if c.Err != nil {
			status = fmt.Sprintf(" \033[31m(failed: %v)\033[0m", c.Err)
		} else if c.Found == 0 {
			status = " \033[33m(empty)\033[0m"
		}
		fmt.Fprintf(w, "  %-14s %4d%s\n", c.Category, c.Found, status)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "\033[1;33m  Totals\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Listings found   : \033[1m%d\033[0m\n", r.TotalFound)
	fmt.Fprintf(w, "  Unique listings  : \033[1m%d\033[0m\n", r.Unique)
	fmt.Fprintf(w, "  Written          : \033[1;32m%d\033[0m\n", r.Write.Written)
	fmt.Fprintf(w, "  Failed           : \033[1;31m%d\033[0m\n", r.Write.Failed)
	if r.Write.UsedFallback {
		fmt.Fprintf(w, "  Bulk write failed; individual fallback used\n")
	}
	if r.CleanupErr != nil {
		fmt.Fprintf(w, "  Cleanup          : \033[31mfailed: %v\033[0m\n", r.CleanupErr)
	} else {
		fmt.Fprintf(w, "  Cleaned up       : %d expired rows\n", r.Cleaned)
	}
	fmt.Fprintln(w)

	if r.Insights != nil && r.Insights.TotalEvents > 0 {
		in := r.Insights
		label := "Prices (minimum per event)"
		if in.Currency != "" {
			label = "Prices (" + in.Currency + ", minimum per event)"
		}
		fmt.Fprintf(w, "\033[1;33m  %s\033[0m\n", label)
		fmt.Fprintf(w, "  %s\n", thin)
		if in.PricedEvents > 0 {
			fmt.Fprintf(w, "  Priced events : %d of %d\n", in.PricedEvents, in.TotalEvents)
			fmt.Fprintf(w, "  Average       : \033[1;32m%.2f\033[0m\n", in.AveragePrice)
			fmt.Fprintf(w, "  Minimum       : \033[1;32m%d\033[0m\n", in.MinPrice)
			fmt.Fprintf(w, "  Maximum       : \033[1;32m%d\033[0m\n", in.MaxPrice)
			if in.Cheapest != nil {
				fmt.Fprintf(w, "  Cheapest      : %s\n", truncate(in.Cheapest.Title, 40))
			}
		} else {
			fmt.Fprintf(w, "  No price data available\n")
		}
		fmt.Fprintf(w, "  Default dates : %d\n", in.EstimatedDates)
	}

	fmt.Fprintf(w, "\n  Took %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)
}

// PrintPopulate writes the operator summary of a venue populator run.
func (s *InsightService) PrintPopulate(r *models.PopulateSummary) {
	sep := strings.Repeat("═", 54)
	w := s.out

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  VENUE POPULATE SUMMARY\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "  Queries          : %d (%d failed)\n", r.Queries, r.QueryFailures)
	fmt.Fprintf(w, "  Unique places    : %d\n", r.UniquePlaces)
	fmt.Fprintf(w, "  Detail failures  : %d\n", r.DetailFailures)
	fmt.Fprintf(w, "  Written          : \033[1;32m%d\033[0m\n", r.Write.Written)
	fmt.Fprintf(w, "  Failed           : \033[1;31m%d\033[0m\n", r.Write.Failed)
	fmt.Fprintf(w, "  Took %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max-3]) + "..."
}
