package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"bangalorelife-scraper/models"
)

func TestRecordRun(t *testing.T) {
	before := testutil.ToFloat64(ListingsFound.WithLabelValues("insider", "comedy"))
	failuresBefore := testutil.ToFloat64(CategoryFailures.WithLabelValues("insider", "kids"))
	finished := time.Date(2026, 5, 10, 6, 0, 0, 0, time.UTC)

	RecordRun(&models.RunSummary{
		Source: models.SourceInsider,
		Categories: []models.CategoryResult{
			{Category: models.CategoryComedy, Found: 7},
			{Category: models.CategoryKids, Err: errors.New("timeout")},
		},
		Write:      models.WriteResult{Written: 6, Failed: 1},
		Cleaned:    3,
		FinishedAt: finished,
	})

	if got := testutil.ToFloat64(ListingsFound.WithLabelValues("insider", "comedy")) - before; got != 7 {
		t.Errorf("listings found delta = %v; want 7", got)
	}
	if got := testutil.ToFloat64(CategoryFailures.WithLabelValues("insider", "kids")) - failuresBefore; got != 1 {
		t.Errorf("category failures delta = %v; want 1", got)
	}
	if got := testutil.ToFloat64(LastRun.WithLabelValues("insider")); got != float64(finished.Unix()) {
		t.Errorf("last run = %v; want %d", got, finished.Unix())
	}
}

func TestPushDisabled(t *testing.T) {
	if err := Push("", models.SourceBookMyShow, nil); err != nil {
		t.Errorf("Push with empty url = %v; want nil", err)
	}
}

func TestPushSendsToJob(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		path, body = r.URL.Path, string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	RecordsWritten.WithLabelValues("bookmyshow").Add(1)
	if err := Push(srv.URL, models.SourceBookMyShow, nil); err != nil {
		t.Fatalf("Push: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(path, "/job/bangalorelife_bookmyshow") {
		t.Errorf("pushed to %q; want job bangalorelife_bookmyshow", path)
	}
	if !strings.Contains(body, "scraper_records_written_total") {
		t.Error("pushed body is missing scraper_records_written_total")
	}
}

func TestPushFailureIsReturned(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := Push(srv.URL, models.SourceInsider, nil); err == nil {
		t.Error("expected an error from a failing gateway")
	}
}
