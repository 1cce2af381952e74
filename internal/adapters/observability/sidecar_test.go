package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// The sidecar must serve the registry the app counters live in. Serving the
// default registry exports go/process collectors and nothing else.
func TestSidecarServesAppFamilies(t *testing.T) {
	ObserveScrape("success")
	ObserveKeyRotation("quota")

	rr := httptest.NewRecorder()
	sidecarHandler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rr.Code)
	}

	out := rr.Body.String()
	for _, want := range []string{
		"ratepulse_scrape_results_total",
		"ratepulse_key_rotations_total",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in sidecar output", want)
		}
	}
}
