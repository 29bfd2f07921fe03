package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCollectors(t *testing.T) {
	IssueMutations.WithLabelValues("update", "ok").Inc()
	IssueListings.WithLabelValues("paged").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "tracker_issue_mutations_total")
	assert.Contains(t, body, "tracker_issue_listings_total")
}

func TestCounterIncrements(t *testing.T) {
	c := IssueMutations.WithLabelValues("delete", "not_found")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
