package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/notevault/internal/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{common.ErrorUnauthenticated, "denied"},
		{fmt.Errorf("login: %w", common.ErrorUnauthorized), "denied"},
		{common.ErrorNotFound, "not_found"},
		{common.ErrorDuplicateKeyword, "rejected"},
		{common.ErrorEmptyKeyword, "rejected"},
		{common.ErrorConfirmationMismatch, "rejected"},
		{errors.New("disk full"), "error"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Result(tc.err), "%v", tc.err)
	}
}

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Observe("add_note", time.Now(), nil)
	m.Observe("add_note", time.Now(), common.ErrorDuplicateKeyword)
	m.Observe("add_note", time.Now(), nil)
	m.MediaRemovalFailed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("add_note", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("add_note", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MediaRemovalFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.OperationDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Observe("x", time.Now(), nil)
	m.MediaRemovalFailed()
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).Observe("search", time.Now(), nil)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `notevault_operations_total{op="search",result="ok"} 1`)

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/metrics", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
