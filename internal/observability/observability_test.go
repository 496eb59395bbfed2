package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/qms-dashboard/services/progress"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
	}{
		{"json info", "info", "json", false},
		{"default format", "debug", "", false},
		{"console", "warn", "text", false},
		{"upper case level", "ERROR", "json", false},
		{"bad level", "loud", "json", true},
		{"bad format", "info", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.level, tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, logger)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, logger)
		})
	}
}

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(nil)

	m.ObserveDispatch("capa", "delete", "forbidden")
	m.ObserveDispatch("capa", "delete", "forbidden")
	m.TaskTransition("report_run", progress.StateComplete)
	m.ObserveRoleSwitch("auditor", true)
	m.ObserveRoleSwitch("visitor", false)
	m.ObserveDeletion("audit", "confirmed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Dispatches.WithLabelValues("capa", "delete", "forbidden")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TaskTransitions.WithLabelValues("report_run", "complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoleSwitches.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RoleSwitches.WithLabelValues("auditor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Deletions.WithLabelValues("audit", "confirmed")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(nil)
	m.TrackRunningTasks(func() int64 { return 3 })
	m.ObserveDispatch("reports", "run", "handled")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `qms_dispatches_total{action="run",outcome="handled",resource="reports"} 1`)
	assert.Contains(t, body, "qms_tasks_running 3")
}
