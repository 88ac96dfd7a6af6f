package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAdmission(t *testing.T) {
	before := testutil.ToFloat64(admissionCounter.WithLabelValues("event_full"))
	RecordAdmission("event_full")
	assert.InDelta(t, before+1, testutil.ToFloat64(admissionCounter.WithLabelValues("event_full")), 0.0001)
}

func TestRecordOutbox(t *testing.T) {
	delivered := testutil.ToFloat64(outboxDelivered)
	failed := testutil.ToFloat64(outboxFailed)

	RecordOutbox(3, 0)
	RecordOutbox(0, 2)

	assert.InDelta(t, delivered+3, testutil.ToFloat64(outboxDelivered), 0.0001)
	assert.InDelta(t, failed+2, testutil.ToFloat64(outboxFailed), 0.0001)
}

func TestObserveUnit(t *testing.T) {
	before := testutil.CollectAndCount(unitDuration)
	ObserveUnit("metrics_test_unit", time.Now().Add(-time.Millisecond))
	assert.Equal(t, before+1, testutil.CollectAndCount(unitDuration))
}
