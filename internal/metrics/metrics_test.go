package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := New(reg)
	require.NoError(t, err)

	r.Mounted()
	r.Mounted()
	r.Unmounted()
	assert.Equal(t, 1.0, testutil.ToFloat64(r.active))

	r.Update(UpdateDelivered)
	r.Update(UpdateDelivered)
	r.Update(UpdateCoalesced)
	assert.Equal(t, 2.0, testutil.ToFloat64(r.updates.WithLabelValues(UpdateDelivered)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.updates.WithLabelValues(UpdateCoalesced)))

	r.Observe(context.Background(), "mount", true, 10*time.Millisecond)
	r.Observe(context.Background(), "mount", false, time.Millisecond)
	assert.Equal(t, 2, testutil.CollectAndCount(r.operations))

	_, err = New(reg)
	assert.Error(t, err, "duplicate registration must fail")
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.Mounted()
		r.Unmounted()
		r.Update(UpdateDropped)
		r.Observe(context.Background(), "mount", true, time.Second)
	})
}

func TestUnregistered(t *testing.T) {
	r, err := New(nil)
	require.NoError(t, err)
	assert.Len(t, r.Collectors(), 3)
}
