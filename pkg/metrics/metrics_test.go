package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.IconLookup(TierMemory, true)
	m.StoreEdit(nil)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)

	// A second registration on the same registry must fail.
	assert.Panics(t, func() { New(reg) })
}

func TestIconLookup(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IconLookup(TierMemory, true)
	m.IconLookup(TierMemory, true)
	m.IconLookup(TierDisk, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.IconLookups.WithLabelValues(TierMemory, ResultHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IconLookups.WithLabelValues(TierDisk, ResultMiss)))
}

func TestFocusTransitionMarksCurrentState(t *testing.T) {
	m := New(prometheus.NewRegistry())
	states := []string{"idle", "running", "paused"}

	m.FocusTransition("running", states)
	m.FocusTransition("paused", states)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FocusTransitions.WithLabelValues("running")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FocusState.WithLabelValues("running")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FocusState.WithLabelValues("paused")))
}

func TestStoreEdit(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.StoreEdit(nil)
	m.StoreEdit(errors.New("disk full"))
	m.StoreEdit(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StoreEdits))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreEditFailures))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IconLookup(TierDisk, true)
		m.IconEvicted()
		m.SetIconMemoryBytes(10)
		m.IconDiskWriteFailed()
		m.ObserveIconRender(0.1)
		m.FocusTransition("idle", []string{"idle"})
		m.FocusPersistFailed()
		m.StoreEdit(nil)
		m.StoreExternalChange()
	})
}
