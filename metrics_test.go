package scpfwk

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsTrackDispatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := &testModule{name: "sink"}
	c := newTestCore(t, DefaultConfig(), []ModuleEntry{entryOf(sink, 0)}, WithMetrics(reg))
	bootCore(t, c)

	for i := 0; i < 3; i++ {
		ev := Event{Source: MustModuleID(0), Target: MustModuleID(0), ID: MustEventID(0, 0)}
		require.NoError(t, c.PutEvent(&ev))
	}
	require.NoError(t, c.ProcessEvents())

	assert.Equal(t, float64(3), testutil.ToFloat64(c.metrics.eventsPosted))
	assert.Equal(t, float64(3), testutil.ToFloat64(c.metrics.eventsDispatched))
	assert.Equal(t, float64(DefaultConfig().EventPoolSize), testutil.ToFloat64(c.metrics.poolAvailable))
}

func TestMetricsTrackSubscriptions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := &testModule{name: "m"}
	sub := &testModule{name: "sub"}
	c := newTestCore(t, DefaultConfig(), []ModuleEntry{entryOf(m, 0), entryOf(sub, 0)}, WithMetrics(reg))
	bootCore(t, c)

	require.NoError(t, c.NotificationSubscribe(MustNotificationID(0, 0), MustModuleID(0), MustModuleID(1)))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.metrics.subscriptions))
	require.NoError(t, c.NotificationUnsubscribe(MustNotificationID(0, 0), MustModuleID(0), MustModuleID(1)))
	assert.Equal(t, float64(0), testutil.ToFloat64(c.metrics.subscriptions))
}
