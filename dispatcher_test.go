package scpfwk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerTargetFIFO(t *testing.T) {
	var got []byte
	sink := &testModule{name: "sink"}
	sink.processFn = func(_ Framework, ev *Event, _ *Event) error {
		got = append(got, ev.Params[0])
		return nil
	}
	src := &testModule{name: "src"}
	c := newTestCore(t, DefaultConfig(), []ModuleEntry{entryOf(sink, 0), entryOf(src, 0)})
	bootCore(t, c)

	for _, b := range []byte{1, 2, 3, 4} {
		ev := Event{Source: MustModuleID(1), Target: MustModuleID(0), ID: MustEventID(0, 0), Params: NewParams(b)}
		require.NoError(t, c.PutEvent(&ev))
	}
	require.NoError(t, c.ProcessEvents())
	assert.Equal(t, []byte{1, 2, 3, 4}, got)
}

func TestPerElementQueuesAreIndependent(t *testing.T) {
	var got []string
	m := &testModule{name: "dmc"}
	m.processFn = func(_ Framework, ev *Event, _ *Event) error {
		got = append(got, ev.Target.String())
		return nil
	}
	src := &testModule{name: "src"}
	c := newTestCore(t, DefaultConfig(), []ModuleEntry{entryOf(m, 2), entryOf(src, 0)})
	bootCore(t, c)

	for _, target := range []ID{MustElementID(0, 0), MustElementID(0, 1), MustElementID(0, 0)} {
		ev := Event{Source: MustModuleID(1), Target: target, ID: MustEventID(0, 0)}
		require.NoError(t, c.PutEvent(&ev))
	}
	require.NoError(t, c.ProcessEvents())
	// Ready queue rotates between targets; both elements drain completely.
	assert.Len(t, got, 3)
}

func TestImmediateResponse(t *testing.T) {
	responder := &testModule{name: "responder"}
	responder.processFn = func(_ Framework, ev *Event, resp *Event) error {
		resp.Params = NewParams(0x5a)
		return nil
	}
	var resp *Event
	requester := &testModule{name: "requester"}
	requester.processFn = func(_ Framework, ev *Event, _ *Event) error {
		cp := *ev
		resp = &cp
		return nil
	}
	c := newTestCore(t, DefaultConfig(), []ModuleEntry{entryOf(responder, 0), entryOf(requester, 0)})
	bootCore(t, c)

	req := Event{
		Source:            MustModuleID(1),
		Target:            MustModuleID(0),
		ID:                MustEventID(0, 3),
		ResponseRequested: true,
	}
	require.NoError(t, c.PutEvent(&req))
	require.NotZero(t, req.Cookie, "cookie must be stamped on the caller's event")
	require.NoError(t, c.ProcessEvents())

	require.NotNil(t, resp)
	assert.True(t, resp.IsResponse)
	assert.Equal(t, req.Cookie, resp.Cookie)
	assert.Equal(t, byte(0x5a), resp.Params[0])
	assert.Equal(t, StatusSuccess, resp.Status)
	assert.Equal(t, MustEventID(0, 3), resp.ID)
}

func TestResponseCarriesHandlerStatus(t *testing.T) {
	responder := &testModule{name: "responder"}
	responder.processFn = func(Framework, *Event, *Event) error {
		return StatusBusy
	}
	var status Status
	requester := &testModule{name: "requester"}
	requester.processFn = func(_ Framework, ev *Event, _ *Event) error {
		status = ev.Status
		return nil
	}
	c := newTestCore(t, DefaultConfig(), []ModuleEntry{entryOf(responder, 0), entryOf(requester, 0)})
	bootCore(t, c)

	req := Event{Source: MustModuleID(1), Target: MustModuleID(0), ID: MustEventID(0, 0), ResponseRequested: true}
	require.NoError(t, c.PutEvent(&req))
	require.NoError(t, c.ProcessEvents())
	assert.Equal(t, StatusBusy, status)
}

func TestMissingProcessorYieldsSupport(t *testing.T) {
	mute := &plainModule{name: "mute"}
	var status Status
	requester := &testModule{name: "requester"}
	requester.processFn = func(_ Framework, ev *Event, _ *Event) error {
		status = ev.Status
		return nil
	}
	c := newTestCore(t, DefaultConfig(), []ModuleEntry{entryOf(mute, 0), entryOf(requester, 0)})
	bootCore(t, c)

	req := Event{Source: MustModuleID(1), Target: MustModuleID(0), ID: MustEventID(0, 0), ResponseRequested: true}
	require.NoError(t, c.PutEvent(&req))
	require.NoError(t, c.ProcessEvents())
	assert.Equal(t, StatusSupport, status)
}

func TestPoolExhaustion(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EventPoolSize = 4
	sink := &testModule{name: "sink"}
	src := &testModule{name: "src"}
	c := newTestCore(t, cfg, []ModuleEntry{entryOf(sink, 0), entryOf(src, 0)})
	bootCore(t, c)

	ev := Event{Source: MustModuleID(1), Target: MustModuleID(0), ID: MustEventID(0, 0)}
	for i := 0; i < 4; i++ {
		e := ev
		require.NoError(t, c.PutEvent(&e))
	}
	e := ev
	assert.ErrorIs(t, c.PutEvent(&e), StatusNoMem)

	require.NoError(t, c.ProcessEvents())
	e = ev
	assert.NoError(t, c.PutEvent(&e))
}

func TestPutEventValidation(t *testing.T) {
	sink := &testModule{name: "sink"}
	src := &testModule{name: "src"}
	c := newTestCore(t, DefaultConfig(), []ModuleEntry{entryOf(sink, 1), entryOf(src, 0)})
	bootCore(t, c)

	valid := func() Event {
		return Event{Source: MustModuleID(1), Target: MustModuleID(0), ID: MustEventID(0, 0)}
	}

	testcases := []struct {
		name   string
		mutate func(*Event)
	}{
		{"unknown target module", func(e *Event) { e.Target = MustModuleID(9) }},
		{"unknown target element", func(e *Event) { e.Target = MustElementID(0, 5) }},
		{"unknown sub-element", func(e *Event) { e.Target = MustSubElementID(0, 0, 7) }},
		{"target not an entity", func(e *Event) { e.Target = MustAPIID(0, 0) }},
		{"source invalid", func(e *Event) { e.Source = IDNone }},
		{"id not an event", func(e *Event) { e.ID = MustAPIID(0, 0) }},
		{"event index out of range", func(e *Event) { e.ID = MustEventID(0, 7+1) }},
		{"event of foreign module", func(e *Event) { e.ID = MustEventID(1, 0) }},
		{"response requesting response", func(e *Event) { e.IsResponse = true; e.ResponseRequested = true }},
		{"delayed without response", func(e *Event) { e.IsDelayedResponse = true }},
		{"delayed without cookie", func(e *Event) { e.IsResponse = true; e.IsDelayedResponse = true }},
		{"caller-supplied cookie", func(e *Event) { e.Cookie = 99 }},
		{"bare notification", func(e *Event) { e.IsNotification = true; e.ID = MustNotificationID(0, 0) }},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			ev := valid()
			tc.mutate(&ev)
			assert.ErrorIs(t, c.PutEvent(&ev), StatusParam)
		})
	}

	assert.ErrorIs(t, c.PutEvent(nil), StatusParam)
}

func TestPutEventBeforeStartRejected(t *testing.T) {
	sink := &testModule{name: "sink"}
	c := newTestCore(t, DefaultConfig(), []ModuleEntry{entryOf(sink, 0)})
	require.NoError(t, c.Initialize())

	ev := Event{Source: MustModuleID(0), Target: MustModuleID(0), ID: MustEventID(0, 0)}
	assert.ErrorIs(t, c.PutEvent(&ev), StatusState)
}

func TestCookieUniqueness(t *testing.T) {
	seen := map[uint32]bool{}
	responder := &testModule{name: "responder"}
	responder.processFn = func(_ Framework, ev *Event, _ *Event) error {
		require.False(t, seen[ev.Cookie], "cookie %d reused", ev.Cookie)
		seen[ev.Cookie] = true
		return nil
	}
	requester := &testModule{name: "requester"}
	cfg := DefaultConfig()
	cfg.EventPoolSize = 2048
	c := newTestCore(t, cfg, []ModuleEntry{entryOf(responder, 0), entryOf(requester, 0)})
	bootCore(t, c)

	for i := 0; i < 1000; i++ {
		ev := Event{Source: MustModuleID(1), Target: MustModuleID(0), ID: MustEventID(0, 0), ResponseRequested: true}
		require.NoError(t, c.PutEvent(&ev))
	}
	require.NoError(t, c.ProcessEvents())
	assert.Len(t, seen, 1000)
}

func TestCookieWrapSkipsZero(t *testing.T) {
	c := newTestCore(t, DefaultConfig(), []ModuleEntry{entryOf(&plainModule{name: "m"}, 0)})
	c.cookie = math.MaxUint32
	assert.Equal(t, uint32(1), c.allocCookie())
	assert.Equal(t, uint32(2), c.allocCookie())
}

func TestPanicStatusHaltsDispatch(t *testing.T) {
	var fatalErr error
	bad := &testModule{name: "bad"}
	bad.processFn = func(Framework, *Event, *Event) error {
		return StatusPanic
	}
	src := &testModule{name: "src"}
	c := newTestCore(t, DefaultConfig(), []ModuleEntry{entryOf(bad, 0), entryOf(src, 0)},
		WithFatalHandler(func(err error) { fatalErr = err }))
	bootCore(t, c)

	ev := Event{Source: MustModuleID(1), Target: MustModuleID(0), ID: MustEventID(0, 0)}
	require.NoError(t, c.PutEvent(&ev))
	err := c.ProcessEvents()
	assert.ErrorIs(t, err, StatusPanic)
	assert.ErrorIs(t, fatalErr, StatusPanic)
}

func TestHandlerPostingToSelfKeepsOrder(t *testing.T) {
	var got []byte
	m := &testModule{name: "m"}
	m.processFn = func(fw Framework, ev *Event, _ *Event) error {
		got = append(got, ev.Params[0])
		if ev.Params[0] == 1 {
			next := Event{Source: ev.Target, Target: ev.Target, ID: ev.ID, Params: NewParams(3)}
			return fw.PutEvent(&next)
		}
		return nil
	}
	c := newTestCore(t, DefaultConfig(), []ModuleEntry{entryOf(m, 0)})
	bootCore(t, c)

	for _, b := range []byte{1, 2} {
		ev := Event{Source: MustModuleID(0), Target: MustModuleID(0), ID: MustEventID(0, 0), Params: NewParams(b)}
		require.NoError(t, c.PutEvent(&ev))
	}
	require.NoError(t, c.ProcessEvents())
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestProcessEventsRequiresStart(t *testing.T) {
	c := newTestCore(t, DefaultConfig(), []ModuleEntry{entryOf(&plainModule{name: "m"}, 0)})
	assert.ErrorIs(t, c.ProcessEvents(), ErrNotStarted)
}
