package scpfwk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// testModule is a scriptable module used across the suite. Every capability
// hook is optional; nil hooks behave like the no-op defaults.
type testModule struct {
	name string

	initFn        func(fw Framework, id ID, elementCount int, config any) error
	elementInitFn func(fw Framework, id ID, subElementCount int, config any) error
	postInitFn    func(fw Framework, id ID) error
	bindFn        func(fw Framework, id ID, round int) error
	startFn       func(fw Framework, id ID) error
	processFn     func(fw Framework, event *Event, response *Event) error
	notifyFn      func(fw Framework, event *Event, response *Event) error
	bindReqFn     func(fw Framework, source, target, apiID ID) (any, error)

	calls []string
}

func (m *testModule) Name() string {
	return m.name
}

func (m *testModule) Init(fw Framework, id ID, elementCount int, config any) error {
	m.calls = append(m.calls, "init")
	if m.initFn != nil {
		return m.initFn(fw, id, elementCount, config)
	}
	return nil
}

func (m *testModule) InitElement(fw Framework, id ID, subElementCount int, config any) error {
	m.calls = append(m.calls, "element_init")
	if m.elementInitFn != nil {
		return m.elementInitFn(fw, id, subElementCount, config)
	}
	return nil
}

func (m *testModule) PostInit(fw Framework, id ID) error {
	m.calls = append(m.calls, "post_init")
	if m.postInitFn != nil {
		return m.postInitFn(fw, id)
	}
	return nil
}

func (m *testModule) Bind(fw Framework, id ID, round int) error {
	if round == BindRoundFirst {
		m.calls = append(m.calls, "bind(0)")
	} else {
		m.calls = append(m.calls, "bind(1)")
	}
	if m.bindFn != nil {
		return m.bindFn(fw, id, round)
	}
	return nil
}

func (m *testModule) Start(fw Framework, id ID) error {
	m.calls = append(m.calls, "start")
	if m.startFn != nil {
		return m.startFn(fw, id)
	}
	return nil
}

func (m *testModule) ProcessEvent(fw Framework, event *Event, response *Event) error {
	if m.processFn != nil {
		return m.processFn(fw, event, response)
	}
	return nil
}

func (m *testModule) ProcessNotification(fw Framework, event *Event, response *Event) error {
	if m.notifyFn != nil {
		return m.notifyFn(fw, event, response)
	}
	return nil
}

func (m *testModule) ProcessBindRequest(fw Framework, source, target, apiID ID) (any, error) {
	if m.bindReqFn != nil {
		return m.bindReqFn(fw, source, target, apiID)
	}
	return nil, StatusSupport
}

// plainModule implements nothing beyond the required interface, to exercise
// the missing-capability no-op paths.
type plainModule struct {
	name   string
	inited bool
}

func (m *plainModule) Name() string {
	return m.name
}

func (m *plainModule) Init(Framework, ID, int, any) error {
	m.inited = true
	return nil
}

func newTestCore(t *testing.T, cfg Config, table []ModuleEntry, opts ...Option) *Core {
	t.Helper()
	opts = append([]Option{WithLogger(NoopLogger{})}, opts...)
	c, err := New(cfg, table, opts...)
	require.NoError(t, err)
	return c
}

func bootCore(t *testing.T, c *Core) {
	t.Helper()
	require.NoError(t, c.Initialize())
	require.NoError(t, c.Start())
}

// entryOf builds a minimal table row declaring a handful of event and
// notification types so identifier validation has something to check
// against.
func entryOf(m Module, elements int) ModuleEntry {
	e := ModuleEntry{
		Module:            m,
		Kind:              ModuleKindService,
		APICount:          4,
		EventCount:        8,
		NotificationCount: 4,
	}
	for i := 0; i < elements; i++ {
		e.Elements = append(e.Elements, ElementEntry{Name: "el", SubElementCount: 2})
	}
	return e
}
