package scpfwk

import "fmt"

// ModuleState tracks a module or element through the lifecycle engine.
type ModuleState int

// Module states.
const (
	ModuleStateUninitialized ModuleState = iota
	ModuleStateInitialized
	ModuleStateBound
	ModuleStateStarted
	ModuleStateSuspended
)

// String returns the state name.
func (s ModuleState) String() string {
	switch s {
	case ModuleStateUninitialized:
		return "uninitialized"
	case ModuleStateInitialized:
		return "initialized"
	case ModuleStateBound:
		return "bound"
	case ModuleStateStarted:
		return "started"
	case ModuleStateSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// targetContext is the per-target dispatch state shared by module and
// element contexts: the pending-event FIFO, the delayed-response list, and
// the ready-queue linkage.
type targetContext struct {
	qn      qnode[*targetContext]
	owner   ID
	queue   fifo[*Event]
	delayed fifo[*Event]
	ready   bool
}

func (t *targetContext) qlink() *qnode[*targetContext] {
	return &t.qn
}

// elementContext is the runtime state of one element.
type elementContext struct {
	id     ID
	entry  *ElementEntry
	module *moduleContext
	state  ModuleState
	target targetContext
}

// moduleContext is the runtime state of one module. Contexts are created
// once when the core is built and live until reset.
type moduleContext struct {
	id       ID
	index    int
	entry    *ModuleEntry
	state    ModuleState
	elements []elementContext
	target   targetContext
}

// buildRegistry validates the static table and creates the runtime
// contexts.
func buildRegistry(table []ModuleEntry) ([]*moduleContext, map[string]int, error) {
	if len(table) == 0 {
		return nil, nil, ErrTableEmpty
	}
	if len(table) > MaxModuleIndex+1 {
		return nil, nil, fmt.Errorf("%w: %d modules", ErrTableTooLarge, len(table))
	}

	modules := make([]*moduleContext, len(table))
	byName := make(map[string]int, len(table))

	for i := range table {
		entry := &table[i]
		if entry.Module == nil {
			return nil, nil, fmt.Errorf("%w: index %d", ErrModuleNil, i)
		}
		name := entry.Module.Name()
		if name == "" {
			return nil, nil, fmt.Errorf("%w: index %d", ErrModuleNameEmpty, i)
		}
		if _, dup := byName[name]; dup {
			return nil, nil, fmt.Errorf("%w: %q", ErrModuleNameDuplicate, name)
		}
		if len(entry.Elements) > MaxElementIndex+1 {
			return nil, nil, fmt.Errorf("%w: module %q has %d", ErrTooManyElements, name, len(entry.Elements))
		}
		if entry.APICount > MaxAPIIndex+1 || entry.EventCount > MaxEventIndex+1 ||
			entry.NotificationCount > MaxNotificationIndex+1 {
			return nil, nil, fmt.Errorf("%w: module %q", ErrTooManyItems, name)
		}

		mc := &moduleContext{
			id:       MustModuleID(i),
			index:    i,
			entry:    entry,
			elements: make([]elementContext, len(entry.Elements)),
		}
		mc.target.owner = mc.id

		for e := range entry.Elements {
			el := &entry.Elements[e]
			if el.SubElementCount > MaxSubElementIndex+1 {
				return nil, nil, fmt.Errorf("%w: module %q element %d has %d",
					ErrTooManySubElements, name, e, el.SubElementCount)
			}
			ec := &mc.elements[e]
			ec.id = MustElementID(i, e)
			ec.entry = el
			ec.module = mc
			ec.target.owner = ec.id
		}

		modules[i] = mc
		byName[name] = i
	}

	return modules, byName, nil
}

// moduleContextOf resolves the module context an identifier belongs to.
func (c *Core) moduleContextOf(id ID) (*moduleContext, error) {
	if id.Kind() == KindNone {
		return nil, fmt.Errorf("%w: untyped identifier", StatusParam)
	}
	idx := id.UncheckedModuleIndex()
	if idx >= len(c.modules) {
		return nil, fmt.Errorf("%w: module index %d not in table", StatusParam, idx)
	}
	return c.modules[idx], nil
}

// targetOf resolves the dispatch context for a module, element or
// sub-element identifier. Sub-elements share their element's queue.
func (c *Core) targetOf(id ID) (*targetContext, *moduleContext, error) {
	mc, err := c.moduleContextOf(id)
	if err != nil {
		return nil, nil, err
	}
	switch id.Kind() {
	case KindModule:
		return &mc.target, mc, nil
	case KindElement, KindSubElement:
		eidx := id.UncheckedElementIndex()
		if eidx >= len(mc.elements) {
			return nil, nil, fmt.Errorf("%w: element index %d not in module %q",
				StatusParam, eidx, mc.entry.Module.Name())
		}
		ec := &mc.elements[eidx]
		if id.Kind() == KindSubElement && id.UncheckedSubElementIndex() >= ec.entry.SubElementCount {
			return nil, nil, fmt.Errorf("%w: sub-element index %d not in element %q",
				StatusParam, id.UncheckedSubElementIndex(), ec.entry.Name)
		}
		return &ec.target, mc, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s is not a dispatch target", StatusParam, id)
	}
}

// LookupModule returns the identifier of the named module.
func (c *Core) LookupModule(name string) (ID, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return IDNone, false
	}
	return c.modules[idx].id, true
}

// ModuleStateOf reports the lifecycle state of a module or element.
func (c *Core) ModuleStateOf(id ID) (ModuleState, error) {
	mc, err := c.moduleContextOf(id)
	if err != nil {
		return ModuleStateUninitialized, err
	}
	switch id.Kind() {
	case KindModule:
		return mc.state, nil
	case KindElement, KindSubElement:
		eidx := id.UncheckedElementIndex()
		if eidx >= len(mc.elements) {
			return ModuleStateUninitialized, fmt.Errorf("%w: element index %d", StatusParam, eidx)
		}
		return mc.elements[eidx].state, nil
	default:
		return ModuleStateUninitialized, fmt.Errorf("%w: %s has no lifecycle state", StatusParam, id)
	}
}
