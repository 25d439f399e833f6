package scpfwk

// Phase identifies a lifecycle engine phase.
type Phase int

// Lifecycle phases, in execution order.
const (
	PhaseNone Phase = iota
	PhaseInit
	PhaseElementInit
	PhasePostInit
	PhaseBindFirst
	PhaseBindSecond
	PhaseStart
	PhaseRuntime
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNone:
		return "none"
	case PhaseInit:
		return "init"
	case PhaseElementInit:
		return "element_init"
	case PhasePostInit:
		return "post_init"
	case PhaseBindFirst:
		return "bind(0)"
	case PhaseBindSecond:
		return "bind(1)"
	case PhaseStart:
		return "start"
	case PhaseRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Initialize runs the first five phases across the static table:
// per module init, element_init for each of its elements and post_init, in
// table order; then the first and second bind rounds across all modules.
// Any failing callback halts startup and is surfaced as a PhaseError.
func (c *Core) Initialize() error {
	if c.state != coreStateCreated {
		return ErrAlreadyInitialized
	}

	for _, mc := range c.modules {
		if err := c.initModule(mc); err != nil {
			return err
		}
	}

	if err := c.bindRound(BindRoundFirst, PhaseBindFirst); err != nil {
		return err
	}
	if err := c.bindRound(BindRoundSecond, PhaseBindSecond); err != nil {
		return err
	}

	for _, mc := range c.modules {
		mc.state = ModuleStateBound
		for e := range mc.elements {
			mc.elements[e].state = ModuleStateBound
		}
		c.emitModuleLifecycle(mc, "bound")
	}

	c.state = coreStateInitialized
	c.phase = PhaseNone
	c.logger.Info("Core initialized", "modules", len(c.modules))
	return nil
}

func (c *Core) initModule(mc *moduleContext) error {
	name := mc.entry.Module.Name()

	c.phase = PhaseInit
	c.logger.Debug("Initializing module", "module", name, "id", mc.id, "kind", mc.entry.Kind)
	if err := mc.entry.Module.Init(c, mc.id, len(mc.elements), mc.entry.Config); err != nil {
		return &PhaseError{Module: name, ID: mc.id, Phase: PhaseInit, Err: err}
	}

	if ei, ok := mc.entry.Module.(ElementInitializer); ok {
		c.phase = PhaseElementInit
		for e := range mc.elements {
			ec := &mc.elements[e]
			if err := ei.InitElement(c, ec.id, ec.entry.SubElementCount, ec.entry.Config); err != nil {
				return &PhaseError{Module: name, ID: ec.id, Phase: PhaseElementInit, Err: err}
			}
			ec.state = ModuleStateInitialized
		}
	} else {
		for e := range mc.elements {
			mc.elements[e].state = ModuleStateInitialized
		}
	}

	if pi, ok := mc.entry.Module.(PostInitializer); ok {
		c.phase = PhasePostInit
		if err := pi.PostInit(c, mc.id); err != nil {
			return &PhaseError{Module: name, ID: mc.id, Phase: PhasePostInit, Err: err}
		}
	}

	mc.state = ModuleStateInitialized
	c.emitModuleLifecycle(mc, "initialized")
	c.logger.Info("Initialized module", "module", name, "elements", len(mc.elements))
	return nil
}

func (c *Core) bindRound(round int, phase Phase) error {
	c.phase = phase
	for _, mc := range c.modules {
		binder, ok := mc.entry.Module.(Binder)
		if !ok {
			continue
		}
		name := mc.entry.Module.Name()

		c.binding = mc.id
		err := binder.Bind(c, mc.id, round)
		c.binding = IDNone
		if err != nil {
			return &PhaseError{Module: name, ID: mc.id, Phase: phase, Err: err}
		}

		for e := range mc.elements {
			ec := &mc.elements[e]
			c.binding = ec.id
			err := binder.Bind(c, ec.id, round)
			c.binding = IDNone
			if err != nil {
				return &PhaseError{Module: name, ID: ec.id, Phase: phase, Err: err}
			}
		}
	}
	return nil
}

// Start runs the start phase across the table. Events posted by start
// callbacks are queued but not dispatched until Run or ProcessEvents is
// invoked, after every callback has completed.
func (c *Core) Start() error {
	switch c.state {
	case coreStateCreated:
		return ErrNotInitialized
	case coreStateInitialized:
	default:
		return ErrAlreadyStarted
	}

	c.state = coreStateStarting
	c.phase = PhaseStart

	for _, mc := range c.modules {
		name := mc.entry.Module.Name()
		if starter, ok := mc.entry.Module.(Starter); ok {
			c.logger.Debug("Starting module", "module", name)
			if err := starter.Start(c, mc.id); err != nil {
				c.state = coreStateInitialized
				c.phase = PhaseNone
				return &PhaseError{Module: name, ID: mc.id, Phase: PhaseStart, Err: err}
			}
			for e := range mc.elements {
				ec := &mc.elements[e]
				if err := starter.Start(c, ec.id); err != nil {
					c.state = coreStateInitialized
					c.phase = PhaseNone
					return &PhaseError{Module: name, ID: ec.id, Phase: PhaseStart, Err: err}
				}
				ec.state = ModuleStateStarted
			}
		} else {
			for e := range mc.elements {
				mc.elements[e].state = ModuleStateStarted
			}
		}
		mc.state = ModuleStateStarted
		c.emitModuleLifecycle(mc, "started")
		c.logger.Info("Started module", "module", name)
	}

	c.state = coreStateStarted
	c.phase = PhaseRuntime
	c.emitCoreLifecycle("started")
	c.logger.Info("Core started", "queued", c.ready.len())
	return nil
}
