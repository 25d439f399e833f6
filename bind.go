package scpfwk

import "fmt"

// ModuleBind resolves an API published by another module. target names the
// module or element publishing the API and apiID names the API itself; the
// two must agree on the module index. The target module's
// ProcessBindRequest answers the query; the resolver never caches, so every
// call is a fresh authorization check.
//
// Binds are rejected with StatusAccess during module init (a module may not
// call into others before the bind rounds) and with StatusState when the
// target's init has not completed.
func (c *Core) ModuleBind(target, apiID ID) (any, error) {
	if !target.IsKind(KindModule) && !target.IsKind(KindElement) {
		return nil, fmt.Errorf("%w: bind target %s must be a module or element", StatusParam, target)
	}
	if !apiID.IsKind(KindAPI) {
		return nil, fmt.Errorf("%w: %s is not an api identifier", StatusParam, apiID)
	}
	if apiID.UncheckedModuleIndex() != target.UncheckedModuleIndex() {
		return nil, fmt.Errorf("%w: api %s does not belong to %s", StatusParam, apiID, target)
	}
	if c.phase == PhaseInit || c.phase == PhaseElementInit || c.phase == PhasePostInit {
		return nil, fmt.Errorf("%w: ModuleBind is not permitted during %s", StatusAccess, c.phase)
	}

	tmc, err := c.moduleContextOf(target)
	if err != nil {
		return nil, err
	}
	if target.IsKind(KindElement) && target.UncheckedElementIndex() >= len(tmc.elements) {
		return nil, fmt.Errorf("%w: element index %d not in module %q",
			StatusParam, target.UncheckedElementIndex(), tmc.entry.Module.Name())
	}
	if apiID.APIIndex() >= tmc.entry.APICount {
		return nil, fmt.Errorf("%w: module %q exposes %d apis, requested %s",
			StatusParam, tmc.entry.Module.Name(), tmc.entry.APICount, apiID)
	}
	if tmc.state == ModuleStateUninitialized {
		return nil, fmt.Errorf("%w: module %q has not completed init", StatusState, tmc.entry.Module.Name())
	}

	handler, ok := tmc.entry.Module.(BindRequestHandler)
	if !ok {
		return nil, fmt.Errorf("%w: module %q publishes no apis", StatusSupport, tmc.entry.Module.Name())
	}

	api, err := handler.ProcessBindRequest(c, c.bindSource(), target, apiID)
	if err != nil {
		return nil, fmt.Errorf("bind to %s %s: %w", target, apiID, err)
	}
	if api == nil {
		return nil, fmt.Errorf("%w: module %q, api %s", ErrAPINil, tmc.entry.Module.Name(), apiID)
	}
	return api, nil
}

// bindSource attributes a bind request to the entity whose callback is
// running: the module or element in its Bind callback during the bind
// rounds, or the entity whose event is being dispatched at runtime.
func (c *Core) bindSource() ID {
	if c.binding != IDNone {
		return c.binding
	}
	if c.current != nil {
		return c.current.owner
	}
	return IDNone
}

// BindAs resolves an API through fw.ModuleBind and asserts it to the
// requested interface type, so callers hold a typed handle rather than a
// bare any.
func BindAs[T any](fw Framework, target, apiID ID) (T, error) {
	var zero T
	api, err := fw.ModuleBind(target, apiID)
	if err != nil {
		return zero, err
	}
	typed, ok := api.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s %s is %T", ErrAPIWrongType, target, apiID, api)
	}
	return typed, nil
}
