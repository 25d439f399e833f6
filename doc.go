// Package scpfwk is the event-driven module framework at the core of a
// system control processor firmware. It binds a static table of cooperating
// modules (drivers, HALs, services, protocols) through a multi-phase
// lifecycle, mediates cross-module calls through a binding resolver, and
// delivers all asynchronous interaction through a single-threaded
// cooperative event loop with delayed responses and notifications.
//
// A module is registered in a ModuleEntry table and implements the Module
// interface plus any of the optional capability interfaces
// (ElementInitializer, PostInitializer, Binder, Starter, EventProcessor,
// NotificationProcessor, BindRequestHandler). Missing capabilities are
// treated as no-ops.
//
// Basic usage:
//
//	core, err := scpfwk.New(scpfwk.DefaultConfig(), table)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := core.Initialize(); err != nil {
//		log.Fatal(err)
//	}
//	if err := core.Start(); err != nil {
//		log.Fatal(err)
//	}
//	core.Run(ctx)
//
// All framework state is confined to the goroutine driving Run (or
// ProcessEvents). Interrupt handlers and other goroutines may only enter
// through PutEventFromISR.
package scpfwk
