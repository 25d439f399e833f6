package scpfwk

import "fmt"

// InterruptState is the opaque token returned by GlobalDisable and handed
// back to GlobalEnable.
type InterruptState uint32

// InterruptDriver is the interrupt infrastructure the core consumes. It is
// supplied by the platform, not implemented here; the framework itself only
// needs SetISR and Enable, through BindInterrupt.
type InterruptDriver interface {
	// SetISR installs handler for the given interrupt number.
	SetISR(irq int, handler func()) error

	// Enable unmasks the interrupt.
	Enable(irq int) error

	// Disable masks the interrupt.
	Disable(irq int) error

	// GlobalDisable masks all interrupts and returns the previous state.
	GlobalDisable() InterruptState

	// GlobalEnable restores the state captured by GlobalDisable.
	GlobalEnable(state InterruptState)
}

// BindInterrupt installs an ISR that posts the event produced by build on
// every firing of irq, then enables the interrupt. build runs in interrupt
// context and must only construct the event; the post goes through
// PutEventFromISR with its usual backpressure.
func (c *Core) BindInterrupt(irq int, build func() Event) error {
	if c.interrupts == nil {
		return ErrNoInterruptDriver
	}
	if build == nil {
		return fmt.Errorf("%w: nil event builder", StatusParam)
	}
	err := c.interrupts.SetISR(irq, func() {
		ev := build()
		// No caller to report to in interrupt context; the drop counter
		// carries the evidence.
		_ = c.PutEventFromISR(&ev)
	})
	if err != nil {
		return fmt.Errorf("installing isr for irq %d: %w", irq, err)
	}
	if err := c.interrupts.Enable(irq); err != nil {
		return fmt.Errorf("enabling irq %d: %w", irq, err)
	}
	return nil
}
