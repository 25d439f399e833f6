package scpfwk

import "fmt"

// GetDelayedResponse retrieves the parked response for a transaction that a
// handler of target deferred with IsDelayedResponse. The entry is consumed:
// a second call with the same cookie fails with StatusParam. The module
// fills in Params and Status on the returned copy and posts it with
// PutEvent to complete the transaction.
func (c *Core) GetDelayedResponse(target ID, cookie uint32, out *Event) error {
	if out == nil {
		return fmt.Errorf("%w: nil output event", StatusParam)
	}
	if cookie == 0 {
		return fmt.Errorf("%w: zero cookie", StatusParam)
	}
	t, _, err := c.targetOf(target)
	if err != nil {
		return err
	}

	var found *Event
	t.delayed.forEach(func(e *Event) bool {
		if e.Cookie == cookie {
			found = e
			return false
		}
		return true
	})
	if found == nil {
		return fmt.Errorf("%w: no delayed response for cookie %d on %s", StatusParam, cookie, target)
	}

	t.delayed.remove(found)
	out.copyPayload(found)
	c.releaseSlot(found)
	c.stats.delayedPending.Add(-1)
	if c.metrics != nil {
		c.metrics.delayedPending.Dec()
	}
	return nil
}
