package checkout

import (
	"context"
	"time"
)

// sessionExpiredNotice is the user-visible message shown when inactivity
// forces a logout.
const sessionExpiredNotice = "Sessão expirada por inatividade. Faça login novamente."

// StartActivityMonitor launches the background inactivity sweep: every
// check interval it compares the idle time against the timeout and, on
// exceeding it, forces the session unauthenticated, notifies the user and
// logs a timeout event. The monitor stops when ctx is canceled or Close is
// called; an in-flight submission is never aborted by it.
func (c *Controller) StartActivityMonitor(ctx context.Context) {
	monitorCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	c.monitorCancel = cancel
	c.monitorDone = done
	c.mu.Unlock()

	ticker := time.NewTicker(c.checkInterval)
	go func() {
		defer ticker.Stop()
		defer close(done)
		c.logger.Info("activity monitor started",
			"interval", c.checkInterval, "idle_timeout", c.idleTimeout)

		for {
			select {
			case <-ticker.C:
				c.checkInactivity()
			case <-monitorCtx.Done():
				c.logger.Info("activity monitor shutting down", "reason", monitorCtx.Err())
				return
			}
		}
	}()
}

// Close stops the activity monitor and waits for it to exit. Safe to call
// when the monitor was never started, and idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	cancel := c.monitorCancel
	done := c.monitorDone
	c.monitorCancel = nil
	c.monitorDone = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (c *Controller) checkInactivity() {
	c.mu.Lock()
	if !c.state.IsAuthenticated {
		c.mu.Unlock()
		return
	}
	idle := c.now().Sub(c.state.LastActivity)
	if idle < c.idleTimeout {
		c.mu.Unlock()
		return
	}
	c.state.IsAuthenticated = false
	c.state.SessionToken = ""
	c.mu.Unlock()

	c.logger.Info("session expired by inactivity", "idle", idle)
	c.audit.Append("session_timeout", false, "inactivity timeout exceeded")
	if c.notifier != nil {
		c.notifier.SessionExpired(sessionExpiredNotice)
	}
}
