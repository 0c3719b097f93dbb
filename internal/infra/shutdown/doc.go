// Package shutdown coordinates graceful process termination.
//
// Components register named hooks as they start. Wait blocks until
// SIGINT, SIGTERM, a manual Trigger or cancellation of its context, then
// runs the hooks in reverse registration order under one timeout.
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("frame server", srv.Shutdown)
//	err := h.Wait(ctx)
package shutdown
