package main

import (
	"os"
	"os/signal"
	"syscall"

	"asclepius/internal/bootstrap"
)

func main() {
	c := bootstrap.NewContainer()
	c.MustInit()

	if err := c.Start(); err != nil {
		c.Log.Fatalf("Failed to start: %v", err)
	}

	waitForShutdown(c)
}

// waitForShutdown blocks until a signal arrives or a fatal component error
// cancels the application context, then runs the coordinated shutdown
func waitForShutdown(c *bootstrap.Container) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		c.Log.Infof("Received signal: %v", sig)
	case <-c.Context.Done():
		c.Log.Warn("Application context cancelled")
	}

	c.Shutdown()
}
