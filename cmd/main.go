package main

import (
	"context"
	"os"

	"github.com/desertthunder/taskr/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{
		Config: shared.DefaultConfig(),
		Logger: logger,
	})

	if err := newApp(runner).Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
