package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/zephyrtronium/mathparser/internal/logging"
)

func main() {
	err := run(context.Background(), os.Exit, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]...)
	if err != nil {
		log := logging.New(os.Stderr, logging.WithTime(false))
		log.Error("run failed", slog.Any("error", err))
		os.Exit(1)
	}
}
