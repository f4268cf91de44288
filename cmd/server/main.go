package main

import (
	"log/slog"
	"os"
)

func main() {
	srv, err := NewServer()
	if err != nil {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
	if err := srv.Run(); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}
