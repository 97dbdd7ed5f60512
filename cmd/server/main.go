package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"csf.practicafiscal.mx/internal/handler"
	"csf.practicafiscal.mx/internal/store"
)

func main() {
	port := flag.Int("port", 8006, "HTTP server port")
	dbPath := flag.String("db", "csf.db", "SQLite database path")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	s, err := store.Open(*dbPath)
	if err != nil {
		log.Error("open database", "path", *dbPath, "error", err)
		os.Exit(1)
	}
	defer s.Close()
	if err := s.Init(context.Background()); err != nil {
		log.Error("init schema", "error", err)
		os.Exit(1)
	}

	h := handler.NewHandler(s, log)
	mux := http.NewServeMux()
	h.Routes(mux)

	addr := fmt.Sprintf(":%d", *port)
	log.Info("starting server", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}
