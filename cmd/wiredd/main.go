package main

import (
	"flag"
	"log"
	"os"

	"github.com/stlalpha/wired/internal/logging"
	"github.com/stlalpha/wired/internal/wiredserver"
)

func main() {
	dir := flag.String("dir", ".", "server root directory (holds wired.json, data/, files/)")
	debug := flag.Bool("debug", os.Getenv("DEBUG") == "1", "enable verbose per-message debug logging")
	flag.Parse()

	logging.DebugEnabled = *debug

	srv, err := wiredserver.New(*dir)
	if err != nil {
		log.Fatalf("FATAL: wiredd: %v", err)
	}

	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("FATAL: wiredd: %v", err)
	}
}
