package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"ktpapi/internal/config"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cfg := config.Load()

	if err := newRootCmd(cfg, defaultDeps()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
