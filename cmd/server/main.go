// Package main is the entry point for the dicebridge API server
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/james-see/dicebridge/pkg/api"
	"github.com/james-see/dicebridge/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "Config file (default ~/.config/dicebridge/config.yaml)")
	port := flag.Int("port", 0, "Server port (default from config)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	fmt.Printf("Starting dicebridge API server on port %d...\n", cfg.Server.Port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", cfg.Server.Port)

	if err := api.StartServer(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
