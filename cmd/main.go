package main

import (
	"os"

	"sushikoi/internal/cmd"

	_ "sushikoi/docs"
)

// @title Sushikoi delivery API
// @version 1.0
// @description Order lifecycle, packing countdown, address lookups and routes for the Sushikoi dashboard.
// @host localhost:9091
// @BasePath /api/v1
func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
