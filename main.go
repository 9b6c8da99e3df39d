package main

import (
	"github.com/BioHazard786/roomdrop/cmd"
	"github.com/BioHazard786/roomdrop/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
