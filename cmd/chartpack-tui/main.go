// Command chartpack-tui is the interactive front-end of chartpack.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/handiism/chartpack/internal/config"
	"github.com/handiism/chartpack/internal/tui"
)

func main() {
	configFlag := flag.String("config", config.DefaultPath(), "Path to settings file")
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err == nil {
		err = settings.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(settings); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
