package main

import (
	"os"

	"github.com/arlo-dev/capgate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
