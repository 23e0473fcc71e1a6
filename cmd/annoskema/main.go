package main

import (
	"os"

	"github.com/reoring/annoskema/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
