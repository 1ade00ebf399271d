package main

import (
	"os"

	"github.com/penwyp/go-dirac-console/commands"
	"github.com/penwyp/go-dirac-console/internal/util"
)

func main() {
	err := commands.Execute()
	_ = util.CloseLogger()
	if err != nil {
		os.Exit(1)
	}
}
