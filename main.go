package main

import (
	"github.com/windlass-sh/windlass/cmd"
	"github.com/windlass-sh/windlass/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
