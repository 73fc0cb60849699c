package main

import (
	"github.com/clipgate/clipgate/cmd/cli"
)

// main is the entry point for the clipgate-admin command-line tool.
// It delegates all execution to the Execute function provided by the cli package.
func main() {
	cli.Execute()
}
