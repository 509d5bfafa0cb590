// Package main is the entry point for the voiceteleop CLI.
//
// Usage:
//
//	voiceteleop [flags] <command> [args]
//
// Commands:
//
//	teleop   - drive the robot by voice (default)
//	params   - list every tuning register with its current value
//	get      - read one tuning register
//	set      - write one tuning register
//	version  - show the array firmware version
//	watch    - print voice activity and direction changes
//	replay   - play back an archived recording
package main

import (
	"fmt"
	"os"

	"github.com/hammamikhairi/voiceteleop/cmd/voiceteleop/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
