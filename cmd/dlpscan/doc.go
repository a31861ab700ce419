// Package dlpscan provides the command-line interface for dlpscan.
// It configures subcommands (scan, demo, infotypes, config, etc.), parses
// flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/dlpscan/dlpscan/cmd/dlpscan"
//	func main() { dlpscan.Execute() }
package dlpscan
