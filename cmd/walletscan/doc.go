// Package walletscan provides the command-line interface for the walletscan
// tool. It configures subcommands (scan, ingest, rules, history, config),
// parses flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/walletscan/walletscan/cmd/walletscan"
//	func main() { walletscan.Execute() }
package walletscan
