// Package app wires application dependencies for the CLI.
//
// It builds the concrete stores, protocol engines and high-level services
// from a config.Config, exposing them via the Wire struct for commands to
// use, and runs the HTTP server.
package app
