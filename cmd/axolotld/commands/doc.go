// Package commands defines the axolotld CLI.
//
// Commands
//
//   - init           Create the server identity and a default config file
//   - fingerprint    Print the identity fingerprint
//   - serve          Run the HTTP responder
//   - ping           Handshake with a running server and exchange messages
//
// # Implementation
//
// The root command resolves the data directory and loads the configuration
// before any subcommand runs. Commands that need the identity build the full
// dependency graph through app.NewWire.
package commands
