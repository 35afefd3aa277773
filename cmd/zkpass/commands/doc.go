// Package commands defines the zkpass CLI and wires dependencies for subcommands.
//
// Commands
//
//   - login begin      Create an ephemeral key and print the OAuth URL
//   - login complete   Finish the login from the OAuth callback URL or raw token
//   - logout           Drop the local session
//   - session show     Print the state of the local session
//   - tx grant         Grant a third-party capability through the registry
//   - tx revoke        Revoke a third-party capability
//   - cars list        List owned or listed cars
//   - cars show        Print a car and its service records
//   - partners         List granted third parties
//
// # Implementation
//
// The root command loads configuration (defaults, optional file, ZKPASS_*
// environment) and builds the dependency graph before any subcommand runs.
// Transactions go through the executor: the zkLogin path by default, the
// local keystore with --wallet.
package commands
