// Package app wires application dependencies for the CLIs.
//
// It loads configuration with viper, configures the global zerolog logger and
// builds the concrete stores, network clients and services, exposing them via
// the Wire struct for client commands and NewGateway for the gateway binary.
package app
