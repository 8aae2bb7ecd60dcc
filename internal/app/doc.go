// Package app ties configuration, logging, description loading and state
// persistence together, decoupled from any specific entrypoint like a CLI.
package app
