// Package cli is responsible for the squidquam command tree, validating user
// input, and handling process-level concerns like exit codes. It translates
// flags, the config file and the environment into an app.App and runs one
// command against it.
package cli
