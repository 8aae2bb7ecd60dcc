// Package statestore defines where a component tree's JSON documents are
// persisted. A tree is saved as a handful of named documents (state.json,
// wiring.json, ...); a Store only moves those bytes around.
package statestore
