// Package cli is the terminal transport: a line-oriented REPL that feeds the
// conversation machine and prints its replies and notes.
package cli
