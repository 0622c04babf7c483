// Package models defines the records persisted by notevault: users,
// sessions and notes.
package models
