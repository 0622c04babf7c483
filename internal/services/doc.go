// Package services contains the vault business logic: credential checks,
// external-id sessions, the keyword-indexed note store and the VaultService
// use cases that the conversation layer drives.
//
// Services hold no mutable state of their own and are safe for concurrent
// use; uniqueness is enforced by database constraints.
package services
