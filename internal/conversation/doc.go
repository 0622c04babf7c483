// Package conversation drives the chat dialog on top of the vault use cases.
//
// Each identity carries a State value between messages. Machine.Handle takes
// the current State and one Input and returns the next State together with
// the replies to show. Notes themselves are delivered through a Notifier
// supplied by the transport.
package conversation
