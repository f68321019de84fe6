// Package channel provides generic channel interfaces so producers and
// workers can be wired without sharing a concrete chan.
package channel

// Receiver provides read access to a channel.
type Receiver[T any] interface {
	Receive() <-chan T
	Len() int
}

// Sender provides write access to a channel. TrySend never blocks and
// reports whether v was accepted.
type Sender[T any] interface {
	Send(v T)
	TrySend(v T) bool
}

// Channel combines read and write access.
type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Close()
}
