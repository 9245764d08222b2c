// Package channel provides generic channel interfaces used to hand sensor
// samples from producer goroutines to the engine's single consumer.
package channel

// Receiver provides read access to a channel.
type Receiver[T any] interface {
	Receive() <-chan T
	Len() int
}

// Sender provides write access to a channel. TrySend never blocks; it
// reports whether the value was accepted.
type Sender[T any] interface {
	Send(T)
	TrySend(T) bool
}

// Channel combines read and write access.
type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Close()
}

var (
	_ Channel[int] = (*Buffered[int])(nil)
	_ Channel[int] = (*Unbuffered[int])(nil)
)
