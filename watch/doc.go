// Package watch provides two small concurrency primitives shared by every
// producer/consumer pair in package serve: State, a mutex-guarded value with
// change notification, and Queue, an unbounded async FIFO. Both replace
// Go channels where a channel alone can't express "give me the current
// value plus everything that changes after it," which every serve handle
// needs when a new reader attaches after a writer has already produced data.
package watch
