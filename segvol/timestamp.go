package segvol

import "sync/atomic"

// Timestamp is a monotonically increasing modification stamp shared by all data.
type Timestamp uint64

var lastTimestamp uint64

// NextTimestamp returns a timestamp greater than any previously returned.
func NextTimestamp() Timestamp {
	return Timestamp(atomic.AddUint64(&lastTimestamp, 1))
}

// CurrentTimestamp returns the most recently issued timestamp.
func CurrentTimestamp() Timestamp {
	return Timestamp(atomic.LoadUint64(&lastTimestamp))
}
