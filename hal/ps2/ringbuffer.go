package ps2

// BufferSize is the ring capacity. One slot is kept free to tell a full ring
// from an empty one, so at most BufferSize-1 bytes are queued.
const BufferSize = 128

// RingBuffer is a fixed-size byte FIFO. It keeps the oldest data: a Put on a
// full ring is dropped. It does no locking; Keyboard guards it.
type RingBuffer struct {
	buf  [BufferSize]byte
	head int // next read
	tail int // next write
}

// Put appends v unless the ring is full. It reports whether v was stored.
func (rb *RingBuffer) Put(v byte) bool {
	next := (rb.tail + 1) % BufferSize
	if next == rb.head {
		return false
	}
	rb.buf[rb.tail] = v
	rb.tail = next
	return true
}

// Get removes and returns the oldest byte. It returns (0, false) when empty.
func (rb *RingBuffer) Get() (byte, bool) {
	if rb.head == rb.tail {
		return 0, false
	}
	v := rb.buf[rb.head]
	rb.head = (rb.head + 1) % BufferSize
	return v, true
}

// Used returns the number of queued bytes.
func (rb *RingBuffer) Used() int {
	return (rb.tail - rb.head + BufferSize) % BufferSize
}

// Cap returns the usable capacity.
func (rb *RingBuffer) Cap() int { return BufferSize - 1 }

// Empty reports whether nothing is queued.
func (rb *RingBuffer) Empty() bool { return rb.head == rb.tail }

// Full reports whether the next Put would be dropped.
func (rb *RingBuffer) Full() bool { return (rb.tail+1)%BufferSize == rb.head }
