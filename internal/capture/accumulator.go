package capture

import "sync"

// chunkAccumulator collects audio chunks in strict arrival order. The
// assembled buffer is invariant to how the incoming stream was chunked.
type chunkAccumulator struct {
	mu     sync.Mutex
	chunks [][]byte
	total  int
}

func newChunkAccumulator() *chunkAccumulator {
	return &chunkAccumulator{}
}

// Add appends a copy of chunk. Empty chunks are ignored; non-empty chunks
// are never reordered or dropped.
func (a *chunkAccumulator) Add(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	copied := append([]byte(nil), chunk...)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.chunks = append(a.chunks, copied)
	a.total += len(copied)
}

// Assemble concatenates all accumulated chunks into one contiguous buffer.
func (a *chunkAccumulator) Assemble() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	buf := make([]byte, 0, a.total)
	for _, chunk := range a.chunks {
		buf = append(buf, chunk...)
	}
	return buf
}

// Len reports the number of accumulated bytes.
func (a *chunkAccumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total
}
