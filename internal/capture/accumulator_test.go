package capture

import (
	"bytes"
	"testing"
)

func TestChunkAccumulatorPreservesArrivalOrder(t *testing.T) {
	t.Parallel()

	acc := newChunkAccumulator()
	acc.Add([]byte("one"))
	acc.Add(nil)
	acc.Add([]byte("two"))
	acc.Add([]byte(""))
	acc.Add([]byte("three"))

	if got := acc.Assemble(); !bytes.Equal(got, []byte("onetwothree")) {
		t.Fatalf("unexpected assembly: %q", got)
	}
	if acc.Len() != len("onetwothree") {
		t.Fatalf("unexpected length: %d", acc.Len())
	}
}

func TestChunkAccumulatorCopiesInput(t *testing.T) {
	t.Parallel()

	acc := newChunkAccumulator()
	chunk := []byte("abc")
	acc.Add(chunk)
	chunk[0] = 'z'

	if got := acc.Assemble(); !bytes.Equal(got, []byte("abc")) {
		t.Fatalf("accumulator aliased caller memory: %q", got)
	}
}
