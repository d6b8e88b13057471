package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// incompressiblePayload returns bytes that don't compress away to nothing,
// so the chain still spans multiple overflow pages after zstd.
func incompressiblePayload(n int) []byte {
	out := make([]byte, n)
	state := uint32(0x9e3779b9)
	for i := range out {
		state = state*1664525 + 1013904223
		out[i] = byte(state >> 24)
	}
	return out
}

func TestOverflow_WriteRead_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs := LocalFileSet{
		Dir:  dir,
		Base: "ovf_test",
	}

	sm := NewStorageManager()
	ovf := NewOverflowManager(sm, fs)

	// Payload bigger than one overflow page to force a multi-page chain
	// even after compression.
	payload := incompressiblePayload(12012)

	ref, err := ovf.Write(payload)
	require.NoError(t, err)
	require.NotZero(t, ref.Length)

	out, err := ovf.Read(ref)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestOverflow_Free_ReclaimsPages(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs := LocalFileSet{Dir: dir, Base: "ovf_free"}
	sm := NewStorageManager()
	ovf := NewOverflowManager(sm, fs)

	payload := incompressiblePayload(12012)
	ref, err := ovf.Write(payload)
	require.NoError(t, err)

	require.NoError(t, ovf.Free(ref))
	require.NotEmpty(t, ovf.freePages)

	// A subsequent write should reuse the freed pages rather than growing
	// the file further.
	before := len(ovf.freePages)
	ref2, err := ovf.Write(incompressiblePayload(100))
	require.NoError(t, err)
	require.Less(t, len(ovf.freePages), before)

	out, err := ovf.Read(ref2)
	require.NoError(t, err)
	require.Equal(t, incompressiblePayload(100), out)
}
