package txn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBegin_StartsActive(t *testing.T) {
	tx := Begin()
	require.Equal(t, StateActive, tx.State())
	require.NotEqual(t, tx.ID().String(), "")
}

func TestCommit_TransitionsOnceFromActive(t *testing.T) {
	tx := Begin()
	require.True(t, tx.Commit())
	require.Equal(t, StateCommitted, tx.State())

	require.False(t, tx.Commit())
	require.False(t, tx.Abort())
}

func TestAbort_TransitionsOnceFromActive(t *testing.T) {
	tx := Begin()
	require.True(t, tx.Abort())
	require.Equal(t, StateAborted, tx.State())
	require.False(t, tx.Commit())
}

func TestTwoTransactions_GetDistinctIDs(t *testing.T) {
	a, b := Begin(), Begin()
	require.NotEqual(t, a.ID(), b.ID())
}
