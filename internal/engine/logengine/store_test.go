package logengine_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"kvd/internal/engine"
	"kvd/internal/engine/logengine"
	"kvd/pkg/fs"
)

// snapshot reads every key in keys and returns the live ones as a plain map,
// for diffing the pre/post-compaction key set with cmp.
func snapshot(t *testing.T, st *logengine.Store, keys []string) map[string]string {
	t.Helper()

	out := make(map[string]string)

	for _, k := range keys {
		v, ok, err := st.Get(k)
		require.NoError(t, err)

		if ok {
			out[k] = v
		}
	}

	return out
}

func openStore(t *testing.T) *logengine.Store {
	t.Helper()

	dir := t.TempDir()

	st, err := logengine.Open(fs.NewReal(), dir)
	require.NoError(t, err)

	t.Cleanup(func() { _ = st.Close() })

	return st
}

func TestStore_ReadYourWrites(t *testing.T) {
	t.Parallel()

	st := openStore(t)

	require.NoError(t, st.Set("key1", "value1"))

	v, ok, err := st.Get("key1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value1", v)
}

func TestStore_LatestSetWins(t *testing.T) {
	t.Parallel()

	st := openStore(t)

	require.NoError(t, st.Set("k", "v1"))
	require.NoError(t, st.Set("k", "v2"))

	v, ok, err := st.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", v)
}

func TestStore_TombstoneVisibility(t *testing.T) {
	t.Parallel()

	st := openStore(t)

	require.NoError(t, st.Set("k", "v"))
	require.NoError(t, st.Remove("k"))

	_, ok, err := st.Get("k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_RemoveAlreadyRemovedKeySucceeds(t *testing.T) {
	t.Parallel()

	st := openStore(t)

	require.NoError(t, st.Set("k", "v"))
	require.NoError(t, st.Remove("k"))
	// key is still present in the index (mapped to the tombstone), so a
	// second remove is not a KeyNotFound - only a key absent from the index
	// (never written, or its tombstone dropped by compaction) trips that
	// error.
	require.NoError(t, st.Remove("k"))

	_, ok, err := st.Get("k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_RemoveAbsentKeyReturnsKeyNotFound(t *testing.T) {
	t.Parallel()

	st := openStore(t)

	err := st.Remove("absent")
	require.ErrorIs(t, err, engine.ErrKeyNotFound)
}

func TestStore_GetAbsentKeyReturnsFalseNotError(t *testing.T) {
	t.Parallel()

	st := openStore(t)

	_, ok, err := st.Get("never-set")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_DurableAcrossRestart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fsys := fs.NewReal()

	st, err := logengine.Open(fsys, dir)
	require.NoError(t, err)

	for i := range 1000 {
		require.NoError(t, st.Set(fmt.Sprintf("key-%d", i), fmt.Sprintf("value-%d", i)))
	}

	require.NoError(t, st.Close())

	reopened, err := logengine.Open(fsys, dir)
	require.NoError(t, err)

	t.Cleanup(func() { _ = reopened.Close() })

	v, ok, err := reopened.Get("key-500")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "value-500", v)
}

func TestStore_CompactionPreservesSemanticsAndBoundsGrowth(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	st, err := logengine.Open(fs.NewReal(), dir)
	require.NoError(t, err)

	t.Cleanup(func() { _ = st.Close() })

	for range 10000 {
		require.NoError(t, st.Set("k", "v1"))
		require.NoError(t, st.Set("k", "v2"))
	}

	v, ok, err := st.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v2", v)

	// 20000 appended records would be hundreds of KiB; with compaction the
	// log holds at most a couple of records for the single key.
	info, err := os.Stat(filepath.Join(dir, "db"))
	require.NoError(t, err)
	require.Less(t, info.Size(), int64(1024))
}

func TestStore_CompactionOmitsRemovedKeys(t *testing.T) {
	t.Parallel()

	st := openStore(t)

	require.NoError(t, st.Set("live", "1"))
	require.NoError(t, st.Set("dead", "1"))
	require.NoError(t, st.Remove("dead"))

	// Force enough writes to trigger compaction via the num_writes > 2*|index|
	// predicate.
	for i := range 20 {
		require.NoError(t, st.Set("filler", fmt.Sprintf("%d", i)))
	}

	_, ok, err := st.Get("dead")
	require.NoError(t, err)
	require.False(t, ok)

	v, ok, err := st.Get("live")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", v)
}

func TestStore_CompactionPreservesExactLiveKeySet(t *testing.T) {
	t.Parallel()

	st := openStore(t)

	keys := []string{"a", "b", "c", "d"}

	require.NoError(t, st.Set("a", "1"))
	require.NoError(t, st.Set("b", "2"))
	require.NoError(t, st.Set("c", "3"))
	require.NoError(t, st.Set("d", "4"))
	require.NoError(t, st.Remove("b"))

	before := snapshot(t, st, keys)

	for i := range 20 {
		require.NoError(t, st.Set("filler", fmt.Sprintf("%d", i)))
	}

	after := snapshot(t, st, keys)

	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("live key set changed across compaction (-before +after):\n%s", diff)
	}
}

func TestStore_CloneSharesState(t *testing.T) {
	t.Parallel()

	st := openStore(t)

	clone := st.Clone()

	require.NoError(t, clone.Set("k", "v"))

	v, ok, err := st.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)
}
