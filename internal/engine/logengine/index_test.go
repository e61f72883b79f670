package logengine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kvd/pkg/fs"
)

func TestIndexedLog_RebuildIndex_ReflectsLastOccurrencePerKey(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fsys := fs.NewReal()

	il, err := openIndexedLog(fsys, dir)
	require.NoError(t, err)

	require.NoError(t, il.write(setCommand("a", "1")))
	require.NoError(t, il.write(setCommand("b", "2")))
	require.NoError(t, il.write(setCommand("a", "3")))

	require.NoError(t, il.close())

	reopened, err := openIndexedLog(fsys, dir)
	require.NoError(t, err)

	t.Cleanup(func() { _ = reopened.close() })

	require.Equal(t, 3, reopened.numWrites())
	require.Equal(t, 2, reopened.size())

	cmd, err := reopened.read("a")
	require.NoError(t, err)

	v, ok := cmd.value()
	require.True(t, ok)
	require.Equal(t, "3", v)
}

func TestIndexedLog_ShouldCompact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fsys := fs.NewReal()

	il, err := openIndexedLog(fsys, dir)
	require.NoError(t, err)

	t.Cleanup(func() { _ = il.close() })

	require.False(t, il.shouldCompact())

	require.NoError(t, il.write(setCommand("k", "v1")))
	require.NoError(t, il.write(setCommand("k", "v2")))
	require.NoError(t, il.write(setCommand("k", "v3")))

	// numWrites=3, |index|=1 -> 3 > 2*1
	require.True(t, il.shouldCompact())
}
