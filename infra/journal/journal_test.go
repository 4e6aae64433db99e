package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendLines(t *testing.T, j *Journal, start uint64, lines ...string) {
	t.Helper()
	for i, l := range lines {
		require.NoError(t, j.Append(&Record{Type: RecordPlace, Seq: start + uint64(i), Data: []byte(l)}))
	}
}

func replayAll(t *testing.T, dir string) ([]*Record, uint64, error) {
	t.Helper()
	var out []*Record
	last, err := Replay(dir, func(r *Record) error {
		out = append(out, r)
		return nil
	})
	return out, last, err
}

func TestAppendReplay(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(Config{Dir: dir})
	require.NoError(t, err)

	appendLines(t, j, 1, "BUY GFD 100 10 B1", "SELL GFD 100 5 S1")
	require.NoError(t, j.Append(&Record{Type: RecordPrint, Seq: 3, Data: []byte("PRINT")}))
	require.NoError(t, j.Close())

	recs, last, err := replayAll(t, dir)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last)
	require.Len(t, recs, 3)
	assert.Equal(t, "BUY GFD 100 10 B1", string(recs[0].Data))
	assert.Equal(t, RecordPrint, recs[2].Type)
	assert.NotZero(t, recs[0].Time)
}

func TestAppendRejectsStaleSeq(t *testing.T) {
	j, err := Open(Config{Dir: t.TempDir()})
	require.NoError(t, err)
	defer j.Close()

	appendLines(t, j, 5, "PRINT")
	err = j.Append(&Record{Type: RecordPrint, Seq: 5})
	assert.ErrorIs(t, err, ErrNonMonotonic)
}

func TestRotation(t *testing.T) {
	dir := t.TempDir()
	// every frame is larger than this, so each append rotates
	j, err := Open(Config{Dir: dir, SegmentSize: 16})
	require.NoError(t, err)
	appendLines(t, j, 1, "CANCEL a", "CANCEL b", "CANCEL c")
	require.NoError(t, j.Close())

	files, err := segments(dir)
	require.NoError(t, err)
	assert.Len(t, files, 4)

	recs, last, err := replayAll(t, dir)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), last)
	assert.Len(t, recs, 3)
}

func TestReopenDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	appendLines(t, j, 1, "PRINT")
	require.NoError(t, j.Close())

	j, err = Open(Config{Dir: dir})
	require.NoError(t, err)
	appendLines(t, j, 2, "PRINT")
	require.NoError(t, j.Close())

	recs, _, err := replayAll(t, dir)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestReplayDetectsCorruption(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	appendLines(t, j, 1, "BUY GFD 100 10 B1", "BUY GFD 100 10 B2")
	require.NoError(t, j.Close())

	path := segmentPath(dir, 0)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-crcSize-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0o644))

	recs, last, err := replayAll(t, dir)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Equal(t, uint64(1), last)
	assert.Len(t, recs, 1)
}

func TestReplayDetectsTruncation(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(Config{Dir: dir})
	require.NoError(t, err)
	appendLines(t, j, 1, "CANCEL B1")
	require.NoError(t, j.Close())

	path := segmentPath(dir, 0)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-2], 0o644))

	_, _, err = replayAll(t, dir)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestReplayEmptyDir(t *testing.T) {
	recs, last, err := replayAll(t, filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Zero(t, last)
	assert.Empty(t, recs)
}
