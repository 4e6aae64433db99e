package outbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Outbox {
	t.Helper()
	o, err := Open(t.TempDir(), Options{NoSync: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func pending(t *testing.T, o *Outbox, limit int) []Entry {
	t.Helper()
	var out []Entry
	require.NoError(t, o.ScanPending(limit, func(e Entry) error {
		out = append(out, e)
		return nil
	}))
	return out
}

func TestPutGet(t *testing.T) {
	o := openTest(t)
	require.NoError(t, o.Put(Entry{Seq: 1, Key: []byte("s"), Payload: []byte("trade-1")}))

	e, err := o.Get(1)
	require.NoError(t, err)
	assert.Equal(t, StateNew, e.State)
	assert.Equal(t, []byte("s"), e.Key)
	assert.Equal(t, []byte("trade-1"), e.Payload)

	_, err = o.Get(2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScanPendingOrderAndLimit(t *testing.T) {
	o := openTest(t)
	// keys are zero padded so 10 sorts after 9
	require.NoError(t, o.Put(
		Entry{Seq: 2, Payload: []byte("a")},
		Entry{Seq: 9, Payload: []byte("b")},
	))
	require.NoError(t, o.Put(Entry{Seq: 10, Payload: []byte("c")}))

	got := pending(t, o, 0)
	require.Len(t, got, 3)
	assert.Equal(t, []uint64{2, 9, 10}, []uint64{got[0].Seq, got[1].Seq, got[2].Seq})

	assert.Len(t, pending(t, o, 2), 2)
}

func TestMarkAndDelete(t *testing.T) {
	o := openTest(t)
	require.NoError(t, o.Put(Entry{Seq: 1, Payload: []byte("x")}, Entry{Seq: 2, Payload: []byte("y")}))

	require.NoError(t, o.Mark(1, StateFailed, 3))
	e, err := o.Get(1)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, e.State)
	assert.Equal(t, uint32(3), e.Retries)
	assert.NotZero(t, e.LastAttempt)
	assert.Equal(t, []byte("x"), e.Payload)

	require.NoError(t, o.Mark(2, StateAcked, 0))
	got := pending(t, o, 0)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].Seq)

	require.NoError(t, o.Delete(1))
	assert.Empty(t, pending(t, o, 0))

	assert.ErrorIs(t, o.Mark(1, StateSent, 0), ErrNotFound)
}

func TestEntriesSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	o, err := Open(dir, Options{})
	require.NoError(t, err)
	require.NoError(t, o.Put(Entry{Seq: 7, Payload: []byte("keep")}))
	require.NoError(t, o.Mark(7, StateSent, 1))
	require.NoError(t, o.Close())

	o, err = Open(dir, Options{})
	require.NoError(t, err)
	defer o.Close()

	got := pending(t, o, 0)
	require.Len(t, got, 1)
	assert.Equal(t, StateSent, got[0].State)
	assert.Equal(t, []byte("keep"), got[0].Payload)
}

func TestLastSeqOutlivesDeliveredEntries(t *testing.T) {
	dir := t.TempDir()
	o, err := Open(dir, Options{NoSync: true})
	require.NoError(t, err)

	last, err := o.LastSeq()
	require.NoError(t, err)
	assert.Zero(t, last)

	require.NoError(t, o.Put(Entry{Seq: 1, Payload: []byte("a")}, Entry{Seq: 2, Payload: []byte("b")}))
	require.NoError(t, o.Delete(1))
	require.NoError(t, o.Delete(2))
	require.NoError(t, o.Close())

	o, err = Open(dir, Options{NoSync: true})
	require.NoError(t, err)
	defer o.Close()

	last, err = o.LastSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), last)
}

func TestPutRefusesUsedSeq(t *testing.T) {
	o := openTest(t)
	require.NoError(t, o.Put(Entry{Seq: 1, Payload: []byte("undelivered")}))

	err := o.Put(Entry{Seq: 1, Payload: []byte("other session")})
	assert.ErrorIs(t, err, ErrStaleSeq)
	err = o.Put(Entry{Seq: 3, Payload: []byte("x")}, Entry{Seq: 2, Payload: []byte("y")})
	assert.ErrorIs(t, err, ErrStaleSeq)

	e, err := o.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("undelivered"), e.Payload)
	_, err = o.Get(3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ACKED", StateAcked.String())
	assert.Equal(t, "UNKNOWN", State(42).String())
}
