package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPebbleDB(t *testing.T) {
	kv, err := NewPebbleDB(t.TempDir())
	require.NoError(t, err)
	defer kv.Close()

	_, err = kv.Read([]byte("tx-1"))
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, kv.Write([]byte("tx-1"), []byte{1}))
	require.NoError(t, kv.Write([]byte("tx-2"), []byte{2}))
	require.NoError(t, kv.Write([]byte("bh-1"), []byte{3}))

	v, err := kv.Read([]byte("tx-2"))
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, v)

	var keys []string
	require.NoError(t, kv.BatchRead([]byte("tx-"), func(k, v []byte) error {
		keys = append(keys, string(k))
		return nil
	}))
	assert.Equal(t, []string{"tx-1", "tx-2"}, keys)

	require.NoError(t, kv.DropPrefix([]byte("tx-")))
	_, err = kv.Read([]byte("tx-1"))
	assert.ErrorIs(t, err, ErrKeyNotFound)
	_, err = kv.Read([]byte("bh-1"))
	assert.NoError(t, err)

	require.NoError(t, kv.Delete([]byte("bh-1")))
	_, err = kv.Read([]byte("bh-1"))
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
