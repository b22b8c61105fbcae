package rest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
	"github.com/sat20-labs/sendmany/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTx() (*wire.MsgTx, []byte) {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: chainhash.Hash{1}, Index: 0}, nil, nil))
	tx.AddTxOut(wire.NewTxOut(1000, []byte{0x51}))
	var buf bytes.Buffer
	_ = tx.Serialize(&buf)
	return tx, buf.Bytes()
}

type memCache struct {
	sync.Mutex
	m map[string][]byte
}

func (c *memCache) Read(key []byte) ([]byte, error) {
	c.Lock()
	defer c.Unlock()
	v, ok := c.m[string(key)]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (c *memCache) Write(key, value []byte) error {
	c.Lock()
	defer c.Unlock()
	c.m[string(key)] = value
	return nil
}

func TestGetRawTransactionRetries(t *testing.T) {
	tx, raw := testTx()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/tx/"+tx.TxHash().String()+".bin", r.URL.Path)
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	cache := &memCache{m: map[string][]byte{}}
	c := NewClient(srv.URL, WithBaseDelay(time.Millisecond), WithCache(cache))
	got, err := c.GetRawTransaction(context.Background(), tx.TxHash())
	require.NoError(t, err)
	assert.Equal(t, tx.TxHash(), got.TxHash())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

	// second read comes from the cache
	_, err = c.GetRawTransaction(context.Background(), tx.TxHash())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetRawTransactionGivesUp(t *testing.T) {
	tx, _ := testTx()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithAttempts(4), WithBaseDelay(time.Millisecond))
	_, err := c.GetRawTransaction(context.Background(), tx.TxHash())
	require.Error(t, err)
	assert.Equal(t, common.TransientError, common.KindOf(err))
	assert.Contains(t, err.Error(), "could not fetch tx "+tx.TxHash().String())
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestGetRawTransactionNotFound(t *testing.T) {
	tx, _ := testTx()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithBaseDelay(time.Millisecond))
	_, err := c.GetRawTransaction(context.Background(), tx.TxHash())
	require.Error(t, err)
	assert.Equal(t, common.ConsistencyError, common.KindOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetRawTransactionRejectsWrongTx(t *testing.T) {
	_, raw := testTx()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(raw)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithAttempts(2), WithBaseDelay(time.Millisecond))
	_, err := c.GetRawTransaction(context.Background(), chainhash.Hash{7})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mismatch")
}

func TestGetBlockHash(t *testing.T) {
	want := chainhash.DoubleHashH([]byte("block"))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/blockhashbyheight/840000.bin" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(want[:])
	}))
	defer srv.Close()

	c := NewClient(srv.Listener.Addr().String(), WithBaseDelay(time.Millisecond))
	got, err := c.GetBlockHash(context.Background(), 840000)
	require.NoError(t, err)
	assert.Equal(t, want, *got)

	_, err = c.GetBlockHash(context.Background(), 1)
	assert.Error(t, err)
}

func TestFetchHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	c := NewClient(srv.URL, WithAttempts(10), WithBaseDelay(time.Second))
	started := time.Now()
	_, err := c.GetRawTransaction(ctx, chainhash.Hash{1})
	require.Error(t, err)
	assert.Less(t, time.Since(started), 5*time.Second)
}
