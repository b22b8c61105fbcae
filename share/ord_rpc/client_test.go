package ord_rpc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sat20-labs/sendmany/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTxid = "7f0f6b2f8a2e8d1df3fb5cf3b3a0b1d4b35c5cbbd8e68a5b0d9ff5c4a1e2b3c4"

func TestGetOutput(t *testing.T) {
	op, err := common.ParseOutPoint(testTxid + ":1")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "/output/"+testTxid+":1", r.URL.Path)
		fmt.Fprintf(w, `{"value":10000,"spent":false,"inscriptions":["%si0","%si1"],"runes":{}}`, testTxid, testTxid)
	}))
	defer srv.Close()

	out, err := NewClient(srv.URL, time.Second).GetOutput(context.Background(), op)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), out.Value)
	assert.False(t, out.Spent)
	require.Len(t, out.Inscriptions, 2)
	assert.Equal(t, uint32(1), out.Inscriptions[1].Index)
}

func TestGetOutputWithoutInscriptions(t *testing.T) {
	op, err := common.ParseOutPoint(testTxid + ":0")
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"value":546}`)
	}))
	defer srv.Close()

	out, err := NewClient(srv.URL, time.Second).GetOutput(context.Background(), op)
	require.NoError(t, err)
	assert.Empty(t, out.Inscriptions)
}

func TestGetInscription(t *testing.T) {
	id, err := common.ParseInscriptionId(testTxid + "i3")
	require.NoError(t, err)
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprintf(w, `{"id":"%si3","satpoint":"%s:1:600"}`, testTxid, testTxid)
	}))
	defer srv.Close()

	ins, err := NewClient(srv.URL, time.Second).GetInscription(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), ins.SatPoint.Offset)
	assert.Equal(t, uint32(1), ins.SatPoint.OutPoint.Index)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetInscriptionNotFound(t *testing.T) {
	id, err := common.ParseInscriptionId(testTxid + "i3")
	require.NoError(t, err)
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err = NewClient(srv.URL, time.Second).GetInscription(context.Background(), id)
	require.Error(t, err)
	assert.Equal(t, common.ConsistencyError, common.KindOf(err))
}
