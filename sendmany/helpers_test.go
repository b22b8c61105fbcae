package sendmany

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/sat20-labs/sendmany/common"
	"github.com/stretchr/testify/require"
)

var testParams = &chaincfg.MainNetParams

func testHash(n byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = n
	h[31] = n
	return h
}

func testOutPoint(n byte, vout uint32) wire.OutPoint {
	return wire.OutPoint{Hash: testHash(n), Index: vout}
}

func testInscription(n byte, index uint32) common.InscriptionId {
	return common.InscriptionId{Txid: testHash(0x80 | n), Index: index}
}

func taprootAddr(t *testing.T, seed byte) btcutil.Address {
	addr, err := btcutil.NewAddressTaproot(bytes.Repeat([]byte{seed}, 32), testParams)
	require.NoError(t, err)
	return addr
}

func segwitAddr(t *testing.T, seed byte) btcutil.Address {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(bytes.Repeat([]byte{seed}, 20), testParams)
	require.NoError(t, err)
	return addr
}

func script(t *testing.T, addr btcutil.Address) []byte {
	s, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return s
}

func testUtxo(t *testing.T, op wire.OutPoint, value int64) *Utxo {
	return &Utxo{OutPoint: op, Value: value, PkScript: script(t, taprootAddr(t, 0xee))}
}

func at(id common.InscriptionId, op wire.OutPoint, offset uint64) InscriptionLocation {
	return InscriptionLocation{SatPoint: common.SatPoint{OutPoint: op, Offset: offset}, Id: id}
}

type line struct {
	id   common.InscriptionId
	addr btcutil.Address
}

func loadLines(t *testing.T, lines ...line) *Requests {
	var sb strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&sb, "%s,%s\n", l.id, l.addr.EncodeAddress())
	}
	requests, err := LoadRequests(strings.NewReader(sb.String()), testParams)
	require.NoError(t, err)
	return requests
}

func newTestBuilder(t *testing.T, rate float64, change btcutil.Address) *Builder {
	feeRate, err := NewFeeRate(rate)
	require.NoError(t, err)
	b, err := NewBuilder(Config{Params: testParams, FeeRate: feeRate, ChangeAddress: change})
	require.NoError(t, err)
	return b
}

func sumOutputs(tx *wire.MsgTx) int64 {
	var total int64
	for _, out := range tx.TxOut {
		total += out.Value
	}
	return total
}

type staticSnapshot struct {
	state *WalletState
	err   error
	calls int
}

func (s *staticSnapshot) Snapshot(ctx context.Context) (*WalletState, error) {
	s.calls++
	return s.state, s.err
}

type fakeSigner struct {
	calls int
	err   error
}

func (s *fakeSigner) Sign(ctx context.Context, tx *wire.MsgTx, state *WalletState) (*wire.MsgTx, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	signed := tx.Copy()
	for _, in := range signed.TxIn {
		in.Witness = wire.TxWitness{bytes.Repeat([]byte{1}, SchnorrSignatureSize)}
	}
	return signed, nil
}

type fakeBroadcaster struct {
	sent []*wire.MsgTx
	err  error
}

func (b *fakeBroadcaster) Broadcast(ctx context.Context, tx *wire.MsgTx) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	b.sent = append(b.sent, tx)
	return tx.TxHash().String(), nil
}

type fakeChange struct {
	addr  btcutil.Address
	err   error
	calls int
}

func (c *fakeChange) ChangeAddress(ctx context.Context) (btcutil.Address, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.addr, nil
}
