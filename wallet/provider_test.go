package wallet

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/share/bitcoin_rpc"
	"github.com/sat20-labs/sendmany/share/ord_rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T) (*Provider, *fakeOrd) {
	pkScript := hex.EncodeToString(taprootScript(t, 0x11))
	inscribed := testOutPoint(1, 0)
	id := testInscription(1, 0)

	ord := &fakeOrd{
		outputs: map[wire.OutPoint]*ord_rpc.Output{
			inscribed: {OutPoint: inscribed, Value: 10000, Inscriptions: []common.InscriptionId{id}},
		},
		inscriptions: map[common.InscriptionId]*ord_rpc.Inscription{
			id: {Id: id, SatPoint: common.SatPoint{OutPoint: inscribed}},
		},
	}
	change, err := btcutil.NewAddressTaproot(taprootScript(t, 0x22)[2:], testParams)
	require.NoError(t, err)

	p := &Provider{
		Params: testParams,
		Node:   &fakeNode{height: 840000, hash: testHash(9).String()},
		Wallet: &fakeWallet{
			unspent: []bitcoin_rpc.Unspent{
				{Txid: testHash(1).String(), Vout: 0, ScriptPubKey: pkScript, Value: 10000},
				{Txid: testHash(2).String(), Vout: 1, ScriptPubKey: pkScript, Value: 50000},
			},
			locked: []bitcoin_rpc.Outpoint{{Txid: testHash(2).String(), Vout: 1}},
			change: change.EncodeAddress(),
		},
		Ord:         ord,
		Concurrency: 2,
	}
	return p, ord
}

func TestProviderSnapshot(t *testing.T) {
	p, _ := newTestProvider(t)

	state, err := p.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(840000), state.Tip().Height)
	assert.Equal(t, testHash(9), state.Tip().Hash)
	assert.Len(t, state.Unspent(), 2)
	assert.True(t, state.IsLocked(testOutPoint(2, 1)))
	assert.Equal(t, 1, state.InscriptionCount())

	sp, ok := state.Lookup(testInscription(1, 0))
	require.True(t, ok)
	assert.Equal(t, testOutPoint(1, 0), sp.OutPoint)
	assert.Equal(t, uint64(0), sp.Offset)
}

func TestProviderSpentOutput(t *testing.T) {
	p, ord := newTestProvider(t)
	ord.outputs[testOutPoint(1, 0)].Spent = true

	_, err := p.Snapshot(context.Background())
	require.ErrorIs(t, err, common.ErrTransient)
	assert.Contains(t, err.Error(), "spent")
}

func TestProviderMovedInscription(t *testing.T) {
	p, ord := newTestProvider(t)
	id := testInscription(1, 0)
	ord.inscriptions[id].SatPoint = common.SatPoint{OutPoint: testOutPoint(3, 0)}

	_, err := p.Snapshot(context.Background())
	require.ErrorIs(t, err, common.ErrTransient)
	assert.Contains(t, err.Error(), "locates it at")
}

func TestProviderChangeAddress(t *testing.T) {
	p, _ := newTestProvider(t)

	addr, err := p.ChangeAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, p.Wallet.(*fakeWallet).change, addr.EncodeAddress())

	p.Wallet.(*fakeWallet).change = "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx"
	_, err = p.ChangeAddress(context.Background())
	require.ErrorIs(t, err, common.ErrFormat)
}
