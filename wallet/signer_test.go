package wallet

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/mempool"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/sendmany"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKey(t *testing.T) (*KeySigner, string) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	wif, err := btcutil.NewWIF(priv, testParams, true)
	require.NoError(t, err)

	signer, err := NewKeySigner([]string{wif.String()}, testParams, nil)
	require.NoError(t, err)
	return signer, wif.String()
}

func unsignedTx(inputs ...wire.OutPoint) *wire.MsgTx {
	tx := wire.NewMsgTx(sendmany.TxVersion)
	for _, op := range inputs {
		in := wire.NewTxIn(&op, nil, nil)
		in.Sequence = mempool.MaxRBFSequence
		tx.AddTxIn(in)
	}
	return tx
}

func TestKeySigner(t *testing.T) {
	signer, _ := newTestKey(t)
	addrs := signer.Addresses()
	require.Len(t, addrs, 2)

	trScript, err := txscript.PayToAddrScript(addrs[0])
	require.NoError(t, err)
	wpkhScript, err := txscript.PayToAddrScript(addrs[1])
	require.NoError(t, err)
	require.True(t, txscript.IsPayToTaproot(trScript))

	state := sendmany.NewWalletState(sendmany.ChainTip{},
		[]*sendmany.Utxo{
			{OutPoint: testOutPoint(1, 0), Value: 10000, PkScript: trScript},
			{OutPoint: testOutPoint(2, 0), Value: 20000, PkScript: wpkhScript},
		}, nil, nil)

	tx := unsignedTx(testOutPoint(1, 0), testOutPoint(2, 0))
	tx.AddTxOut(wire.NewTxOut(9000, trScript))
	tx.AddTxOut(wire.NewTxOut(19000, trScript))

	signed, err := signer.Sign(context.Background(), tx, state)
	require.NoError(t, err)

	assert.Empty(t, tx.TxIn[0].Witness, "the input tx is left alone")
	require.Len(t, signed.TxIn[0].Witness, 1)
	assert.Len(t, signed.TxIn[0].Witness[0], 64)
	assert.Len(t, signed.TxIn[1].Witness, 2)
	assert.Equal(t, tx.TxHash(), signed.TxHash())
}

func TestKeySignerFetchesPrevOut(t *testing.T) {
	signer, _ := newTestKey(t)
	trScript, err := txscript.PayToAddrScript(signer.Addresses()[0])
	require.NoError(t, err)

	prev := wire.NewMsgTx(2)
	prev.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: testHash(7)}, nil, nil))
	prev.AddTxOut(wire.NewTxOut(5000, trScript))
	signer.txs = fakeTxs{prev.TxHash(): prev}

	tx := unsignedTx(wire.OutPoint{Hash: prev.TxHash(), Index: 0})
	tx.AddTxOut(wire.NewTxOut(4000, trScript))

	signed, err := signer.Sign(context.Background(), tx, nil)
	require.NoError(t, err)
	assert.Len(t, signed.TxIn[0].Witness, 1)

	tx = unsignedTx(wire.OutPoint{Hash: prev.TxHash(), Index: 3})
	_, err = signer.Sign(context.Background(), tx, nil)
	require.ErrorIs(t, err, common.ErrConsistency)
}

func TestNodeTxs(t *testing.T) {
	signer, _ := newTestKey(t)
	trScript, err := txscript.PayToAddrScript(signer.Addresses()[0])
	require.NoError(t, err)

	prev := wire.NewMsgTx(2)
	prev.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: testHash(8)}, nil, nil))
	prev.AddTxOut(wire.NewTxOut(6000, trScript))
	raw, err := sendmany.EncodeTx(prev)
	require.NoError(t, err)

	other := wire.NewMsgTx(2)
	other.AddTxIn(wire.NewTxIn(&wire.OutPoint{Hash: testHash(12)}, nil, nil))
	other.AddTxOut(wire.NewTxOut(1, trScript))
	otherRaw, err := sendmany.EncodeTx(other)
	require.NoError(t, err)

	node := &fakeNode{rawTxs: map[string]string{
		prev.TxHash().String(): raw,
		testHash(9).String():   otherRaw,
		testHash(10).String():  "zz",
	}}
	txs := &NodeTxs{Node: node}

	got, err := txs.GetRawTransaction(context.Background(), prev.TxHash())
	require.NoError(t, err)
	assert.Equal(t, prev.TxHash(), got.TxHash())

	_, err = txs.GetRawTransaction(context.Background(), testHash(9))
	require.ErrorIs(t, err, common.ErrConsistency)

	_, err = txs.GetRawTransaction(context.Background(), testHash(10))
	require.ErrorIs(t, err, common.ErrConsistency)

	_, err = txs.GetRawTransaction(context.Background(), testHash(11))
	require.ErrorIs(t, err, common.ErrTransient)

	signer.txs = txs
	tx := unsignedTx(wire.OutPoint{Hash: prev.TxHash(), Index: 0})
	tx.AddTxOut(wire.NewTxOut(5000, trScript))
	signed, err := signer.Sign(context.Background(), tx, nil)
	require.NoError(t, err)
	assert.Len(t, signed.TxIn[0].Witness, 1)
}

func TestKeySignerUnknownInput(t *testing.T) {
	signer, _ := newTestKey(t)

	state := sendmany.NewWalletState(sendmany.ChainTip{},
		[]*sendmany.Utxo{{OutPoint: testOutPoint(1, 0), Value: 10000, PkScript: taprootScript(t, 0x33)}},
		nil, nil)
	_, err := signer.Sign(context.Background(), unsignedTx(testOutPoint(1, 0)), state)
	require.ErrorIs(t, err, common.ErrConsistency)
	assert.Contains(t, err.Error(), "no key for input")

	_, err = signer.Sign(context.Background(), unsignedTx(testOutPoint(5, 0)), state)
	require.ErrorIs(t, err, common.ErrConsistency)
}

func TestNewKeySignerErrors(t *testing.T) {
	_, err := NewKeySigner([]string{"garbage"}, testParams, nil)
	require.ErrorIs(t, err, common.ErrFormat)

	_, wif := newTestKey(t)
	_, err = NewKeySigner([]string{wif}, &chaincfg.TestNet3Params, nil)
	require.ErrorIs(t, err, common.ErrFormat)
}

func TestRPCSigner(t *testing.T) {
	tx := unsignedTx(testOutPoint(1, 0))
	tx.AddTxOut(wire.NewTxOut(1000, taprootScript(t, 0x11)))

	w := &fakeWallet{sign: func(txHex string) (string, error) {
		signed, err := sendmany.DecodeTx(txHex)
		if err != nil {
			return "", err
		}
		signed.TxIn[0].Witness = wire.TxWitness{make([]byte, 64)}
		return sendmany.EncodeTx(signed)
	}}
	signer := &RPCSigner{Wallet: w}
	signed, err := signer.Sign(context.Background(), tx, nil)
	require.NoError(t, err)
	assert.Len(t, signed.TxIn[0].Witness, 1)

	w.sign = func(txHex string) (string, error) {
		signed, _ := sendmany.DecodeTx(txHex)
		signed.TxOut[0].Value = 1
		return sendmany.EncodeTx(signed)
	}
	_, err = signer.Sign(context.Background(), tx, nil)
	require.ErrorIs(t, err, common.ErrConsistency)

	w.sign = nil
	_, err = signer.Sign(context.Background(), tx, nil)
	require.ErrorIs(t, err, common.ErrTransient)
}

func TestNodeBroadcaster(t *testing.T) {
	tx := unsignedTx(testOutPoint(1, 0))
	tx.AddTxOut(wire.NewTxOut(1000, taprootScript(t, 0x11)))
	txid := tx.TxHash().String()

	node := &fakeNode{}
	b := &NodeBroadcaster{Node: node}
	got, err := b.Broadcast(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, txid, got)
	assert.Len(t, node.sent, 1)

	node.sendErr = errors.New("txn-already-known")
	node.mempool = map[string]bool{txid: true}
	got, err = b.Broadcast(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, txid, got)

	node.mempool = nil
	_, err = b.Broadcast(context.Background(), tx)
	require.ErrorIs(t, err, common.ErrTransient)
}
