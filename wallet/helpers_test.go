package wallet

import (
	"context"
	"testing"

	"github.com/OLProtocol/go-bitcoind"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/sendmany"
	"github.com/sat20-labs/sendmany/share/bitcoin_rpc"
	"github.com/sat20-labs/sendmany/share/ord_rpc"
	"github.com/stretchr/testify/require"
)

var testParams = &chaincfg.MainNetParams

func testHash(n byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = n
	h[31] = n
	return h
}

func testOutPoint(n byte, index uint32) wire.OutPoint {
	return wire.OutPoint{Hash: testHash(n), Index: index}
}

func testInscription(n byte, index uint32) common.InscriptionId {
	return common.InscriptionId{Txid: testHash(0x80 | n), Index: index}
}

func taprootScript(t *testing.T, seed byte) []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = seed
	}
	addr, err := btcutil.NewAddressTaproot(key, testParams)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return pkScript
}

type fakeNode struct {
	height  uint64
	hash    string
	sent    []string
	sendErr error
	mempool map[string]bool
	rawTxs  map[string]string
}

func (n *fakeNode) SendTx(signedTxHex string) (string, error) {
	if n.sendErr != nil {
		return "", n.sendErr
	}
	n.sent = append(n.sent, signedTxHex)
	tx, err := sendmany.DecodeTx(signedTxHex)
	if err != nil {
		return "", err
	}
	return tx.TxHash().String(), nil
}

func (n *fakeNode) GetRawTx(txid string) (string, error) {
	raw, ok := n.rawTxs[txid]
	if !ok {
		return "", errors.Errorf("no such transaction %s", txid)
	}
	return raw, nil
}

func (n *fakeNode) GetBlockCount() (uint64, error) {
	return n.height, nil
}

func (n *fakeNode) GetBlockHash(height uint64) (string, error) {
	if height != n.height {
		return "", errors.Errorf("no block %d", height)
	}
	return n.hash, nil
}

func (n *fakeNode) GetMemPoolEntry(txid string) (*bitcoind.MemPoolEntry, error) {
	if n.mempool[txid] {
		return &bitcoind.MemPoolEntry{}, nil
	}
	return nil, errors.New("transaction not in mempool")
}

type fakeWallet struct {
	unspent []bitcoin_rpc.Unspent
	locked  []bitcoin_rpc.Outpoint
	change  string
	sign    func(txHex string) (string, error)
	err     error
}

func (w *fakeWallet) ListUnspent() ([]bitcoin_rpc.Unspent, error) {
	return w.unspent, w.err
}

func (w *fakeWallet) ListLockUnspent() ([]bitcoin_rpc.Outpoint, error) {
	return w.locked, w.err
}

func (w *fakeWallet) GetRawChangeAddress(addressType string) (string, error) {
	return w.change, w.err
}

func (w *fakeWallet) SignRawTransaction(txHex string) (string, error) {
	if w.sign == nil {
		return "", errors.New("can't sign")
	}
	return w.sign(txHex)
}

type fakeOrd struct {
	outputs      map[wire.OutPoint]*ord_rpc.Output
	inscriptions map[common.InscriptionId]*ord_rpc.Inscription
}

func (o *fakeOrd) GetOutput(ctx context.Context, op wire.OutPoint) (*ord_rpc.Output, error) {
	out, ok := o.outputs[op]
	if !ok {
		return &ord_rpc.Output{OutPoint: op}, nil
	}
	return out, nil
}

func (o *fakeOrd) GetInscription(ctx context.Context, id common.InscriptionId) (*ord_rpc.Inscription, error) {
	ins, ok := o.inscriptions[id]
	if !ok {
		return nil, common.NewError(common.ConsistencyError, "inscription %s not found", id)
	}
	return ins, nil
}

type fakeTxs map[chainhash.Hash]*wire.MsgTx

func (f fakeTxs) GetRawTransaction(ctx context.Context, txid chainhash.Hash) (*wire.MsgTx, error) {
	tx, ok := f[txid]
	if !ok {
		return nil, common.NewError(common.ConsistencyError, "tx %s not found", txid)
	}
	return tx, nil
}
