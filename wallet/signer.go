package wallet

import (
	"bytes"
	"context"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/sendmany"
	"github.com/sat20-labs/sendmany/share/bitcoin_rpc"
)

// RPCSigner hands the transaction to the node's wallet.
type RPCSigner struct {
	Wallet bitcoin_rpc.WalletRPC
}

func (s *RPCSigner) Sign(ctx context.Context, tx *wire.MsgTx, state *sendmany.WalletState) (*wire.MsgTx, error) {
	raw, err := sendmany.EncodeTx(tx)
	if err != nil {
		return nil, err
	}
	signedHex, err := s.Wallet.SignRawTransaction(raw)
	if err != nil {
		return nil, common.WrapError(common.TransientError, err, "wallet refused to sign")
	}
	signed, err := sendmany.DecodeTx(signedHex)
	if err != nil {
		return nil, err
	}
	if err := sameSkeleton(tx, signed); err != nil {
		return nil, err
	}
	return signed, nil
}

// sameSkeleton checks that signing only touched scripts and witnesses.
func sameSkeleton(unsigned, signed *wire.MsgTx) error {
	if unsigned.TxHash() == signed.TxHash() {
		return nil
	}
	if len(unsigned.TxIn) != len(signed.TxIn) || len(unsigned.TxOut) != len(signed.TxOut) {
		return common.NewError(common.ConsistencyError, "signed tx has a different shape")
	}
	for i, in := range unsigned.TxIn {
		if in.PreviousOutPoint != signed.TxIn[i].PreviousOutPoint || in.Sequence != signed.TxIn[i].Sequence {
			return common.NewError(common.ConsistencyError, "signed tx changed input %d", i)
		}
	}
	for i, out := range unsigned.TxOut {
		if out.Value != signed.TxOut[i].Value || !bytes.Equal(out.PkScript, signed.TxOut[i].PkScript) {
			return common.NewError(common.ConsistencyError, "signed tx changed output %d", i)
		}
	}
	return nil
}

type TxFetcher interface {
	GetRawTransaction(ctx context.Context, txid chainhash.Hash) (*wire.MsgTx, error)
}

// NodeTxs looks previous transactions up through the node's
// getrawtransaction. It needs txindex for outputs the wallet does not own.
type NodeTxs struct {
	Node bitcoin_rpc.BitcoinRPC
}

func (n *NodeTxs) GetRawTransaction(ctx context.Context, txid chainhash.Hash) (*wire.MsgTx, error) {
	raw, err := n.Node.GetRawTx(txid.String())
	if err != nil {
		return nil, common.WrapError(common.TransientError, err, "getrawtransaction %s failed", txid)
	}
	tx, err := sendmany.DecodeTx(raw)
	if err != nil {
		return nil, common.WrapError(common.ConsistencyError, err, "node returned a bad tx for %s", txid)
	}
	if tx.TxHash() != txid {
		return nil, common.NewError(common.ConsistencyError, "node returned %s for %s", tx.TxHash(), txid)
	}
	return tx, nil
}

type signingKey struct {
	priv    *btcec.PrivateKey
	taproot bool
}

// KeySigner signs key-path taproot and p2wpkh inputs with local keys.
type KeySigner struct {
	keys  map[string]*signingKey
	txs   TxFetcher
	addrs []btcutil.Address
}

func NewKeySigner(wifs []string, params *chaincfg.Params, txs TxFetcher) (*KeySigner, error) {
	s := &KeySigner{keys: make(map[string]*signingKey), txs: txs}
	for i, w := range wifs {
		wif, err := btcutil.DecodeWIF(w)
		if err != nil {
			return nil, common.WrapError(common.FormatError, err, "bad key #%d", i)
		}
		if !wif.IsForNet(params) {
			return nil, common.NewError(common.FormatError, "key #%d is not for %s", i, params.Name)
		}
		pub := wif.PrivKey.PubKey()

		tweaked := txscript.ComputeTaprootKeyNoScript(pub)
		trAddr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(tweaked), params)
		if err != nil {
			return nil, errors.Wrapf(err, "key #%d", i)
		}
		wpkhAddr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pub.SerializeCompressed()), params)
		if err != nil {
			return nil, errors.Wrapf(err, "key #%d", i)
		}
		for _, addr := range []btcutil.Address{trAddr, wpkhAddr} {
			pkScript, err := txscript.PayToAddrScript(addr)
			if err != nil {
				return nil, err
			}
			s.keys[hex.EncodeToString(pkScript)] = &signingKey{
				priv:    wif.PrivKey,
				taproot: txscript.IsPayToTaproot(pkScript),
			}
			s.addrs = append(s.addrs, addr)
		}
	}
	return s, nil
}

// Addresses returns the addresses the signer can spend from, taproot first
// for each key.
func (s *KeySigner) Addresses() []btcutil.Address {
	return append([]btcutil.Address(nil), s.addrs...)
}

func (s *KeySigner) prevOut(ctx context.Context, op wire.OutPoint, state *sendmany.WalletState) (*wire.TxOut, error) {
	if state != nil {
		if u, ok := state.Utxo(op); ok {
			return wire.NewTxOut(u.Value, u.PkScript), nil
		}
	}
	if s.txs == nil {
		return nil, common.NewError(common.ConsistencyError, "previous output %s is unknown", op)
	}
	prev, err := s.txs.GetRawTransaction(ctx, op.Hash)
	if err != nil {
		return nil, err
	}
	if int(op.Index) >= len(prev.TxOut) {
		return nil, common.NewError(common.ConsistencyError, "tx %s has no output %d", op.Hash, op.Index)
	}
	return prev.TxOut[op.Index], nil
}

func (s *KeySigner) Sign(ctx context.Context, tx *wire.MsgTx, state *sendmany.WalletState) (*wire.MsgTx, error) {
	signed := tx.Copy()

	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(signed.TxIn))
	for _, in := range signed.TxIn {
		out, err := s.prevOut(ctx, in.PreviousOutPoint, state)
		if err != nil {
			return nil, err
		}
		prevOuts[in.PreviousOutPoint] = out
	}
	fetcher := txscript.NewMultiPrevOutFetcher(prevOuts)
	sigHashes := txscript.NewTxSigHashes(signed, fetcher)

	for i, in := range signed.TxIn {
		prev := prevOuts[in.PreviousOutPoint]
		key, ok := s.keys[hex.EncodeToString(prev.PkScript)]
		if !ok {
			return nil, common.NewError(common.ConsistencyError, "no key for input %s", in.PreviousOutPoint)
		}

		var (
			witness wire.TxWitness
			err     error
		)
		if key.taproot {
			witness, err = txscript.TaprootWitnessSignature(signed, sigHashes, i,
				prev.Value, prev.PkScript, txscript.SigHashDefault, key.priv)
		} else {
			witness, err = txscript.WitnessSignature(signed, sigHashes, i,
				prev.Value, prev.PkScript, txscript.SigHashAll, key.priv, true)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "can't sign input %s", in.PreviousOutPoint)
		}
		in.Witness = witness
	}

	for i, in := range signed.TxIn {
		prev := prevOuts[in.PreviousOutPoint]
		vm, err := txscript.NewEngine(prev.PkScript, signed, i, txscript.StandardVerifyFlags,
			nil, sigHashes, prev.Value, fetcher)
		if err != nil {
			return nil, errors.Wrapf(err, "can't verify input %s", in.PreviousOutPoint)
		}
		if err := vm.Execute(); err != nil {
			return nil, common.WrapError(common.ConsistencyError, err, "input %s doesn't verify", in.PreviousOutPoint)
		}
	}
	return signed, nil
}

// NodeBroadcaster submits through sendrawtransaction.
type NodeBroadcaster struct {
	Node bitcoin_rpc.BitcoinRPC
}

func (b *NodeBroadcaster) Broadcast(ctx context.Context, tx *wire.MsgTx) (string, error) {
	raw, err := sendmany.EncodeTx(tx)
	if err != nil {
		return "", err
	}
	txid, err := b.Node.SendTx(raw)
	if err != nil {
		// a resubmitted tx is rejected but already in flight
		known := tx.TxHash().String()
		if bitcoin_rpc.IsExistTxInMemPool(b.Node, known) {
			common.GetLoggerEntry("wallet").Infof("tx %s is already in the mempool", known)
			return known, nil
		}
		return "", common.WrapError(common.TransientError, err, "sendrawtransaction failed")
	}
	return txid, nil
}
