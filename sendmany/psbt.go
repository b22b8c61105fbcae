package sendmany

import (
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// ToPsbt wraps the unsigned tx for an external signer. Witness inputs get
// their previous output attached; legacy inputs need the full previous
// transaction, which the signer is expected to have.
func ToPsbt(tx *wire.MsgTx, state *WalletState) (*psbt.Packet, error) {
	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, errors.Wrapf(err, "can't create psbt")
	}
	for i, txIn := range tx.TxIn {
		utxo, ok := state.Utxo(txIn.PreviousOutPoint)
		if !ok {
			return nil, errors.Errorf("input %d spends unknown output %s", i, txIn.PreviousOutPoint)
		}
		if txscript.IsWitnessProgram(utxo.PkScript) {
			packet.Inputs[i].WitnessUtxo = wire.NewTxOut(utxo.Value, utxo.PkScript)
		}
		if !txscript.IsPayToTaproot(utxo.PkScript) {
			packet.Inputs[i].SighashType = txscript.SigHashAll
		}
	}
	return packet, nil
}
