package sendmany

import (
	"github.com/btcsuite/btcd/mempool"
	"github.com/btcsuite/btcd/wire"
	"github.com/sat20-labs/sendmany/common"
)

// TxVersion is the version of the built transaction.
const TxVersion = 1

type assembly struct {
	tx          *wire.MsgTx
	virtualSize int64
	fee         int64
	change      int64
}

func outPoints(utxos []*Utxo) []wire.OutPoint {
	result := make([]wire.OutPoint, len(utxos))
	for i, u := range utxos {
		result[i] = u.OutPoint
	}
	return result
}

// assemble appends the cardinal as the last input and the change as the
// last output, sizing the change from the fee of the whole transaction.
func assemble(p *plan, cardinal *Utxo, changeScript []byte, rate FeeRate) (*assembly, error) {
	inputs := make([]*Utxo, 0, len(p.inputs)+1)
	inputs = append(inputs, p.inputs...)
	inputs = append(inputs, cardinal)

	outputs := make([]*wire.TxOut, 0, len(p.outputs)+1)
	for _, out := range p.outputs {
		outputs = append(outputs, wire.NewTxOut(out.Value, out.Destination.PkScript))
	}
	changeOut := wire.NewTxOut(0, changeScript)
	outputs = append(outputs, changeOut)

	vsize := EstimateVirtualSize(outPoints(inputs), outputs)
	fee := rate.Fee(vsize)
	dust := common.DustLimit(changeScript)
	if cardinal.Value < fee+dust {
		return nil, common.NewError(common.ValueError,
			"cardinal %s (%d) is too small: fee %d plus dust limit %d, needed %d, have %d",
			cardinal.OutPoint, cardinal.Value, fee, dust, fee+dust, cardinal.Value)
	}
	changeOut.Value = cardinal.Value - fee

	tx := wire.NewMsgTx(TxVersion)
	tx.LockTime = 0
	for _, in := range inputs {
		txIn := wire.NewTxIn(&wire.OutPoint{Hash: in.OutPoint.Hash, Index: in.OutPoint.Index}, nil, nil)
		txIn.Sequence = mempool.MaxRBFSequence
		tx.AddTxIn(txIn)
	}
	for _, out := range outputs {
		tx.AddTxOut(out)
	}

	return &assembly{tx: tx, virtualSize: vsize, fee: fee, change: changeOut.Value}, nil
}
