package sendmany

import (
	"math"
	"strconv"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/mempool"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// SchnorrSignatureSize is the witness assumed for every input when
// estimating. Inputs needing bigger witnesses pay less than the rate.
const SchnorrSignatureSize = 64

// FeeRate is kept in thousandths of a sat per vbyte so that fees are
// computed with integer arithmetic.
type FeeRate struct {
	milliSat int64
}

func NewFeeRate(satPerVByte float64) (FeeRate, error) {
	if math.IsNaN(satPerVByte) || math.IsInf(satPerVByte, 0) || satPerVByte < 0 {
		return FeeRate{}, errors.Errorf("invalid fee rate %v", satPerVByte)
	}
	if satPerVByte > math.MaxInt64/1e3/1e6 {
		return FeeRate{}, errors.Errorf("fee rate %v too high", satPerVByte)
	}
	return FeeRate{milliSat: int64(math.Round(satPerVByte * 1000))}, nil
}

func ParseFeeRate(s string) (FeeRate, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return FeeRate{}, errors.Wrapf(err, "invalid fee rate %s", s)
	}
	return NewFeeRate(f)
}

func (r FeeRate) SatPerVByte() float64 {
	return float64(r.milliSat) / 1000
}

func (r FeeRate) String() string {
	return strconv.FormatFloat(r.SatPerVByte(), 'f', -1, 64)
}

// Fee returns ceil(rate * vsize) in satoshis.
func (r FeeRate) Fee(vsize int64) int64 {
	return (r.milliSat*vsize + 999) / 1000
}

// EstimateVirtualSize builds a stand-in transaction with the given inputs,
// each carrying a single Schnorr signature, and returns its virtual size.
func EstimateVirtualSize(inputs []wire.OutPoint, outputs []*wire.TxOut) int64 {
	tx := wire.NewMsgTx(wire.TxVersion)
	for i := range inputs {
		txIn := wire.NewTxIn(&inputs[i], nil, nil)
		txIn.Witness = wire.TxWitness{make([]byte, SchnorrSignatureSize)}
		tx.AddTxIn(txIn)
	}
	for _, out := range outputs {
		tx.AddTxOut(out)
	}
	return mempool.GetTxVirtualSize(btcutil.NewTx(tx))
}
