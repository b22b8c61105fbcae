package sendmany

import (
	"github.com/btcsuite/btcd/wire"
	"github.com/sat20-labs/sendmany/common"
)

type PlannedOutput struct {
	Id          common.InscriptionId
	SatPoint    common.SatPoint
	Destination Destination
	Value       int64
}

// plan accumulates the inscribed inputs and their outputs.
type plan struct {
	inputs     []*Utxo
	outputs    []*PlannedOutput
	inputTotal int64
	claimed    map[wire.OutPoint]bool
}

func newPlan() *plan {
	return &plan{claimed: make(map[wire.OutPoint]bool)}
}

// splitOutput cuts utxo at the offset of each inscription it holds so that
// every inscription lands at offset 0 of its own output.
func splitOutput(p *plan, utxo *Utxo, locations []InscriptionLocation, requests *Requests) error {
	if len(locations) == 0 {
		return common.NewError(common.ConsistencyError, "output %s holds no inscriptions", utxo.OutPoint)
	}
	if p.claimed[utxo.OutPoint] {
		return common.NewError(common.ConsistencyError, "output %s is already spent by this transaction", utxo.OutPoint)
	}
	if first := locations[0].SatPoint.Offset; first != 0 {
		return common.NewError(common.ConsistencyError,
			"the first inscription in %s is at non-zero offset %d", utxo.OutPoint, first)
	}

	outputs := make([]*PlannedOutput, 0, len(locations))
	for i, loc := range locations {
		entry, ok := requests.Lookup(loc.Id)
		if !ok {
			return common.NewError(common.ConsistencyError,
				"inscriptionid %s is in %s but wasn't in the request file", loc.Id, utxo.OutPoint)
		}

		offset := loc.SatPoint.Offset
		end := uint64(utxo.Value)
		if i < len(locations)-1 {
			end = locations[i+1].SatPoint.Offset
		}
		if end < offset || offset > uint64(utxo.Value) {
			return common.NewError(common.ConsistencyError,
				"inscription %s at %s is outside output value %d", loc.Id, loc.SatPoint, utxo.Value)
		}
		value := int64(end - offset)

		dust := common.DustLimit(entry.Destination.PkScript)
		if value < dust {
			return common.NewLineError(common.ValueError, entry.Line,
				"inscription %s at %s is only followed by %d sats, less than dust limit %d for address %s",
				loc.Id, loc.SatPoint, value, dust, entry.Destination)
		}

		outputs = append(outputs, &PlannedOutput{
			Id:          loc.Id,
			SatPoint:    loc.SatPoint,
			Destination: entry.Destination,
			Value:       value,
		})
	}

	p.outputs = append(p.outputs, outputs...)
	p.inputs = append(p.inputs, utxo)
	p.inputTotal += utxo.Value
	p.claimed[utxo.OutPoint] = true
	return nil
}
