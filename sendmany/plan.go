package sendmany

import (
	"github.com/btcsuite/btcd/btcutil"
)

// Plan describes the built transaction for display.
type Plan struct {
	Inputs        []*Utxo
	Outputs       []*PlannedOutput
	Cardinal      *Utxo
	ChangeAddress btcutil.Address
	Change        int64
	VirtualSize   int64
	Fee           int64
	FeeRate       FeeRate
	InputTotal    int64
}

type PlanInput struct {
	OutPoint string `json:"outpoint"`
	Value    int64  `json:"value"`
}

type PlanOutput struct {
	Inscription string `json:"inscription,omitempty"`
	SatPoint    string `json:"satpoint,omitempty"`
	Address     string `json:"address"`
	Value       int64  `json:"value"`
}

type PlanSummary struct {
	Inputs      []PlanInput  `json:"inputs"`
	Outputs     []PlanOutput `json:"outputs"`
	VirtualSize int64        `json:"vsize"`
	Fee         int64        `json:"fee"`
	FeeRate     float64      `json:"fee_rate"`
}

func (p *Plan) Summary() *PlanSummary {
	s := &PlanSummary{
		Inputs:      make([]PlanInput, 0, len(p.Inputs)),
		Outputs:     make([]PlanOutput, 0, len(p.Outputs)+1),
		VirtualSize: p.VirtualSize,
		Fee:         p.Fee,
		FeeRate:     p.FeeRate.SatPerVByte(),
	}
	for _, in := range p.Inputs {
		s.Inputs = append(s.Inputs, PlanInput{OutPoint: in.OutPoint.String(), Value: in.Value})
	}
	for _, out := range p.Outputs {
		s.Outputs = append(s.Outputs, PlanOutput{
			Inscription: out.Id.String(),
			SatPoint:    out.SatPoint.String(),
			Address:     out.Destination.String(),
			Value:       out.Value,
		})
	}
	s.Outputs = append(s.Outputs, PlanOutput{Address: p.ChangeAddress.EncodeAddress(), Value: p.Change})
	return s
}
