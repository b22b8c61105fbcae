package sendmany

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
	"github.com/sat20-labs/sendmany/common"
	"github.com/sirupsen/logrus"
)

type Stage string

const (
	StageLoading           Stage = "loading"
	StageLocating          Stage = "locating"
	StageSplitting         Stage = "splitting"
	StageSelectingCardinal Stage = "selecting cardinal"
	StageEstimating        Stage = "estimating"
	StageAssembling        Stage = "assembling"
	StageSnapshot          Stage = "snapshot"
	StageSigning           Stage = "signing"
	StageBroadcasting      Stage = "broadcasting"
)

type Config struct {
	Params  *chaincfg.Params
	FeeRate FeeRate
	// ChangeAddress receives the cardinal minus the fee. When nil
	// BuildWithChange asks a ChangeSource once a cardinal is selected.
	ChangeAddress btcutil.Address
}

type Builder struct {
	cfg Config
	log *logrus.Entry
}

func NewBuilder(cfg Config) (*Builder, error) {
	if cfg.Params == nil {
		return nil, errors.New("chain params not set")
	}
	if cfg.ChangeAddress != nil && !cfg.ChangeAddress.IsForNet(cfg.Params) {
		return nil, errors.Errorf("change address %s is not for %s", cfg.ChangeAddress, cfg.Params.Name)
	}
	return &Builder{cfg: cfg, log: common.GetLoggerEntry("sendmany")}, nil
}

type Result struct {
	Tx   *wire.MsgTx
	Plan *Plan
}

// draft is a located and split request set with its cardinal, still
// missing the change output.
type draft struct {
	plan     *plan
	cardinal *Utxo
}

func checkInputs(requests *Requests, state *WalletState) error {
	if requests == nil || requests.Len() == 0 {
		return common.WithStage(common.NewError(common.FormatError, "no requests"), string(StageLoading))
	}
	if state == nil {
		return common.WithStage(common.NewError(common.TransientError, "no wallet state"), string(StageSnapshot))
	}
	return nil
}

func (b *Builder) draft(requests *Requests, state *WalletState) (*draft, error) {
	b.log.Debugf("building %d transfers over %d unspent outputs with %d inscriptions at height %d",
		requests.Len(), len(state.unspent), state.InscriptionCount(), state.Tip().Height)

	loc, err := newLocator(requests, state)
	if err != nil {
		return nil, common.WithStage(err, string(StageLocating))
	}

	p := newPlan()
	for {
		utxo, locations, ok, err := loc.next()
		if err != nil {
			return nil, common.WithStage(err, string(StageLocating))
		}
		if !ok {
			break
		}
		first := len(p.outputs)
		if err := splitOutput(p, utxo, locations, requests); err != nil {
			return nil, common.WithStage(err, string(StageSplitting))
		}
		b.log.Infof("output %s, worth %d:", utxo.OutPoint, utxo.Value)
		for i, out := range p.outputs[first:] {
			b.log.Infof("  %d : offset: %d, value: %d, id: %s, dest: %s",
				i, out.SatPoint.Offset, out.Value, out.Id, out.Destination)
		}
	}

	cardinal, err := selectCardinal(state, p.claimed)
	if err != nil {
		return nil, common.WithStage(err, string(StageSelectingCardinal))
	}
	b.log.Infof("using cardinal %s worth %d", cardinal.OutPoint, cardinal.Value)
	return &draft{plan: p, cardinal: cardinal}, nil
}

func (b *Builder) finish(d *draft, change btcutil.Address) (*Result, error) {
	if change == nil {
		return nil, common.WithStage(common.NewError(common.ValueError, "no change address"), string(StageAssembling))
	}
	if !change.IsForNet(b.cfg.Params) {
		return nil, common.WithStage(common.NewError(common.FormatError,
			"change address %s is not for %s", change, b.cfg.Params.Name), string(StageAssembling))
	}
	changeScript, err := txscript.PayToAddrScript(change)
	if err != nil {
		return nil, common.WithStage(common.WrapError(common.FormatError, err, "bad change address"), string(StageAssembling))
	}

	p, cardinal := d.plan, d.cardinal
	a, err := assemble(p, cardinal, changeScript, b.cfg.FeeRate)
	if err != nil {
		return nil, common.WithStage(err, string(StageAssembling))
	}
	b.log.Infof("vsize %d, fee %d at %s sat/vB, change %d to %s",
		a.virtualSize, a.fee, b.cfg.FeeRate, a.change, change)

	return &Result{
		Tx: a.tx,
		Plan: &Plan{
			Inputs:        append(append([]*Utxo(nil), p.inputs...), cardinal),
			Outputs:       p.outputs,
			Cardinal:      cardinal,
			ChangeAddress: change,
			Change:        a.change,
			VirtualSize:   a.virtualSize,
			Fee:           a.fee,
			FeeRate:       b.cfg.FeeRate,
			InputTotal:    p.inputTotal + cardinal.Value,
		},
	}, nil
}

// Build turns the requests into one unsigned transaction spending from
// state. It performs no I/O and returns the same transaction for the same
// inputs.
func (b *Builder) Build(requests *Requests, state *WalletState) (*Result, error) {
	if err := checkInputs(requests, state); err != nil {
		return nil, err
	}
	if b.cfg.ChangeAddress == nil {
		return nil, common.WithStage(common.NewError(common.ValueError, "no change address"), string(StageAssembling))
	}
	d, err := b.draft(requests, state)
	if err != nil {
		return nil, err
	}
	return b.finish(d, b.cfg.ChangeAddress)
}

// BuildWithChange is Build for a builder without a change address. The
// address is asked from source only once the cardinal is chosen, so a
// rejected request never reserves one.
func (b *Builder) BuildWithChange(ctx context.Context, requests *Requests, state *WalletState, source ChangeSource) (*Result, error) {
	if b.cfg.ChangeAddress != nil {
		return b.Build(requests, state)
	}
	if err := checkInputs(requests, state); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, common.WithStage(common.NewError(common.ValueError, "no change address"), string(StageAssembling))
	}
	d, err := b.draft(requests, state)
	if err != nil {
		return nil, err
	}
	change, err := source.ChangeAddress(ctx)
	if err != nil {
		return nil, common.WithStage(err, string(StageAssembling))
	}
	return b.finish(d, change)
}
