package sendmany

import (
	"bytes"
	"context"
	"encoding/hex"
	"time"

	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/metrics"
)

// Output is what a run hands back: the signed raw transaction in hex, or
// its txid when broadcast. In psbt mode Tx is the unsigned transaction.
type Output struct {
	Tx   string `json:"tx"`
	Psbt string `json:"psbt,omitempty"`
}

// Runner takes one snapshot, builds, then signs and optionally
// broadcasts. Nothing is signed or sent unless the build succeeded.
type Runner struct {
	Builder     *Builder
	Snapshots   SnapshotProvider
	Change      ChangeSource
	Signer      Signer
	Broadcaster Broadcaster
	Broadcast   bool
	Psbt        bool
}

func (r *Runner) Run(ctx context.Context, requests *Requests) (*Output, *Result, error) {
	started := time.Now()
	output, result, err := r.run(ctx, requests)
	if err != nil {
		var stage string
		var e *common.Error
		if errors.As(err, &e) {
			stage = e.Stage
		}
		metrics.ObserveBuildError(common.KindOf(err).String(), stage)
		metrics.ObserveBuild(metrics.OutcomeFailed, started)
		return nil, nil, err
	}

	outcome := metrics.OutcomeSigned
	switch {
	case r.Psbt:
		outcome = metrics.OutcomePsbt
	case r.Broadcast:
		outcome = metrics.OutcomeBroadcasted
	}
	metrics.ObserveBuild(outcome, started)
	if outcome != metrics.OutcomePsbt {
		metrics.ObserveSent(len(result.Plan.Outputs), result.Plan.Fee)
	}
	return output, result, nil
}

func (r *Runner) run(ctx context.Context, requests *Requests) (*Output, *Result, error) {
	if r.Builder == nil || r.Snapshots == nil {
		return nil, nil, errors.New("runner is missing a builder or snapshot provider")
	}
	if r.Psbt && r.Broadcast {
		return nil, nil, errors.New("psbt output can't be broadcast")
	}
	if !r.Psbt && r.Signer == nil {
		return nil, nil, errors.New("runner has no signer")
	}
	if r.Broadcast && r.Broadcaster == nil {
		return nil, nil, errors.New("runner has no broadcaster")
	}

	state, err := r.Snapshots.Snapshot(ctx)
	if err != nil {
		return nil, nil, common.WithStage(err, string(StageSnapshot))
	}

	result, err := r.Builder.BuildWithChange(ctx, requests, state, r.Change)
	if err != nil {
		return nil, nil, err
	}

	if r.Psbt {
		packet, err := ToPsbt(result.Tx, state)
		if err != nil {
			return nil, nil, common.WithStage(err, string(StageSigning))
		}
		encoded, err := packet.B64Encode()
		if err != nil {
			return nil, nil, common.WithStage(err, string(StageSigning))
		}
		raw, err := EncodeTx(result.Tx)
		if err != nil {
			return nil, nil, err
		}
		return &Output{Tx: raw, Psbt: encoded}, result, nil
	}

	signed, err := r.Signer.Sign(ctx, result.Tx, state)
	if err != nil {
		return nil, nil, common.WithStage(err, string(StageSigning))
	}
	result.Tx = signed

	if r.Broadcast {
		txid, err := r.Broadcaster.Broadcast(ctx, signed)
		if err != nil {
			return nil, nil, common.WithStage(err, string(StageBroadcasting))
		}
		return &Output{Tx: txid}, result, nil
	}

	raw, err := EncodeTx(signed)
	if err != nil {
		return nil, nil, err
	}
	return &Output{Tx: raw}, result, nil
}

func EncodeTx(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	if err := tx.Serialize(&buf); err != nil {
		return "", errors.Wrapf(err, "can't serialize tx")
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

func DecodeTx(raw string) (*wire.MsgTx, error) {
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "bad tx hex")
	}
	tx := wire.NewMsgTx(TxVersion)
	if err := tx.Deserialize(bytes.NewReader(b)); err != nil {
		return nil, errors.Wrapf(err, "bad tx")
	}
	return tx, nil
}
