package sendmany

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// SnapshotProvider is read once per build.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*WalletState, error)
}

type ChangeSource interface {
	ChangeAddress(ctx context.Context) (btcutil.Address, error)
}

// Signer returns a copy of tx with every input signed. state supplies
// the previous outputs.
type Signer interface {
	Sign(ctx context.Context, tx *wire.MsgTx, state *WalletState) (*wire.MsgTx, error)
}

// Broadcaster submits a signed transaction and returns its txid.
type Broadcaster interface {
	Broadcast(ctx context.Context, tx *wire.MsgTx) (string, error)
}
