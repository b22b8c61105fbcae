package base

import (
	"context"

	"github.com/sat20-labs/sendmany/rpcserver/wire"
	"github.com/sat20-labs/sendmany/sendmany"
	"github.com/sat20-labs/sendmany/share/bitcoin_rpc"
)

type Model struct {
	chain     string
	node      bitcoin_rpc.BitcoinRPC
	snapshots sendmany.SnapshotProvider
}

func NewModel(chain string, node bitcoin_rpc.BitcoinRPC, snapshots sendmany.SnapshotProvider) *Model {
	return &Model{
		chain:     chain,
		node:      node,
		snapshots: snapshots,
	}
}

func (s *Model) height() (uint64, error) {
	if s.node == nil {
		return 0, nil
	}
	return s.node.GetBlockCount()
}

func (s *Model) getWalletInscriptions(ctx context.Context) (uint64, []*wire.InscriptionLocation, error) {
	state, err := s.snapshots.Snapshot(ctx)
	if err != nil {
		return 0, nil, err
	}
	result := make([]*wire.InscriptionLocation, 0, state.InscriptionCount())
	for _, loc := range state.Locations() {
		item := &wire.InscriptionLocation{
			Id:       loc.Id.String(),
			SatPoint: loc.SatPoint.String(),
			Locked:   state.IsLocked(loc.SatPoint.OutPoint),
		}
		if u, ok := state.Utxo(loc.SatPoint.OutPoint); ok {
			item.Value = u.Value
		}
		result = append(result, item)
	}
	return state.Tip().Height, result, nil
}
