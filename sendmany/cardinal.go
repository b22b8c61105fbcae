package sendmany

import (
	"sort"

	"github.com/btcsuite/btcd/wire"
	"github.com/sat20-labs/sendmany/common"
)

func cardinals(state *WalletState, claimed map[wire.OutPoint]bool) []*Utxo {
	var result []*Utxo
	for _, u := range state.Unspent() {
		if claimed[u.OutPoint] || state.IsLocked(u.OutPoint) || state.IsInscribed(u.OutPoint) {
			continue
		}
		result = append(result, u)
	}
	// Unspent is ordered by outpoint, so a stable sort keeps ties deterministic.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Value > result[j].Value
	})
	return result
}

// selectCardinal picks the biggest spendable output without inscriptions.
func selectCardinal(state *WalletState, claimed map[wire.OutPoint]bool) (*Utxo, error) {
	candidates := cardinals(state, claimed)
	if len(candidates) == 0 {
		return nil, common.NewError(common.ValueError, "wallet has no cardinals")
	}
	return candidates[0], nil
}
