package sendmany

import (
	"github.com/sat20-labs/sendmany/common"
)

// locator hands out the wallet outputs holding the requested inscriptions,
// one output at a time, in request file order.
type locator struct {
	requests *Requests
	state    *WalletState
	queue    []common.InscriptionId
	resolved map[common.InscriptionId]bool
}

func newLocator(requests *Requests, state *WalletState) (*locator, error) {
	l := &locator{
		requests: requests,
		state:    state,
		queue:    make([]common.InscriptionId, 0, requests.Len()),
		resolved: make(map[common.InscriptionId]bool, requests.Len()),
	}
	for _, entry := range requests.Entries() {
		if _, ok := state.Lookup(entry.Id); !ok {
			return nil, common.NewLineError(common.ConsistencyError, entry.Line,
				"inscriptionid %s isn't in the wallet", entry.Id)
		}
		l.queue = append(l.queue, entry.Id)
	}
	return l, nil
}

// next returns the output of the first unresolved inscription with all
// of its inscriptions. ok is false once every request is resolved.
func (l *locator) next() (utxo *Utxo, locations []InscriptionLocation, ok bool, err error) {
	for len(l.queue) > 0 && l.resolved[l.queue[0]] {
		l.queue = l.queue[1:]
	}
	if len(l.queue) == 0 {
		return nil, nil, false, nil
	}

	id := l.queue[0]
	satpoint, _ := l.state.Lookup(id)
	utxo, found := l.state.Utxo(satpoint.OutPoint)
	if !found {
		return nil, nil, false, common.NewError(common.ConsistencyError,
			"inscriptionid %s is on %s which isn't unspent", id, satpoint.OutPoint)
	}

	locations = l.state.InscriptionsOn(satpoint.OutPoint)
	for _, loc := range locations {
		if _, requested := l.requests.Lookup(loc.Id); !requested {
			return nil, nil, false, common.NewError(common.ConsistencyError,
				"inscriptionid %s is in the same output as %s but wasn't in the request file", loc.Id, id)
		}
	}
	for _, loc := range locations {
		l.resolved[loc.Id] = true
	}
	l.queue = l.queue[1:]
	return utxo, locations, true, nil
}
