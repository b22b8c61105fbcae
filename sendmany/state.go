package sendmany

import (
	"bytes"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/sat20-labs/sendmany/common"
)

type Utxo struct {
	OutPoint wire.OutPoint
	Value    int64
	PkScript []byte
}

type InscriptionLocation struct {
	SatPoint common.SatPoint
	Id       common.InscriptionId
}

// ChainTip is the block the wallet state was read at.
type ChainTip struct {
	Height uint64
	Hash   chainhash.Hash
}

// WalletState is an immutable view of the wallet taken once per build.
type WalletState struct {
	tip          ChainTip
	unspent      map[wire.OutPoint]*Utxo
	locked       map[wire.OutPoint]bool
	inscriptions map[common.InscriptionId]common.SatPoint
	outputs      map[wire.OutPoint][]InscriptionLocation
}

// NewWalletState copies its inputs. Inscriptions on outputs that are not
// unspent are not owned by the wallet and are dropped.
func NewWalletState(tip ChainTip, unspent []*Utxo, locked []wire.OutPoint,
	locations []InscriptionLocation) *WalletState {
	s := &WalletState{
		tip:          tip,
		unspent:      make(map[wire.OutPoint]*Utxo, len(unspent)),
		locked:       make(map[wire.OutPoint]bool, len(locked)),
		inscriptions: make(map[common.InscriptionId]common.SatPoint, len(locations)),
		outputs:      make(map[wire.OutPoint][]InscriptionLocation),
	}
	for _, u := range unspent {
		c := *u
		c.PkScript = append([]byte(nil), u.PkScript...)
		s.unspent[u.OutPoint] = &c
	}
	for _, op := range locked {
		s.locked[op] = true
	}
	for _, loc := range locations {
		op := loc.SatPoint.OutPoint
		if _, ok := s.unspent[op]; !ok {
			continue
		}
		if _, dup := s.inscriptions[loc.Id]; dup {
			continue
		}
		s.inscriptions[loc.Id] = loc.SatPoint
		s.outputs[op] = append(s.outputs[op], loc)
	}
	for _, locs := range s.outputs {
		sortLocations(locs)
	}
	return s
}

func sortLocations(locs []InscriptionLocation) {
	sort.Slice(locs, func(i, j int) bool {
		if locs[i].SatPoint.Offset != locs[j].SatPoint.Offset {
			return locs[i].SatPoint.Offset < locs[j].SatPoint.Offset
		}
		c := bytes.Compare(locs[i].Id.Txid[:], locs[j].Id.Txid[:])
		if c != 0 {
			return c < 0
		}
		return locs[i].Id.Index < locs[j].Id.Index
	})
}

func outPointLess(a, b wire.OutPoint) bool {
	as, bs := a.Hash.String(), b.Hash.String()
	if as != bs {
		return as < bs
	}
	return a.Index < b.Index
}

func (s *WalletState) Tip() ChainTip {
	return s.tip
}

func (s *WalletState) Utxo(op wire.OutPoint) (*Utxo, bool) {
	u, ok := s.unspent[op]
	return u, ok
}

// Unspent returns every unspent output ordered by outpoint.
func (s *WalletState) Unspent() []*Utxo {
	result := make([]*Utxo, 0, len(s.unspent))
	for _, u := range s.unspent {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool {
		return outPointLess(result[i].OutPoint, result[j].OutPoint)
	})
	return result
}

func (s *WalletState) Locked() []wire.OutPoint {
	result := make([]wire.OutPoint, 0, len(s.locked))
	for op := range s.locked {
		result = append(result, op)
	}
	sort.Slice(result, func(i, j int) bool {
		return outPointLess(result[i], result[j])
	})
	return result
}

// Locations returns every inscription of the wallet, grouped by output.
func (s *WalletState) Locations() []InscriptionLocation {
	ops := make([]wire.OutPoint, 0, len(s.outputs))
	for op := range s.outputs {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool {
		return outPointLess(ops[i], ops[j])
	})
	result := make([]InscriptionLocation, 0, len(s.inscriptions))
	for _, op := range ops {
		result = append(result, s.outputs[op]...)
	}
	return result
}

func (s *WalletState) IsLocked(op wire.OutPoint) bool {
	return s.locked[op]
}

func (s *WalletState) Lookup(id common.InscriptionId) (common.SatPoint, bool) {
	sp, ok := s.inscriptions[id]
	return sp, ok
}

// InscriptionsOn returns the inscriptions of op in ascending offset order.
func (s *WalletState) InscriptionsOn(op wire.OutPoint) []InscriptionLocation {
	locs := s.outputs[op]
	result := make([]InscriptionLocation, len(locs))
	copy(result, locs)
	return result
}

func (s *WalletState) IsInscribed(op wire.OutPoint) bool {
	return len(s.outputs[op]) > 0
}

func (s *WalletState) InscriptionCount() int {
	return len(s.inscriptions)
}
