package common

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// InscriptionId is the reveal transaction id plus the index of the
// inscription inside it. Text form is <txid>i<index>.
type InscriptionId struct {
	Txid  chainhash.Hash
	Index uint32
}

func (id InscriptionId) String() string {
	return fmt.Sprintf("%si%d", id.Txid.String(), id.Index)
}

func (id InscriptionId) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *InscriptionId) UnmarshalText(b []byte) error {
	parsed, err := ParseInscriptionId(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func parseTxid(s string) (chainhash.Hash, error) {
	if len(s) != chainhash.MaxHashStringSize {
		return chainhash.Hash{}, fmt.Errorf("invalid txid length %d", len(s))
	}
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return *h, nil
}

func ParseInscriptionId(s string) (InscriptionId, error) {
	pos := strings.LastIndexByte(s, 'i')
	if pos < 0 {
		return InscriptionId{}, fmt.Errorf("invalid inscription id %s: missing separator", s)
	}
	txid, err := parseTxid(s[:pos])
	if err != nil {
		return InscriptionId{}, fmt.Errorf("invalid inscription id %s: %v", s, err)
	}
	index, err := strconv.ParseUint(s[pos+1:], 10, 32)
	if err != nil {
		return InscriptionId{}, fmt.Errorf("invalid inscription id %s: %v", s, err)
	}
	return InscriptionId{Txid: txid, Index: uint32(index)}, nil
}

func ParseOutPoint(s string) (wire.OutPoint, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return wire.OutPoint{}, fmt.Errorf("invalid outpoint %s", s)
	}
	txid, err := parseTxid(parts[0])
	if err != nil {
		return wire.OutPoint{}, fmt.Errorf("invalid outpoint %s: %v", s, err)
	}
	vout, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return wire.OutPoint{}, fmt.Errorf("invalid outpoint %s: %v", s, err)
	}
	return wire.OutPoint{Hash: txid, Index: uint32(vout)}, nil
}

// SatPoint locates a single sat: an output and an offset into it.
type SatPoint struct {
	OutPoint wire.OutPoint
	Offset   uint64
}

func (sp SatPoint) String() string {
	return fmt.Sprintf("%s:%d", sp.OutPoint.String(), sp.Offset)
}

func (sp SatPoint) MarshalText() ([]byte, error) {
	return []byte(sp.String()), nil
}

func (sp *SatPoint) UnmarshalText(b []byte) error {
	parsed, err := ParseSatPoint(string(b))
	if err != nil {
		return err
	}
	*sp = parsed
	return nil
}

func ParseSatPoint(s string) (SatPoint, error) {
	pos := strings.LastIndexByte(s, ':')
	if pos < 0 {
		return SatPoint{}, fmt.Errorf("invalid satpoint %s", s)
	}
	outpoint, err := ParseOutPoint(s[:pos])
	if err != nil {
		return SatPoint{}, fmt.Errorf("invalid satpoint %s: %v", s, err)
	}
	offset, err := strconv.ParseUint(s[pos+1:], 10, 64)
	if err != nil {
		return SatPoint{}, fmt.Errorf("invalid satpoint %s: %v", s, err)
	}
	return SatPoint{OutPoint: outpoint, Offset: offset}, nil
}
