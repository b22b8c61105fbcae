package wallet

import (
	"context"
	"encoding/hex"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/sendmany"
	"github.com/vmihailenco/msgpack/v5"
)

const snapshotVersion = 1

type snapshotUtxo struct {
	OutPoint string `msgpack:"outpoint"`
	Value    int64  `msgpack:"value"`
	PkScript string `msgpack:"script"`
}

type snapshotLocation struct {
	Id       string `msgpack:"id"`
	SatPoint string `msgpack:"satpoint"`
}

type snapshotFile struct {
	Version      int                `msgpack:"version"`
	Height       uint64             `msgpack:"height"`
	Hash         string             `msgpack:"hash"`
	Unspent      []snapshotUtxo     `msgpack:"unspent"`
	Locked       []string           `msgpack:"locked"`
	Inscriptions []snapshotLocation `msgpack:"inscriptions"`
}

func EncodeSnapshot(state *sendmany.WalletState) ([]byte, error) {
	tip := state.Tip()
	f := snapshotFile{
		Version: snapshotVersion,
		Height:  tip.Height,
		Hash:    tip.Hash.String(),
	}
	for _, u := range state.Unspent() {
		f.Unspent = append(f.Unspent, snapshotUtxo{
			OutPoint: u.OutPoint.String(),
			Value:    u.Value,
			PkScript: hex.EncodeToString(u.PkScript),
		})
	}
	for _, op := range state.Locked() {
		f.Locked = append(f.Locked, op.String())
	}
	for _, loc := range state.Locations() {
		f.Inscriptions = append(f.Inscriptions, snapshotLocation{
			Id:       loc.Id.String(),
			SatPoint: loc.SatPoint.String(),
		})
	}
	return msgpack.Marshal(&f)
}

func DecodeSnapshot(data []byte) (*sendmany.WalletState, error) {
	var f snapshotFile
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return nil, common.WrapError(common.FormatError, err, "bad snapshot")
	}
	if f.Version != snapshotVersion {
		return nil, common.NewError(common.FormatError, "unsupported snapshot version %d", f.Version)
	}

	hash, err := chainhash.NewHashFromStr(f.Hash)
	if err != nil {
		return nil, common.WrapError(common.FormatError, err, "bad snapshot tip %s", f.Hash)
	}
	unspent := make([]*sendmany.Utxo, 0, len(f.Unspent))
	for _, u := range f.Unspent {
		op, err := common.ParseOutPoint(u.OutPoint)
		if err != nil {
			return nil, common.WrapError(common.FormatError, err, "bad snapshot output %s", u.OutPoint)
		}
		pkScript, err := hex.DecodeString(u.PkScript)
		if err != nil {
			return nil, common.WrapError(common.FormatError, err, "bad script of %s", u.OutPoint)
		}
		unspent = append(unspent, &sendmany.Utxo{OutPoint: op, Value: u.Value, PkScript: pkScript})
	}
	locked := make([]wire.OutPoint, 0, len(f.Locked))
	for _, s := range f.Locked {
		op, err := common.ParseOutPoint(s)
		if err != nil {
			return nil, common.WrapError(common.FormatError, err, "bad locked output %s", s)
		}
		locked = append(locked, op)
	}
	locations := make([]sendmany.InscriptionLocation, 0, len(f.Inscriptions))
	for _, loc := range f.Inscriptions {
		id, err := common.ParseInscriptionId(loc.Id)
		if err != nil {
			return nil, common.WrapError(common.FormatError, err, "bad inscription %s", loc.Id)
		}
		sp, err := common.ParseSatPoint(loc.SatPoint)
		if err != nil {
			return nil, common.WrapError(common.FormatError, err, "bad satpoint %s", loc.SatPoint)
		}
		locations = append(locations, sendmany.InscriptionLocation{SatPoint: sp, Id: id})
	}

	tip := sendmany.ChainTip{Height: f.Height, Hash: *hash}
	return sendmany.NewWalletState(tip, unspent, locked, locations), nil
}

func SaveSnapshot(state *sendmany.WalletState, path string) error {
	data, err := EncodeSnapshot(state)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "can't write snapshot %s", path)
}

func LoadSnapshot(path string) (*sendmany.WalletState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read snapshot %s", path)
	}
	return DecodeSnapshot(data)
}

// Static serves a fixed state, for offline builds and tests.
type Static struct {
	State  *sendmany.WalletState
	Change btcutil.Address
}

func (s *Static) Snapshot(ctx context.Context) (*sendmany.WalletState, error) {
	if s.State == nil {
		return nil, common.NewError(common.ConsistencyError, "no wallet snapshot loaded")
	}
	return s.State, nil
}

func (s *Static) ChangeAddress(ctx context.Context) (btcutil.Address, error) {
	if s.Change == nil {
		return nil, common.NewError(common.ValueError, "no change address")
	}
	return s.Change, nil
}

// FileProvider reads the snapshot from disk on every call.
type FileProvider struct {
	Path string
}

func (p *FileProvider) Snapshot(ctx context.Context) (*sendmany.WalletState, error) {
	return LoadSnapshot(p.Path)
}
