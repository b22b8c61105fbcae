package wallet

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/sendmany"
	"github.com/sat20-labs/sendmany/share/bitcoin_rpc"
	"github.com/sat20-labs/sendmany/share/ord_rpc"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type OrdClient interface {
	GetOutput(ctx context.Context, op wire.OutPoint) (*ord_rpc.Output, error)
	GetInscription(ctx context.Context, id common.InscriptionId) (*ord_rpc.Inscription, error)
}

type BlockHashSource interface {
	GetBlockHash(ctx context.Context, height uint64) (*chainhash.Hash, error)
}

// Provider reads the wallet from the node and its inscriptions from the
// ord server.
type Provider struct {
	Params      *chaincfg.Params
	Node        bitcoin_rpc.BitcoinRPC
	Wallet      bitcoin_rpc.WalletRPC
	Ord         OrdClient
	Blocks      BlockHashSource
	ChangeType  string
	Concurrency int

	log *logrus.Entry
}

func (p *Provider) logger() *logrus.Entry {
	if p.log == nil {
		p.log = common.GetLoggerEntry("wallet")
	}
	return p.log
}

func (p *Provider) tip(ctx context.Context) (sendmany.ChainTip, error) {
	height, err := p.Node.GetBlockCount()
	if err != nil {
		return sendmany.ChainTip{}, common.WrapError(common.TransientError, err, "getblockcount failed")
	}
	tip := sendmany.ChainTip{Height: height}
	if p.Blocks != nil {
		h, err := p.Blocks.GetBlockHash(ctx, height)
		if err != nil {
			return sendmany.ChainTip{}, err
		}
		tip.Hash = *h
		return tip, nil
	}
	s, err := p.Node.GetBlockHash(height)
	if err != nil {
		return sendmany.ChainTip{}, common.WrapError(common.TransientError, err, "getblockhash %d failed", height)
	}
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return sendmany.ChainTip{}, errors.Wrapf(err, "bad block hash %s", s)
	}
	tip.Hash = *h
	return tip, nil
}

func (p *Provider) unspent() ([]*sendmany.Utxo, error) {
	list, err := p.Wallet.ListUnspent()
	if err != nil {
		return nil, common.WrapError(common.TransientError, err, "can't list unspent outputs")
	}
	result := make([]*sendmany.Utxo, 0, len(list))
	for _, u := range list {
		txid, err := chainhash.NewHashFromStr(u.Txid)
		if err != nil {
			return nil, errors.Wrapf(err, "bad unspent txid %s", u.Txid)
		}
		pkScript, err := hex.DecodeString(u.ScriptPubKey)
		if err != nil {
			return nil, errors.Wrapf(err, "bad script of %s:%d", u.Txid, u.Vout)
		}
		result = append(result, &sendmany.Utxo{
			OutPoint: wire.OutPoint{Hash: *txid, Index: u.Vout},
			Value:    u.Value,
			PkScript: pkScript,
		})
	}
	return result, nil
}

func (p *Provider) locked() ([]wire.OutPoint, error) {
	list, err := p.Wallet.ListLockUnspent()
	if err != nil {
		return nil, common.WrapError(common.TransientError, err, "can't list locked outputs")
	}
	result := make([]wire.OutPoint, 0, len(list))
	for _, op := range list {
		txid, err := chainhash.NewHashFromStr(op.Txid)
		if err != nil {
			return nil, errors.Wrapf(err, "bad locked txid %s", op.Txid)
		}
		result = append(result, wire.OutPoint{Hash: *txid, Index: op.Vout})
	}
	return result, nil
}

// inscriptions asks the ord server about every unspent output, a few at a
// time.
func (p *Provider) inscriptions(ctx context.Context, unspent []*sendmany.Utxo) ([]sendmany.InscriptionLocation, error) {
	var (
		mutex     sync.Mutex
		locations []sendmany.InscriptionLocation
	)
	limit := p.Concurrency
	if limit <= 0 {
		limit = 8
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for _, u := range unspent {
		u := u
		group.Go(func() error {
			out, err := p.Ord.GetOutput(ctx, u.OutPoint)
			if err != nil {
				return err
			}
			if out.Spent {
				return common.NewError(common.TransientError,
					"ord server reports %s as spent, its index is behind the wallet", u.OutPoint)
			}
			for _, id := range out.Inscriptions {
				ins, err := p.Ord.GetInscription(ctx, id)
				if err != nil {
					return err
				}
				if ins.SatPoint.OutPoint != u.OutPoint {
					return common.NewError(common.TransientError,
						"ord server lists %s on %s but locates it at %s", id, u.OutPoint, ins.SatPoint)
				}
				mutex.Lock()
				locations = append(locations, sendmany.InscriptionLocation{SatPoint: ins.SatPoint, Id: id})
				mutex.Unlock()
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return locations, nil
}

func (p *Provider) Snapshot(ctx context.Context) (*sendmany.WalletState, error) {
	tip, err := p.tip(ctx)
	if err != nil {
		return nil, err
	}
	unspent, err := p.unspent()
	if err != nil {
		return nil, err
	}
	locked, err := p.locked()
	if err != nil {
		return nil, err
	}
	locations, err := p.inscriptions(ctx, unspent)
	if err != nil {
		return nil, err
	}

	p.logger().Debugf("snapshot at %d (%s): %d unspent, %d locked, %d inscriptions",
		tip.Height, tip.Hash, len(unspent), len(locked), len(locations))
	return sendmany.NewWalletState(tip, unspent, locked, locations), nil
}

func (p *Provider) ChangeAddress(ctx context.Context) (btcutil.Address, error) {
	s, err := p.Wallet.GetRawChangeAddress(p.ChangeType)
	if err != nil {
		return nil, common.WrapError(common.TransientError, err, "can't get change address")
	}
	return common.DecodeAddress(s, p.Params)
}
