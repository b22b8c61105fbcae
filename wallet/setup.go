package wallet

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/config"
	"github.com/sat20-labs/sendmany/db"
	"github.com/sat20-labs/sendmany/sendmany"
	"github.com/sat20-labs/sendmany/share/bitcoin_rpc"
	"github.com/sat20-labs/sendmany/share/ord_rpc"
	"github.com/sat20-labs/sendmany/share/rest"
)

type Options struct {
	// SnapshotIn replaces the live wallet with a saved snapshot.
	SnapshotIn string
}

// Env holds the collaborators of a sendmany run, built from the config.
type Env struct {
	Params        *chaincfg.Params
	ChangeAddress btcutil.Address

	Snapshots   sendmany.SnapshotProvider
	Change      sendmany.ChangeSource
	Signer      sendmany.Signer
	Broadcaster sendmany.Broadcaster

	cache  db.KVDB
	wallet *bitcoin_rpc.WalletClient
}

func NewEnv(conf *config.YamlConf, opts Options) (*Env, error) {
	params, err := common.ChainParams(conf.Chain)
	if err != nil {
		return nil, err
	}
	env := &Env{Params: params}
	if conf.SendMany.ChangeAddress != "" {
		env.ChangeAddress, err = common.DecodeAddress(conf.SendMany.ChangeAddress, params)
		if err != nil {
			return nil, err
		}
	}

	btc := conf.ShareRPC.Bitcoin
	if err := bitcoin_rpc.InitBitconRpc(btc.Host, btc.Port, btc.User, btc.Password, btc.SSL); err != nil {
		return nil, err
	}

	// Without an esplora endpoint the node answers tx and tip lookups.
	var blocks BlockHashSource
	var txs TxFetcher = &NodeTxs{Node: bitcoin_rpc.ShareBitconRpc}
	if conf.ShareRPC.Rest.URL != "" {
		restOpts := []rest.Option{
			rest.WithAttempts(conf.ShareRPC.Rest.Attempts),
			rest.WithBaseDelay(time.Duration(conf.ShareRPC.Rest.BaseDelayMs) * time.Millisecond),
		}
		if conf.ShareRPC.Rest.CachePath != "" {
			env.cache, err = db.NewPebbleDB(conf.ShareRPC.Rest.CachePath)
			if err != nil {
				return nil, err
			}
			restOpts = append(restOpts, rest.WithCache(env.cache))
		}
		chain := rest.NewClient(conf.ShareRPC.Rest.URL, restOpts...)
		blocks, txs = chain, chain
	}

	env.wallet, err = bitcoin_rpc.NewWalletClient(btc.Host, btc.Port, btc.User, btc.Password, btc.Wallet, btc.SSL)
	if err != nil {
		env.Close()
		return nil, err
	}

	live := &Provider{
		Params:      params,
		Node:        bitcoin_rpc.ShareBitconRpc,
		Wallet:      env.wallet,
		Ord:         ord_rpc.NewClient(conf.ShareRPC.Ord.URL, time.Duration(conf.ShareRPC.Ord.Timeout)*time.Second),
		Blocks:      blocks,
		ChangeType:  conf.SendMany.ChangeType,
		Concurrency: conf.ShareRPC.Ord.Concurrency,
	}
	env.Snapshots = live
	env.Change = live
	if opts.SnapshotIn != "" {
		env.Snapshots = &FileProvider{Path: opts.SnapshotIn}
	}

	if len(conf.SendMany.Keys) > 0 {
		signer, err := NewKeySigner(conf.SendMany.Keys, params, txs)
		if err != nil {
			env.Close()
			return nil, err
		}
		for _, addr := range signer.Addresses() {
			common.Log.Infof("local signer covers %s", addr)
		}
		env.Signer = signer
	} else {
		env.Signer = &RPCSigner{Wallet: env.wallet}
	}
	env.Broadcaster = &NodeBroadcaster{Node: bitcoin_rpc.ShareBitconRpc}
	return env, nil
}

func (e *Env) NewBuilder(rate sendmany.FeeRate) (*sendmany.Builder, error) {
	return sendmany.NewBuilder(sendmany.Config{
		Params:        e.Params,
		FeeRate:       rate,
		ChangeAddress: e.ChangeAddress,
	})
}

func (e *Env) NewRunner(rate sendmany.FeeRate, broadcast, psbt bool) (*sendmany.Runner, error) {
	builder, err := e.NewBuilder(rate)
	if err != nil {
		return nil, err
	}
	return &sendmany.Runner{
		Builder:     builder,
		Snapshots:   e.Snapshots,
		Change:      e.Change,
		Signer:      e.Signer,
		Broadcaster: e.Broadcaster,
		Broadcast:   broadcast,
		Psbt:        psbt,
	}, nil
}

// PurgeCache drops every cached transaction.
func (e *Env) PurgeCache() error {
	if e.cache == nil {
		return nil
	}
	return e.cache.DropPrefix([]byte(rest.TxCachePrefix))
}

func (e *Env) Close() {
	if e.wallet != nil {
		e.wallet.Shutdown()
		e.wallet = nil
	}
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			common.Log.Errorf("closing cache failed: %v", err)
		}
		e.cache = nil
	}
}
