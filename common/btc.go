package common

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/mempool"
	"github.com/btcsuite/btcd/wire"
)

const (
	ChainMainnet  = "mainnet"
	ChainTestnet  = "testnet"
	ChainTestnet4 = "testnet4"
	ChainSignet   = "signet"
	ChainRegtest  = "regtest"
)

func ChainParams(chain string) (*chaincfg.Params, error) {
	switch chain {
	case ChainMainnet:
		return &chaincfg.MainNetParams, nil
	case ChainTestnet:
		return &chaincfg.TestNet3Params, nil
	case ChainTestnet4:
		return &chaincfg.TestNet4Params, nil
	case ChainSignet:
		return &chaincfg.SigNetParams, nil
	case ChainRegtest:
		return &chaincfg.RegressionNetParams, nil
	}
	return nil, fmt.Errorf("invalid chain: %s", chain)
}

// DecodeAddress parses addr and checks that it belongs to params. Bech32
// decoding alone does not look at the human readable part's network.
func DecodeAddress(addr string, params *chaincfg.Params) (btcutil.Address, error) {
	address, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return nil, NewError(FormatError, "bad address %s: %v", addr, err)
	}
	if !address.IsForNet(params) {
		return nil, NewError(FormatError, "bad network for address %s", addr)
	}
	return address, nil
}

// DustLimit is the smallest value an output paying to pkScript may carry
// and still be relayed.
func DustLimit(pkScript []byte) int64 {
	return mempool.GetDustThreshold(wire.NewTxOut(0, pkScript))
}
