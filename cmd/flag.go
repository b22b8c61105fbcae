package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/config"
)

type cmdParams struct {
	env         string
	csv         string
	feeRate     float64
	broadcast   bool
	psbt        bool
	snapshotIn  string
	snapshotOut string
	purgeCache  bool
}

func printHelp() {
	common.Log.Info("sendmany help:")
	common.Log.Info("Usage: 'sendmany -init mainnet'")
	common.Log.Info("Usage: 'sendmany -env .env -csv transfers.csv -fee-rate 3'")
	common.Log.Info("Options:")
	common.Log.Info("    -init: write default.yaml for a chain in current dir")
	common.Log.Info("    -env: config file, default ./.env")
	common.Log.Info("    -csv: request file of inscriptionid,address lines")
	common.Log.Info("    -fee-rate: sat/vB, overrides sendmany.fee_rate")
	common.Log.Info("    -broadcast: send the signed tx to the node")
	common.Log.Info("    -psbt: print an unsigned psbt instead of signing")
	common.Log.Info("    -snapshot-in: build from a saved wallet snapshot")
	common.Log.Info("    -snapshot-out: save the wallet snapshot used by the build")
	common.Log.Info("    -purge-cache: drop cached transactions first")
}

func ParseCmdParams() *cmdParams {
	initChain := flag.String("init", "", "generate config file in current dir")
	env := flag.String("env", "", "env config file, default ./.env")
	csv := flag.String("csv", "", "request file")
	feeRate := flag.Float64("fee-rate", 0, "fee rate in sat/vB")
	broadcast := flag.Bool("broadcast", false, "broadcast the signed tx")
	psbt := flag.Bool("psbt", false, "print an unsigned psbt")
	snapshotIn := flag.String("snapshot-in", "", "wallet snapshot to build from")
	snapshotOut := flag.String("snapshot-out", "", "file to save the wallet snapshot to")
	purgeCache := flag.Bool("purge-cache", false, "drop cached transactions")
	help := flag.Bool("help", false, "show help.")
	flag.Parse()

	if *help {
		printHelp()
		os.Exit(0)
	}

	if *initChain != "" {
		err := generateDefaultCfg(*initChain)
		if err != nil {
			common.Log.Fatal(err)
		}
		os.Exit(0)
	}

	return &cmdParams{
		env:         *env,
		csv:         *csv,
		feeRate:     *feeRate,
		broadcast:   *broadcast,
		psbt:        *psbt,
		snapshotIn:  *snapshotIn,
		snapshotOut: *snapshotOut,
		purgeCache:  *purgeCache,
	}
}

func generateDefaultCfg(chain string) error {
	cfg, err := NewDefaultYamlConf(chain)
	if err != nil {
		return err
	}
	cfgPath, err := os.Getwd()
	if err != nil {
		return err
	}
	return config.SaveYamlConf(cfg, cfgPath+"/default.yaml")
}

func NewDefaultYamlConf(chain string) (*config.YamlConf, error) {
	var bitcoinPort int
	switch chain {
	case common.ChainMainnet:
		bitcoinPort = 8332
	case common.ChainTestnet:
		bitcoinPort = 18332
	case common.ChainTestnet4:
		bitcoinPort = 48332
	case common.ChainSignet:
		bitcoinPort = 38332
	case common.ChainRegtest:
		bitcoinPort = 18443
	default:
		return nil, fmt.Errorf("unsupported chain: %s", chain)
	}
	ret := &config.YamlConf{
		Chain: chain,
		ShareRPC: config.ShareRPC{
			Bitcoin: config.Bitcoin{
				Host:     "127.0.0.1",
				Port:     bitcoinPort,
				User:     "user",
				Password: "password",
			},
			Ord: config.Ord{
				URL:         "127.0.0.1:80",
				Timeout:     30,
				Concurrency: 8,
			},
			Rest: config.Rest{
				Attempts:    3,
				BaseDelayMs: 1000,
				CachePath:   "cache",
			},
		},
		Log: config.Log{
			Level: "info",
			Path:  "log",
		},
		SendMany: config.SendMany{
			FeeRate:    1,
			ChangeType: "bech32m",
		},
		RPCService: config.RPCService{
			Addr:  "0.0.0.0:80",
			Proxy: chain,
			API: config.API{
				APIKeyList:      make(map[string]*config.APIKey),
				NoLimitApiList:  []string{"/health"},
				NoLimitHostList: []string{},
			},
		},
	}
	return ret, nil
}
