package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/config"
	"github.com/sat20-labs/sendmany/sendmany"
	"github.com/sat20-labs/sendmany/wallet"
)

func init() {
	config.InitSigInt()
}

func main() {
	params := ParseCmdParams()
	err := run(params)
	config.ReleaseRes()
	if err != nil {
		fields := map[string]interface{}{"kind": common.KindOf(err).String()}
		var e *common.Error
		if errors.As(err, &e) && e.Stage != "" {
			fields["stage"] = e.Stage
		}
		common.Log.WithFields(fields).Error(err)
		os.Exit(1)
	}
}

func run(params *cmdParams) error {
	conf := config.InitConfig(params.env)
	if conf == nil {
		return errors.New("no config")
	}
	if err := config.InitLog(conf); err != nil {
		return err
	}

	env, err := wallet.NewEnv(conf, wallet.Options{SnapshotIn: params.snapshotIn})
	if err != nil {
		return err
	}
	config.RegistReleaseFunc(env.Close)

	if params.purgeCache {
		if err := env.PurgeCache(); err != nil {
			return err
		}
		common.Log.Info("transaction cache purged")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	config.RegistSigIntFunc(cancel)

	requests, err := loadInputs(ctx, params, env)
	if err != nil {
		return err
	}
	if requests == nil {
		if params.snapshotOut != "" || params.purgeCache {
			return nil
		}
		return errors.New("no request file, use -csv")
	}

	feeRate := conf.SendMany.FeeRate
	if params.feeRate != 0 {
		feeRate = params.feeRate
	}
	rate, err := sendmany.NewFeeRate(feeRate)
	if err != nil {
		return err
	}
	runner, err := env.NewRunner(rate,
		params.broadcast || conf.SendMany.Broadcast,
		params.psbt || conf.SendMany.Psbt)
	if err != nil {
		return err
	}

	output, _, err := runner.Run(ctx, requests)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// loadInputs parses the request file before any live snapshot is taken, so
// a malformed file never touches the node. With -snapshot-out the snapshot
// is saved and the run continues from the saved copy.
func loadInputs(ctx context.Context, params *cmdParams, env *wallet.Env) (*sendmany.Requests, error) {
	var requests *sendmany.Requests
	if params.csv != "" {
		var err error
		requests, err = sendmany.LoadRequestsFromFile(params.csv, env.Params)
		if err != nil {
			return nil, common.WithStage(err, string(sendmany.StageLoading))
		}
	}
	if params.snapshotOut != "" {
		state, err := env.Snapshots.Snapshot(ctx)
		if err != nil {
			return nil, common.WithStage(err, string(sendmany.StageSnapshot))
		}
		if err := wallet.SaveSnapshot(state, params.snapshotOut); err != nil {
			return nil, err
		}
		common.Log.Infof("wallet snapshot saved to %s", params.snapshotOut)
		env.Snapshots = &wallet.Static{State: state}
	}
	return requests, nil
}
