package main

import (
	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/config"
	"github.com/sat20-labs/sendmany/metrics"
	"github.com/sat20-labs/sendmany/rpcserver"
	"github.com/sat20-labs/sendmany/rpcserver/base"
	rpcsendmany "github.com/sat20-labs/sendmany/rpcserver/sendmany"
	"github.com/sat20-labs/sendmany/sendmany"
	"github.com/sat20-labs/sendmany/share/bitcoin_rpc"
	"github.com/sat20-labs/sendmany/wallet"
)

func init() {
	config.InitSigInt()
}

func main() {
	yamlcfg := config.InitConfig("")
	if yamlcfg == nil {
		return
	}
	if err := config.InitLog(yamlcfg); err != nil {
		common.Log.Error(err)
		return
	}

	common.Log.Infof("Starting sendmany server %s...", common.SENDMANY_VERSION)
	defer func() {
		config.ReleaseRes()
		common.Log.Info("shut down")
	}()
	metrics.Version.WithLabelValues(common.SENDMANY_VERSION).Set(1)

	env, err := wallet.NewEnv(yamlcfg, wallet.Options{})
	if err != nil {
		common.Log.Error(err)
		return
	}
	config.RegistReleaseFunc(env.Close)

	rate, err := sendmany.NewFeeRate(yamlcfg.SendMany.FeeRate)
	if err != nil {
		common.Log.Error(err)
		return
	}

	_, err = InitRpcService(yamlcfg, env, rate)
	if err != nil {
		common.Log.Error(err)
		return
	}

	stopChan := make(chan bool)
	config.RegistSigIntFunc(func() {
		common.Log.Info("handle SIGINT for close rpc service")
		stopChan <- true
	})
	<-stopChan
	common.Log.Info("prepare to release resource...")
}

func InitRpcService(conf *config.YamlConf, env *wallet.Env, rate sendmany.FeeRate) (*rpcserver.Rpc, error) {
	rpcService := conf.RPCService
	rpc := rpcserver.NewRpc(
		base.NewService(conf.Chain, bitcoin_rpc.ShareBitconRpc, env.Snapshots),
		rpcsendmany.NewService(env.Params, env, rate),
	)
	err := rpc.Start(rpcService.Addr, rpcService.Proxy, rpcService.LogPath, &rpcService.API)
	if err != nil {
		return rpc, err
	}
	common.Log.Info("rpc started")
	return rpc, nil
}
