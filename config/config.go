package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes the environment variables that override the yaml
// file, e.g. SENDMANY_BITCOIN_PASSWORD.
const EnvPrefix = "SENDMANY"

type YamlConf struct {
	Chain      string     `yaml:"chain"`
	ShareRPC   ShareRPC   `yaml:"share_rpc"`
	Log        Log        `yaml:"log"`
	SendMany   SendMany   `yaml:"sendmany"`
	RPCService RPCService `yaml:"rpc_service"`
}

type ShareRPC struct {
	Bitcoin Bitcoin `yaml:"bitcoin"`
	Ord     Ord     `yaml:"ord"`
	Rest    Rest    `yaml:"rest"`
}

type Bitcoin struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Wallet   string `yaml:"wallet"`
	SSL      bool   `yaml:"ssl"`
}

type Ord struct {
	URL string `yaml:"url"`
	// Timeout in seconds of one request.
	Timeout     int `yaml:"timeout"`
	Concurrency int `yaml:"concurrency"`
}

type Rest struct {
	URL         string `yaml:"url"`
	Attempts    uint   `yaml:"attempts"`
	BaseDelayMs int    `yaml:"base_delay_ms"`
	CachePath   string `yaml:"cache_path"`
}

type Log struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type SendMany struct {
	FeeRate       float64 `yaml:"fee_rate"`
	Broadcast     bool    `yaml:"broadcast"`
	ChangeAddress string  `yaml:"change_address"`
	// ChangeType is passed to getrawchangeaddress when ChangeAddress is empty.
	ChangeType string   `yaml:"change_type"`
	Psbt       bool     `yaml:"psbt"`
	Keys       []string `yaml:"keys"`
}

// overrides are read from the environment after the yaml file.
type overrides struct {
	Chain           string   `envconfig:"CHAIN"`
	LogLevel        string   `envconfig:"LOG_LEVEL"`
	BitcoinHost     string   `envconfig:"BITCOIN_HOST"`
	BitcoinPort     int      `envconfig:"BITCOIN_PORT"`
	BitcoinUser     string   `envconfig:"BITCOIN_USER"`
	BitcoinPassword string   `envconfig:"BITCOIN_PASSWORD"`
	BitcoinWallet   string   `envconfig:"BITCOIN_WALLET"`
	OrdURL          string   `envconfig:"ORD_URL"`
	RestURL         string   `envconfig:"REST_URL"`
	FeeRate         float64  `envconfig:"FEE_RATE"`
	Keys            []string `envconfig:"KEYS"`
}

func GetBaseDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return "./."
	}
	return filepath.Dir(execPath)
}

func InitConfig(configFile string) *YamlConf {
	if configFile == "" {
		for i, item := range os.Args {
			if item == "-env" && i+1 < len(os.Args) {
				configFile = os.Args[i+1]
				break
			}
		}
		if configFile == "" {
			configFile = "./.env"
		}
	}
	if !strings.HasPrefix(configFile, "/") {
		configFile = filepath.Join(GetBaseDir(), configFile)
	}

	fmt.Fprintf(os.Stderr, "config file: %s\n", configFile)

	cfg, err := LoadYamlConf(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return nil
	}
	return cfg
}

func LoadYamlConf(cfgPath string) (*YamlConf, error) {
	confFile, err := os.Open(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cfg: %s, error: %s", cfgPath, err)
	}
	defer confFile.Close()

	ret := &YamlConf{}
	decoder := yaml.NewDecoder(confFile)
	err = decoder.Decode(ret)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cfg: %s, error: %s", cfgPath, err)
	}

	if err := applyEnv(ret); err != nil {
		return nil, err
	}
	setDefaults(ret)
	return ret, nil
}

func applyEnv(ret *YamlConf) error {
	var env overrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to process env: %w", err)
	}
	if env.Chain != "" {
		ret.Chain = env.Chain
	}
	if env.LogLevel != "" {
		ret.Log.Level = env.LogLevel
	}
	btc := &ret.ShareRPC.Bitcoin
	if env.BitcoinHost != "" {
		btc.Host = env.BitcoinHost
	}
	if env.BitcoinPort != 0 {
		btc.Port = env.BitcoinPort
	}
	if env.BitcoinUser != "" {
		btc.User = env.BitcoinUser
	}
	if env.BitcoinPassword != "" {
		btc.Password = env.BitcoinPassword
	}
	if env.BitcoinWallet != "" {
		btc.Wallet = env.BitcoinWallet
	}
	if env.OrdURL != "" {
		ret.ShareRPC.Ord.URL = env.OrdURL
	}
	if env.RestURL != "" {
		ret.ShareRPC.Rest.URL = env.RestURL
	}
	if env.FeeRate != 0 {
		ret.SendMany.FeeRate = env.FeeRate
	}
	if len(env.Keys) > 0 {
		ret.SendMany.Keys = env.Keys
	}
	return nil
}

func setDefaults(ret *YamlConf) {
	if ret.Chain == "" {
		ret.Chain = "mainnet"
	}

	_, err := logrus.ParseLevel(ret.Log.Level)
	if err != nil {
		ret.Log.Level = "info"
	}
	if ret.Log.Path == "" {
		ret.Log.Path = "log"
	}
	ret.Log.Path = filepath.FromSlash(ret.Log.Path)
	if ret.Log.Path[len(ret.Log.Path)-1] != filepath.Separator {
		ret.Log.Path += string(filepath.Separator)
	}

	if ret.ShareRPC.Bitcoin.Host == "" {
		ret.ShareRPC.Bitcoin.Host = "127.0.0.1"
	}
	if ret.ShareRPC.Rest.Attempts == 0 {
		ret.ShareRPC.Rest.Attempts = 3
	}
	if ret.ShareRPC.Rest.BaseDelayMs <= 0 {
		ret.ShareRPC.Rest.BaseDelayMs = 1000
	}
	if ret.ShareRPC.Ord.URL == "" {
		ret.ShareRPC.Ord.URL = "127.0.0.1:80"
	}
	if ret.ShareRPC.Ord.Timeout <= 0 {
		ret.ShareRPC.Ord.Timeout = 30
	}
	if ret.ShareRPC.Ord.Concurrency <= 0 {
		ret.ShareRPC.Ord.Concurrency = 8
	}
	if ret.SendMany.ChangeType == "" && ret.SendMany.ChangeAddress == "" {
		ret.SendMany.ChangeType = "bech32m"
	}

	rpcService := &ret.RPCService
	if rpcService.Addr == "" {
		rpcService.Addr = "0.0.0.0:80"
	}
	if rpcService.Proxy == "" {
		rpcService.Proxy = "/"
	}
	if rpcService.Proxy[0] != '/' {
		rpcService.Proxy = "/" + rpcService.Proxy
	}
	if rpcService.LogPath == "" {
		rpcService.LogPath = "log"
	}
}

func SaveYamlConf(conf *YamlConf, filePath string) error {
	data, err := yaml.Marshal(conf)
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0644)
}
