package bitcoin_rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/pkg/errors"
)

type Unspent struct {
	Txid         string
	Vout         uint32
	ScriptPubKey string
	Value        int64
}

type Outpoint struct {
	Txid string
	Vout uint32
}

// WalletClient posts JSON-RPC calls to the node's wallet endpoint.
type WalletClient struct {
	url  string
	user string
	pass string
	http *http.Client
	id   atomic.Uint64
}

type walletRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type walletResponse struct {
	Result json.RawMessage   `json:"result"`
	Error  *btcjson.RPCError `json:"error"`
}

// NewWalletClient targets /wallet/<name> on the node. An empty wallet name
// uses the node's default wallet.
func NewWalletClient(host string, port int, user, passwd, wallet string, useSSL bool) (*WalletClient, error) {
	if host == "" || port <= 0 {
		return nil, errors.Errorf("bad wallet endpoint %s:%d", host, port)
	}
	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s:%d", scheme, host, port)
	if wallet != "" {
		url += "/wallet/" + wallet
	}
	return &WalletClient{
		url:  url,
		user: user,
		pass: passwd,
		http: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// call decodes the body whatever the status, the node reports rpc errors
// with a 500 and a json body.
func (p *WalletClient) call(method string, result interface{}, params ...interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(&walletRequest{
		Jsonrpc: "1.0",
		ID:      p.id.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(p.user, p.pass)

	rsp, err := p.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s failed", method)
	}
	defer rsp.Body.Close()
	b, err := io.ReadAll(rsp.Body)
	if err != nil {
		return errors.Wrapf(err, "%s failed", method)
	}

	var resp walletResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		return errors.Errorf("%s failed: http status %d", method, rsp.StatusCode)
	}
	if resp.Error != nil {
		return errors.Wrapf(resp.Error, "%s failed", method)
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return errors.Wrapf(err, "bad %s response", method)
	}
	return nil
}

func (p *WalletClient) ListUnspent() ([]Unspent, error) {
	var list []btcjson.ListUnspentResult
	if err := p.call("listunspent", &list); err != nil {
		return nil, err
	}
	result := make([]Unspent, 0, len(list))
	for _, u := range list {
		amount, err := btcutil.NewAmount(u.Amount)
		if err != nil {
			return nil, errors.Wrapf(err, "bad amount for %s:%d", u.TxID, u.Vout)
		}
		result = append(result, Unspent{
			Txid:         u.TxID,
			Vout:         u.Vout,
			ScriptPubKey: u.ScriptPubKey,
			Value:        int64(amount),
		})
	}
	return result, nil
}

func (p *WalletClient) ListLockUnspent() ([]Outpoint, error) {
	var list []btcjson.TransactionInput
	if err := p.call("listlockunspent", &list); err != nil {
		return nil, err
	}
	result := make([]Outpoint, 0, len(list))
	for _, op := range list {
		result = append(result, Outpoint{Txid: op.Txid, Vout: op.Vout})
	}
	return result, nil
}

func (p *WalletClient) GetRawChangeAddress(addressType string) (string, error) {
	var addr string
	var err error
	if addressType == "" {
		err = p.call("getrawchangeaddress", &addr)
	} else {
		err = p.call("getrawchangeaddress", &addr, addressType)
	}
	return addr, err
}

type signResult struct {
	Hex      string `json:"hex"`
	Complete bool   `json:"complete"`
	Errors   []struct {
		Txid  string `json:"txid"`
		Vout  uint32 `json:"vout"`
		Error string `json:"error"`
	} `json:"errors"`
}

func (p *WalletClient) SignRawTransaction(txHex string) (string, error) {
	var result signResult
	if err := p.call("signrawtransactionwithwallet", &result, txHex); err != nil {
		return "", err
	}
	if !result.Complete {
		if len(result.Errors) > 0 {
			e := result.Errors[0]
			return "", errors.Errorf("failed to sign input %s:%d: %s", e.Txid, e.Vout, e.Error)
		}
		return "", errors.New("failed to sign transaction")
	}
	return result.Hex, nil
}

func (p *WalletClient) Shutdown() {
	p.http.CloseIdleConnections()
}
