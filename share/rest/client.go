package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/metrics"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
	DefaultTimeout   = 30 * time.Second

	TxCachePrefix = "tx-"
)

// TxCache keeps raw transactions, which never change once fetched.
type TxCache interface {
	Read(key []byte) ([]byte, error)
	Write(key, value []byte) error
}

// Client reads chain data from bitcoind's binary REST interface.
type Client struct {
	url       string
	http      *http.Client
	attempts  uint
	baseDelay time.Duration
	cache     TxCache
	log       *logrus.Entry
}

type Option func(*Client)

func WithAttempts(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.attempts = n
		}
	}
}

func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = d
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func WithCache(cache TxCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

func NewClient(url string, opts ...Option) *Client {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	c := &Client{
		url:       strings.TrimSuffix(url, "/"),
		http:      &http.Client{Timeout: DefaultTimeout},
		attempts:  DefaultAttempts,
		baseDelay: DefaultBaseDelay,
		log:       common.GetLoggerEntry("rest"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var errNotFound = errors.New("not found")

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, nil)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	rsp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		return nil, err
	}
	switch {
	case rsp.StatusCode == http.StatusNotFound:
		return nil, retry.Unrecoverable(errors.Wrapf(errNotFound, "%s", path))
	case rsp.StatusCode != http.StatusOK:
		return nil, errors.Errorf("%s: http status %d: %s", path, rsp.StatusCode, bytes.TrimSpace(body))
	}
	return body, nil
}

// fetch retries fn with delay = base * 2^attempt between attempts.
func (c *Client) fetch(ctx context.Context, resource string, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.baseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warnf("fetch %s attempt %d failed: %v", resource, n+1, err)
			metrics.ObserveRetry(resource)
		}),
	)
}

func (c *Client) GetBlockHash(ctx context.Context, height uint64) (*chainhash.Hash, error) {
	var hash *chainhash.Hash
	path := fmt.Sprintf("/rest/blockhashbyheight/%d.bin", height)
	err := c.fetch(ctx, "blockhash", func() error {
		body, err := c.get(ctx, path)
		if err != nil {
			return err
		}
		h, err := chainhash.NewHash(body)
		if err != nil {
			return errors.Wrapf(err, "bad block hash response")
		}
		hash = h
		return nil
	})
	if err != nil {
		return nil, fetchError(err, "could not fetch block hash at height %d", height)
	}
	return hash, nil
}

func (c *Client) GetRawTransaction(ctx context.Context, txid chainhash.Hash) (*wire.MsgTx, error) {
	key := []byte(TxCachePrefix + txid.String())
	if c.cache != nil {
		if raw, err := c.cache.Read(key); err == nil {
			if tx, err := decodeTx(raw, txid); err == nil {
				return tx, nil
			}
		}
	}

	var tx *wire.MsgTx
	var raw []byte
	path := fmt.Sprintf("/rest/tx/%s.bin", txid)
	err := c.fetch(ctx, "tx", func() error {
		body, err := c.get(ctx, path)
		if err != nil {
			return err
		}
		decoded, err := decodeTx(body, txid)
		if err != nil {
			return err
		}
		tx, raw = decoded, body
		return nil
	})
	if err != nil {
		return nil, fetchError(err, "could not fetch tx %s", txid)
	}

	if c.cache != nil {
		if err := c.cache.Write(key, raw); err != nil {
			c.log.Warnf("cache tx %s failed: %v", txid, err)
		}
	}
	return tx, nil
}

func decodeTx(raw []byte, txid chainhash.Hash) (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(wire.TxVersion)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, errors.Wrapf(err, "bad tx %s", txid)
	}
	if got := tx.TxHash(); got != txid {
		return nil, errors.Errorf("tx hash mismatch: want %s, got %s", txid, got)
	}
	return tx, nil
}

func fetchError(err error, format string, args ...interface{}) error {
	if errors.Is(err, errNotFound) {
		return common.WrapError(common.ConsistencyError, err, format, args...)
	}
	return common.WrapError(common.TransientError, err, format, args...)
}
