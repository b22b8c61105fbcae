package ord_rpc

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/btcsuite/btcd/wire"
	"github.com/buger/jsonparser"
	"github.com/pkg/errors"
	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/metrics"
	"github.com/sirupsen/logrus"
)

// Client talks to the JSON API of an ord server.
type Client struct {
	url  string
	http *http.Client
	log  *logrus.Entry
}

type Output struct {
	OutPoint     wire.OutPoint
	Value        int64
	Spent        bool
	Inscriptions []common.InscriptionId
}

type Inscription struct {
	Id       common.InscriptionId
	SatPoint common.SatPoint
}

func NewClient(url string, timeout time.Duration) *Client {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:  strings.TrimSuffix(url, "/"),
		http: &http.Client{Timeout: timeout},
		log:  common.GetLoggerEntry("ord"),
	}
}

func (c *Client) getJSON(ctx context.Context, path string) ([]byte, error) {
	var body []byte
	err := retry.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, nil)
		if err != nil {
			return retry.Unrecoverable(err)
		}
		req.Header.Set("Accept", "application/json")
		rsp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer rsp.Body.Close()
		b, err := io.ReadAll(rsp.Body)
		if err != nil {
			return err
		}
		if rsp.StatusCode == http.StatusNotFound {
			return retry.Unrecoverable(common.NewError(common.ConsistencyError, "ord server has no %s", path))
		}
		if rsp.StatusCode != http.StatusOK {
			return errors.Errorf("%s: http status %d", path, rsp.StatusCode)
		}
		body = b
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warnf("GET %s attempt %d failed: %v", path, n+1, err)
			metrics.ObserveRetry("ord")
		}),
	)
	if err != nil {
		if common.KindOf(err) != 0 {
			return nil, err
		}
		return nil, common.WrapError(common.TransientError, err, "ord server request %s failed", path)
	}
	return body, nil
}

func (c *Client) GetOutput(ctx context.Context, op wire.OutPoint) (*Output, error) {
	body, err := c.getJSON(ctx, "/output/"+op.String())
	if err != nil {
		return nil, err
	}
	value, err := jsonparser.GetInt(body, "value")
	if err != nil {
		return nil, errors.Wrapf(err, "bad output %s response", op)
	}
	out := &Output{OutPoint: op, Value: value}
	if spent, err := jsonparser.GetBoolean(body, "spent"); err == nil {
		out.Spent = spent
	}

	var parseErr error
	_, err = jsonparser.ArrayEach(body, func(v []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if parseErr != nil || dataType != jsonparser.String {
			return
		}
		id, err := common.ParseInscriptionId(string(v))
		if err != nil {
			parseErr = err
			return
		}
		out.Inscriptions = append(out.Inscriptions, id)
	}, "inscriptions")
	if err != nil && !errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil, errors.Wrapf(err, "bad output %s inscriptions", op)
	}
	if parseErr != nil {
		return nil, errors.Wrapf(parseErr, "bad output %s inscriptions", op)
	}
	return out, nil
}

func (c *Client) GetInscription(ctx context.Context, id common.InscriptionId) (*Inscription, error) {
	body, err := c.getJSON(ctx, "/inscription/"+id.String())
	if err != nil {
		return nil, err
	}
	s, err := jsonparser.GetString(body, "satpoint")
	if err != nil {
		return nil, errors.Wrapf(err, "bad inscription %s response", id)
	}
	satpoint, err := common.ParseSatPoint(s)
	if err != nil {
		return nil, errors.Wrapf(err, "bad inscription %s response", id)
	}
	return &Inscription{Id: id, SatPoint: satpoint}, nil
}
