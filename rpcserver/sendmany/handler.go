package sendmany

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/rpcserver/wire"
	sm "github.com/sat20-labs/sendmany/sendmany"
)

func failed(resp *wire.SendManyResp, err error) {
	resp.Code = -1
	resp.Msg = err.Error()
	if kind := common.KindOf(err); kind != 0 {
		resp.Kind = kind.String()
	}
	var e *common.Error
	if errors.As(err, &e) {
		resp.Stage = e.Stage
	}
}

func (s *Service) build(c *gin.Context) {
	resp := &wire.SendManyResp{
		BaseResp: wire.BaseResp{
			Code: 0,
			Msg:  "ok",
		},
	}
	var req wire.SendManyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		failed(resp, common.WrapError(common.FormatError, err, "bad request body"))
		c.JSON(http.StatusOK, resp)
		return
	}

	rate := s.defaultRate
	if req.FeeRate != 0 {
		var err error
		rate, err = sm.NewFeeRate(req.FeeRate)
		if err != nil {
			failed(resp, err)
			c.JSON(http.StatusOK, resp)
			return
		}
	}

	requests, err := sm.LoadRequests(strings.NewReader(req.Csv), s.params)
	if err != nil {
		failed(resp, common.WithStage(err, string(sm.StageLoading)))
		c.JSON(http.StatusOK, resp)
		return
	}

	runner, err := s.factory.NewRunner(rate, req.Broadcast, req.Psbt)
	if err != nil {
		failed(resp, err)
		c.JSON(http.StatusOK, resp)
		return
	}
	if runner.Broadcaster != nil {
		runner.Broadcaster = &dedupeBroadcaster{inner: runner.Broadcaster, sent: &s.sent}
	}

	s.mutex.Lock()
	output, result, err := runner.Run(c.Request.Context(), requests)
	s.mutex.Unlock()
	if err != nil {
		failed(resp, err)
		c.JSON(http.StatusOK, resp)
		return
	}

	resp.Data = &wire.SendManyData{
		Tx:   output.Tx,
		Psbt: output.Psbt,
		Plan: result.Plan.Summary(),
	}
	c.JSON(http.StatusOK, resp)
}
