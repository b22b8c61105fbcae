package base

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/rpcserver/wire"
)

func (s *Service) getHealth(c *gin.Context) {
	rsp := &wire.HealthStatusResp{
		Status:  "ok",
		Version: common.SENDMANY_VERSION,
		Chain:   s.model.chain,
	}
	height, err := s.model.height()
	if err != nil {
		common.Log.Warnf("health: can't reach node: %v", err)
		rsp.Status = "node unreachable"
		c.JSON(http.StatusServiceUnavailable, rsp)
		return
	}
	rsp.Height = height
	c.JSON(http.StatusOK, rsp)
}

func (s *Service) getWalletInscriptions(c *gin.Context) {
	resp := &wire.WalletInscriptionsResp{
		BaseResp: wire.BaseResp{
			Code: 0,
			Msg:  "ok",
		},
	}
	height, list, err := s.model.getWalletInscriptions(c.Request.Context())
	if err != nil {
		resp.Code = -1
		resp.Msg = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	resp.Height = height
	resp.Total = len(list)
	resp.Data = list
	c.JSON(http.StatusOK, resp)
}
