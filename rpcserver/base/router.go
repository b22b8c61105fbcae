package base

import (
	"github.com/gin-gonic/gin"
	"github.com/sat20-labs/sendmany/sendmany"
	"github.com/sat20-labs/sendmany/share/bitcoin_rpc"
)

type Service struct {
	model *Model
}

func NewService(chain string, node bitcoin_rpc.BitcoinRPC, snapshots sendmany.SnapshotProvider) *Service {
	return &Service{
		model: NewModel(chain, node, snapshots),
	}
}

func (s *Service) InitRouter(r *gin.Engine, basePath string) {
	basePath = trimSlash(basePath)
	r.GET(basePath+"/health", s.getHealth)
	r.GET(basePath+"/wallet/inscriptions", s.getWalletInscriptions)
}

func trimSlash(basePath string) string {
	if len(basePath) > 0 && basePath[len(basePath)-1] == '/' {
		return basePath[:len(basePath)-1]
	}
	return basePath
}
