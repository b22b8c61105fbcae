package sendmany

import (
	"strings"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/decred/dcrd/lru"
	"github.com/gin-gonic/gin"
	sm "github.com/sat20-labs/sendmany/sendmany"
)

// recently broadcast txids remembered by the service
const sentCacheSize = 1024

// RunnerFactory prepares a runner for one request.
type RunnerFactory interface {
	NewRunner(rate sm.FeeRate, broadcast, psbt bool) (*sm.Runner, error)
}

type Service struct {
	params      *chaincfg.Params
	factory     RunnerFactory
	defaultRate sm.FeeRate

	// one build at a time, the wallet is shared
	mutex sync.Mutex
	sent  lru.Cache
}

func NewService(params *chaincfg.Params, factory RunnerFactory, defaultRate sm.FeeRate) *Service {
	return &Service{
		params:      params,
		factory:     factory,
		defaultRate: defaultRate,
		sent:        lru.NewCache(sentCacheSize),
	}
}

func (s *Service) InitRouter(r *gin.Engine, basePath string) {
	basePath = strings.TrimSuffix(basePath, "/")
	r.POST(basePath+"/sendmany/build", s.build)
}
