package rpcserver

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"github.com/gin-gonic/gin"
	"github.com/sat20-labs/sendmany/common"
	"github.com/sat20-labs/sendmany/config"
)

func (s *Rpc) initApiConf(apiConf *config.API) {
	if apiConf == nil || len(apiConf.APIKeyList) == 0 {
		s.api = nil
		return
	}
	s.api = apiConf
}

func localIps() ([]string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}
	var result []string
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if ok && ipNet.IP.To4() != nil {
			result = append(result, ipNet.IP.String())
		}
	}
	return append(result, "localhost"), nil
}

// limiterFor returns the shared token bucket of apiKey, nil when the key
// has no limit.
func (s *Rpc) limiterFor(apiKey *config.APIKey) *RateLimit {
	if apiKey.RateLimit == nil || apiKey.RateLimit.PerSecond == 0 {
		return nil
	}
	v, ok := s.apiLimitMap.Load(apiKey)
	if ok {
		return v.(*RateLimit)
	}
	lmt := tollbooth.NewLimiter(float64(apiKey.RateLimit.PerSecond), &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	if apiKey.RateLimit.Max > 0 {
		lmt.SetMax(float64(apiKey.RateLimit.Max))
	}
	if apiKey.RateLimit.Burst > 0 {
		lmt.SetBurst(apiKey.RateLimit.Burst)
	}
	lmt.SetTokenBucketExpirationTTL(time.Minute)
	v, _ = s.apiLimitMap.LoadOrStore(apiKey, &RateLimit{limit: lmt})
	return v.(*RateLimit)
}

func (s *Rpc) applyApiConf(r *gin.Engine, basePath string) error {
	if s.api == nil {
		return nil
	}
	localIpList, err := localIps()
	if err != nil {
		return err
	}
	basePath = strings.TrimSuffix(basePath, "/")

	r.Use(func(c *gin.Context) {
		host := c.Request.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}
		for _, ip := range localIpList {
			if host == ip {
				c.Next()
				return
			}
		}
		for _, apiUrl := range s.api.NoLimitApiList {
			if basePath+apiUrl == c.Request.URL.Path {
				c.Next()
				return
			}
		}

		clientIp := c.ClientIP()
		common.Log.Debugf("authorization client Ip: %s", clientIp)
		for _, host := range s.api.NoLimitHostList {
			if clientIp == host {
				c.Next()
				return
			}
		}

		authorization := c.GetHeader("Authorization")
		apiKey := s.api.APIKeyList[authorization]
		if apiKey == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key"})
			c.Abort()
			return
		}
		rateLimit := s.limiterFor(apiKey)
		if rateLimit == nil {
			c.Next()
			return
		}
		if httpError := tollbooth.LimitByRequest(rateLimit.limit, c.Writer, c.Request); httpError != nil {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	})
	return nil
}
