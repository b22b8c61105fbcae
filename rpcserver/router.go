package rpcserver

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/didip/tollbooth/v7/limiter"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rs/zerolog"
	"github.com/sat20-labs/sendmany/config"
	"github.com/sat20-labs/sendmany/metrics"
	"github.com/sat20-labs/sendmany/rpcserver/base"
	"github.com/sat20-labs/sendmany/rpcserver/sendmany"
)

const (
	STRICT_TRANSPORT_SECURITY   = "strict-transport-security"
	CONTENT_SECURITY_POLICY     = "content-security-policy"
	VARY                        = "vary"
	ACCESS_CONTROL_ALLOW_ORIGIN = "access-control-allow-origin"
)

type RateLimit struct {
	limit *limiter.Limiter
}

type Rpc struct {
	basicService    *base.Service
	sendmanyService *sendmany.Service

	api         *config.API
	apiLimitMap sync.Map
}

func NewRpc(basic *base.Service, send *sendmany.Service) *Rpc {
	return &Rpc{
		basicService:    basic,
		sendmanyService: send,
	}
}

func logWriter(rpcLogPath string) (io.Writer, error) {
	var writers []io.Writer
	if rpcLogPath != "" {
		exePath, _ := os.Executable()
		executableName := filepath.Base(exePath)
		if strings.Contains(executableName, "debug") {
			executableName = "debug"
		}
		executableName += ".rpc"
		fileHook, err := rotatelogs.New(
			rpcLogPath+"/"+executableName+".%Y%m%d%H%M.log",
			rotatelogs.WithLinkName(rpcLogPath+"/"+executableName+".log"),
			rotatelogs.WithMaxAge(7*24*time.Hour),
			rotatelogs.WithRotationTime(24*time.Hour),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create RotateFile hook, error %s", err)
		}
		writers = append(writers, fileHook)
	}
	writers = append(writers, os.Stderr)
	return io.MultiWriter(writers...), nil
}

func (s *Rpc) engine(rpcProxy string, out io.Writer, apiConf *config.API) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.SetLogger(
		logger.WithWriter(out),
		logger.WithLogger(logger.Fn(func(c *gin.Context, l zerolog.Logger) zerolog.Logger {
			if c.Request.Header["Authorization"] == nil {
				return l
			}
			return l.With().
				Str("Authorization", c.Request.Header["Authorization"][0]).
				Logger()
		})),
	))
	r.Use(metrics.HTTP)

	corsConf := cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		MaxAge:       12 * time.Hour,
	}
	corsConf.OptionsResponseStatusCode = 200
	r.Use(cors.New(corsConf))

	s.initApiConf(apiConf)
	if err := s.applyApiConf(r, rpcProxy); err != nil {
		return nil, err
	}

	// common header
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set(VARY, "Origin")
		c.Writer.Header().Add(VARY, "Access-Control-Request-Method")
		c.Writer.Header().Add(VARY, "Access-Control-Request-Headers")

		c.Writer.Header().Set(
			CONTENT_SECURITY_POLICY,
			"default-src 'self'",
		)
		c.Writer.Header().Set(
			STRICT_TRANSPORT_SECURITY,
			"max-age=31536000; includeSubDomains; preload",
		)
		c.Writer.Header().Set(
			ACCESS_CONTROL_ALLOW_ORIGIN,
			"*",
		)
		c.Next()
	})

	r.GET(strings.TrimSuffix(rpcProxy, "/")+"/metrics", metrics.Handler())
	s.basicService.InitRouter(r, rpcProxy)
	s.sendmanyService.InitRouter(r, rpcProxy)
	return r, nil
}

func (s *Rpc) Start(rpcUrl, rpcProxy, rpcLogPath string, apiConf *config.API) error {
	out, err := logWriter(rpcLogPath)
	if err != nil {
		return err
	}
	gin.DefaultWriter = out
	r, err := s.engine(rpcProxy, out, apiConf)
	if err != nil {
		return err
	}

	parts := strings.Split(rpcUrl, ":")
	var port string
	if len(parts) < 2 {
		rpcUrl += ":80"
		port = "80"
	} else {
		port = parts[1]
	}

	if err := checkPort(port); err != nil {
		return err
	}

	go r.Run(rpcUrl)
	return nil
}

func checkPort(port string) error {
	addr := fmt.Sprintf(":%s", port)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %s is in use: %v", port, err)
	}
	l.Close()
	return nil
}
