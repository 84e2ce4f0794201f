package status

import (
	"net/http"
	"time"

	"github.com/danmuck/hublink/internal/app"
	"github.com/danmuck/hublink/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Source exposes the current link state to the status routes.
type Source interface {
	Connected() bool
	Registered() []app.ServiceInfo
	Discovered() []app.ServiceInfo
}

// ServiceView is the JSON form of one service.
type ServiceView struct {
	Handle  uint8  `json:"handle"`
	Name    string `json:"name"`
	UUID    string `json:"uuid"`
	Version string `json:"version"`
}

type servicesResponse struct {
	Registered []ServiceView `json:"registered"`
	Discovered []ServiceView `json:"discovered"`
}

func views(in []app.ServiceInfo) []ServiceView {
	out := make([]ServiceView, 0, len(in))
	for _, svc := range in {
		out = append(out, ServiceView{
			Handle:  uint8(svc.Handle),
			Name:    svc.Name,
			UUID:    app.UUIDString(svc.UUID),
			Version: svc.Version.String(),
		})
	}
	return out
}

// NewRouter builds the status API for node.
func NewRouter(node string, src Source, corsOrigins []string, logger zerolog.Logger) *gin.Engine {
	observability.RegisterMetrics()
	startedAt := time.Now()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.StatusAccess(node, logger))
	if len(corsOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins: corsOrigins,
			AllowMethods: []string{"GET"},
			AllowHeaders: []string{"Origin", "Content-Type"},
			MaxAge:       12 * time.Hour,
		}))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"node":      node,
			"connected": src.Connected(),
			"uptime":    time.Since(startedAt).String(),
		})
	})
	r.GET("/services", func(c *gin.Context) {
		c.JSON(http.StatusOK, servicesResponse{
			Registered: views(src.Registered()),
			Discovered: views(src.Discovered()),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
