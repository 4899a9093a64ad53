// Package adminapi is a small gin-based debug surface for a running
// replserver.Host: a /metrics scrape endpoint, a /healthz liveness
// check, and a read-only /owners/:id/visible probe useful when poking
// at a deployment from the outside. It never touches World.Write or
// World.Read — those stay on whatever transport the real client uses.
package adminapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/replicad/internal/logging"
	"github.com/annel0/replicad/internal/replserver"
)

// Server wraps a gin.Engine bound to a single Host.
type Server struct {
	router *gin.Engine
	host   *replserver.Host
	stats  *processStats
}

// New builds the router and registers its routes against host.
func New(host *replserver.Host) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s := &Server{router: router, host: host, stats: newProcessStats()}
	router.GET("/healthz", s.handleHealthz)
	router.GET("/owners/:id/visible", s.handleVisible)
	return s
}

// Run blocks serving on addr (e.g. ":8090").
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) handleHealthz(c *gin.Context) {
	cpuPct, err := s.stats.cpuPercent()
	if err != nil {
		cpuPct = 0
	}
	c.JSON(http.StatusOK, gin.H{
		"entities":       s.host.World.Count(),
		"uptime":         s.stats.uptime().String(),
		"cpu_percent":    cpuPct,
		"log_components": logging.GetLoggerManager().ListComponents(),
	})
}

// handleVisible reports what World.Query currently returns for an
// owner, without consuming a Write cursor or snapshot slot — a
// read-only peek for debugging visibility rules.
func (s *Server) handleVisible(c *gin.Context) {
	ownerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid owner id"})
		return
	}

	visible, overflow, status := s.host.World.Query(ownerID, 0)
	if status.IsError() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": status.String()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"owner_id": ownerID,
		"visible":  visible,
		"overflow": overflow,
	})
}

// requestLogger is a gin middleware logging method, path, status and
// latency for every admin request through the adminapi component
// logger.
func requestLogger() gin.HandlerFunc {
	log := logging.GetAdminLogger()
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		log.Info("%s %s %d %s", method, path, c.Writer.Status(), time.Since(start))
	}
}
