package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zypin-testing/zypin-core/internal/supervisor"
)

// StatusSource is the one read the service exposes. In practice this is the
// supervisor; tests plug in a fixed snapshot.
type StatusSource interface {
	Status() supervisor.Snapshot
}

// Router provides the embeddable read-only HTTP surface of the supervisor.
// Endpoints:
//
//	GET {basePath}/status  -> {"running": N, "packages": [{name,pid,startTime}...]}
//	GET {basePath}/health  -> {"ok": true}
//
// The status payload is a snapshot; liveness of the listed pids is not
// re-verified here.
type Router struct {
	src      StatusSource
	basePath string
}

// NewRouter constructs a Router with a configurable basePath, e.g. "/api".
func NewRouter(src StatusSource, basePath string) *Router {
	return &Router{src: src, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server or mux.
func (r *Router) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.GET("/health", r.handleHealth)
	return g
}

func (r *Router) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, r.src.Status())
}

type okResp struct {
	OK bool `json:"ok"`
}

func (r *Router) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, okResp{OK: true})
}

// sanitizeBase normalizes a base path to "" or "/x/y" with no trailing slash.
func sanitizeBase(base string) string {
	base = strings.TrimSpace(base)
	if base == "" || base == "/" {
		return ""
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return strings.TrimRight(base, "/")
}
