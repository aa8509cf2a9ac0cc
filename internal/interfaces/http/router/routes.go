package router

import (
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/vendfleet/backend/internal/interfaces/http/handler"
)

// ExpiryRoutes mounts the expiry endpoints under /expiry.
// guards run on the commit route only, after authentication.
func ExpiryRoutes(h *handler.ExpiryHandler, guards ...gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("expiry", "/expiry")
	g.GET("/upcoming", h.GetUpcoming)
	g.GET("/runs/:run_id", h.GetForRun)
	g.POST("/runs/:run_id/commit", slices.Concat(guards, []gin.HandlerFunc{h.Commit})...)
	return g
}

// SystemRoutes mounts the system endpoints under /system
func SystemRoutes(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").GET("/info", h.GetSystemInfo)
}
