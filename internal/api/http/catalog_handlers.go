package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/app"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/manifest"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/shared/utils"
)

// ListCatalog lists installed applications
func (h *Handlers) ListCatalog(c *gin.Context) {
	entries := h.catalog.List()
	c.JSON(http.StatusOK, gin.H{
		"apps":  entries,
		"count": len(entries),
	})
}

// GetCatalogApp returns the index entry and the full manifest view
func (h *Handlers) GetCatalogApp(c *gin.Context) {
	appID := c.Param("appId")
	if err := utils.ValidateAppID(appID); err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.catalog.Entry(appID)
	if err != nil {
		abort(c, http.StatusNotFound, "application not found")
		return
	}
	m, ok := h.catalog.Lookup(appID)
	if !ok {
		abort(c, http.StatusNotFound, "application descriptor unavailable")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entry":    entry,
		"manifest": m,
	})
}

// RescanCatalog walks the install root again
func (h *Handlers) RescanCatalog(c *gin.Context) {
	done := h.hm.TrackCatalogOperation("rescan")

	report, err := h.catalog.Scan(c.Request.Context())
	if err != nil {
		done("error")
		h.log.Error("Catalog rescan failed", zap.Error(err))
		abort(c, http.StatusInternalServerError, err.Error())
		return
	}

	done("success")
	c.JSON(http.StatusOK, report)
}

// LaunchApp launches an installed application, or delivers the launch to
// its running instance
func (h *Handlers) LaunchApp(c *gin.Context) {
	done := h.hm.TrackCatalogOperation("launch")
	appID := c.Param("appId")

	if err := utils.ValidateAppID(appID); err != nil {
		done("invalid")
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	var req types.LaunchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			done("invalid")
			abort(c, http.StatusBadRequest, "invalid launch request")
			return
		}
	}
	if req.Params != "" {
		if err := utils.ValidateJSONDocument(req.Params, utils.MaxJSONSize); err != nil {
			done("invalid")
			abort(c, http.StatusBadRequest, "launch params: "+err.Error())
			return
		}
	}

	if err := utils.ValidateDisplayAffinity(req.DisplayAffinity); err != nil {
		done("invalid")
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	m, ok := h.catalog.Lookup(appID)
	if !ok {
		done("not_found")
		abort(c, http.StatusNotFound, "application not found")
		return
	}

	inst, reused, err := h.manager.Launch(c.Request.Context(), m, app.LaunchOptions{
		Params:          req.Params,
		DisplayAffinity: req.DisplayAffinity,
	})
	if err != nil {
		if errors.Is(err, manifest.ErrDisplayOutOfRange) {
			done("invalid")
			abort(c, http.StatusBadRequest, err.Error())
			return
		}
		done("error")
		h.log.Error("Launch failed", zap.String("app_id", appID), zap.Error(err))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			abort(c, http.StatusServiceUnavailable, "launch cancelled")
			return
		}
		abort(c, http.StatusInternalServerError, "launch failed")
		return
	}

	status := http.StatusCreated
	if reused {
		status = http.StatusOK
	}
	done("success")
	c.JSON(status, gin.H{
		"instance": inst.Info(),
		"reused":   reused,
		"launches": inst.Launches(),
	})
}
