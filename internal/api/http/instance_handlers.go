package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/app"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/bridge"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/sandbox"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/shared/utils"
)

// instance resolves the :id path parameter, writing the error response itself
func (h *Handlers) instance(c *gin.Context) (*app.Instance, bool) {
	raw := c.Param("id")
	if !id.IsValidPrefixed(raw, id.InstancePrefix) {
		abort(c, http.StatusBadRequest, "invalid instance id")
		return nil, false
	}

	inst, ok := h.manager.Get(id.InstanceID(raw))
	if !ok {
		abort(c, http.StatusNotFound, app.ErrNotFound.Error())
		return nil, false
	}
	return inst, true
}

// ListInstances lists all running instances
func (h *Handlers) ListInstances(c *gin.Context) {
	list := h.manager.List()
	infos := make([]types.Instance, 0, len(list))
	for _, inst := range list {
		infos = append(infos, inst.Info())
	}

	c.JSON(http.StatusOK, gin.H{
		"instances": infos,
		"stats":     h.manager.Stats(),
	})
}

func (h *Handlers) GetInstance(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"instance": inst.Info(),
		"launches": inst.Launches(),
	})
}

// CloseInstance destroys an instance
func (h *Handlers) CloseInstance(c *gin.Context) {
	done := h.hm.TrackInstanceOperation("close")

	inst, ok := h.instance(c)
	if !ok {
		done("not_found")
		return
	}
	if !h.manager.Close(inst.ID()) {
		done("not_found")
		abort(c, http.StatusNotFound, app.ErrNotFound.Error())
		return
	}

	done("success")
	c.Status(http.StatusNoContent)
}

// CallInstance sends one diagnostic message through the instance's bridge.
// The response is exactly what hosted content would see.
func (h *Handlers) CallInstance(c *gin.Context) {
	inst, ok := h.instance(c)
	if !ok {
		return
	}

	var req types.CallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid call request")
		return
	}
	for i, param := range req.Params {
		if len(param) > utils.MaxParamSize {
			abort(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("param %d exceeds %d bytes", i, utils.MaxParamSize))
			return
		}
	}

	var resp bridge.Response
	h.trace(c.Request.Context(), "bridge.call", func(ctx context.Context, span *tracing.Span) error {
		span.SetTag("app_id", inst.Manifest().ID())
		span.SetTag("capability", req.Method)

		resp = inst.Call(ctx, req.Method, req.Params...)
		if !resp.OK {
			span.SetTag("outcome", "rejected")
		}
		return nil
	})

	c.JSON(http.StatusOK, resp)
}

// EvalInstance runs a script in an inspectable instance's script context
func (h *Handlers) EvalInstance(c *gin.Context) {
	done := h.hm.TrackInstanceOperation("eval")

	inst, ok := h.instance(c)
	if !ok {
		done("not_found")
		return
	}

	var req types.EvalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		done("invalid")
		abort(c, http.StatusBadRequest, "invalid eval request")
		return
	}
	if len(req.Script) > utils.MaxScriptSize {
		done("invalid")
		abort(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("script exceeds %d bytes", utils.MaxScriptSize))
		return
	}

	var result *sandbox.Result
	err := h.trace(c.Request.Context(), "sandbox.eval", func(ctx context.Context, span *tracing.Span) error {
		span.SetTag("app_id", inst.Manifest().ID())
		var err error
		result, err = inst.Eval(ctx, req.Script)
		return err
	})

	if err != nil {
		status, outcome := evalStatus(err)
		done(outcome)
		if status >= http.StatusInternalServerError {
			h.log.Warn("Script evaluation failed",
				zap.String("instance_id", inst.ID().String()),
				zap.Error(err),
			)
		}
		abort(c, status, err.Error())
		return
	}

	done("success")
	resp := types.EvalResponse{Result: result.Value}
	for _, entry := range result.Console {
		resp.Console = append(resp.Console, entry.Level+": "+entry.Message)
	}
	c.JSON(http.StatusOK, resp)
}

func evalStatus(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrNotInspectable):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, app.ErrNoSandbox):
		return http.StatusNotImplemented, "no_sandbox"
	case errors.Is(err, app.ErrInstanceClosed), errors.Is(err, sandbox.ErrClosed):
		return http.StatusGone, "closed"
	case errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTooManyRequests):
		return http.StatusServiceUnavailable, "suspended"
	case errors.Is(err, sandbox.ErrInterrupted):
		return http.StatusRequestTimeout, "timeout"
	default:
		return http.StatusUnprocessableEntity, "script_error"
	}
}

// trace runs fn in a span when a tracer is configured
func (h *Handlers) trace(ctx context.Context, name string, fn func(ctx context.Context, span *tracing.Span) error) error {
	if h.tracer == nil {
		span := &tracing.Span{Tags: map[string]string{}}
		return fn(ctx, span)
	}
	return h.tracer.Trace(ctx, name, fn)
}
