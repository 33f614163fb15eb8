package sandbox

import (
	"github.com/bytedance/sonic"
	"github.com/dop251/goja"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/bridge"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/trust"
)

// GlobalName is the script-visible name of the bridge object
const GlobalName = "PalmSystem"

// installPalmSystem must be called with r.mu held
func (r *Runtime) installPalmSystem(b *bridge.Bridge) error {
	palm := r.vm.NewObject()
	for _, c := range trust.Capabilities() {
		if err := palm.Set(string(c), r.makeBridgeFunc(b, string(c))); err != nil {
			return err
		}
	}
	return r.vm.Set(GlobalName, palm)
}

func (r *Runtime) makeBridgeFunc(b *bridge.Bridge, method string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		params := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			params[i] = stringify(arg)
		}

		resp := b.Handle(r.ctx, bridge.NewMessage(method, params...))
		if !resp.OK {
			return goja.Null()
		}
		return r.vm.ToValue(resp.Payload)
	}
}

// stringify converts a script argument into a bridge parameter.
// Objects become JSON text; undefined and null become "".
func stringify(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	if _, isObject := v.(*goja.Object); isObject {
		if out, err := sonic.ConfigStd.MarshalToString(v.Export()); err == nil {
			return out
		}
	}
	return v.String()
}
