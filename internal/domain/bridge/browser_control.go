package bridge

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/trust"
)

// browserControlMessages are the inner operations reachable through
// handleBrowserControlMessage. Each keeps its own minimum trust level.
var browserControlMessages = map[string]trust.Capability{
	"initialize":           trust.CapInitialize,
	"country":              trust.CapCountry,
	"locale":               trust.CapLocale,
	"localeRegion":         trust.CapLocaleRegion,
	"phoneRegion":          trust.CapPhoneRegion,
	"identifier":           trust.CapIdentifier,
	"trustLevel":           trust.CapTrustLevel,
	"isMinimal":            trust.CapIsMinimal,
	"launchParams":         trust.CapLaunchParams,
	"setLaunchParams":      trust.CapSetLaunchParams,
	"setLoadErrorPolicy":   trust.CapSetLoadErrorPolicy,
	"setCountry":           trust.CapSetCountry,
	"setLocale":            trust.CapSetLocale,
	"setContainerAppReady": trust.CapSetContainerAppReady,
	"stageReady":           trust.CapStageReady,
	"onCloseNotify":        trust.CapOnCloseNotify,
	"keepAlive":            trust.CapKeepAlive,
}

// BrowserControlMessages lists the inner messages this runtime recognizes, sorted
func BrowserControlMessages() []string {
	out := make([]string, 0, len(browserControlMessages))
	for name := range browserControlMessages {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func handleBrowserControlMessage(ctx context.Context, b *Bridge, params []string) (Result, error) {
	name, rest := params[0], params[1:]

	target, ok := browserControlMessages[name]
	if !ok {
		b.log.Debug("Unhandled browser control message", zap.String("message", name))
		return Result{Unhandled: true}, nil
	}

	result, status, err := b.invoke(ctx, catalogue[target], "", rest)
	if status == StatusFallback {
		return result, nil
	}
	return result, err
}
