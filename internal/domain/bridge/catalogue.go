package bridge

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/trust"
)

// Device property names read by country()
const (
	PropLocalCountry        = "LocalCountry"
	PropSmartServiceCountry = "SmartServiceCountry"
)

// Load-error policies accepted by setLoadErrorPolicy
const (
	LoadErrorPolicyDefault = "default"
	LoadErrorPolicyEvent   = "event"
)

const unbounded = -1

type handler func(ctx context.Context, b *Bridge, params []string) (Result, error)

// capability is one catalogue entry. The minimum trust level lives in the
// trust package's static table.
type capability struct {
	name     trust.Capability
	minArgs  int
	maxArgs  int
	validate func(params []string) error
	handler  handler
	readOnly bool
	fallback string
}

func (c capability) check(params []string) error {
	if len(params) < c.minArgs || (c.maxArgs != unbounded && len(params) > c.maxArgs) {
		return invalidArgument(string(c.name), fmt.Sprintf("got %d params", len(params)))
	}
	if c.validate != nil {
		if err := c.validate(params); err != nil {
			return invalidArgument(string(c.name), err.Error())
		}
	}
	return nil
}

// catalogue is filled in init because browser control refers back to it
var catalogue map[trust.Capability]capability

func init() {
	entries := []capability{
		{name: trust.CapGetDeviceInfo, minArgs: 1, maxArgs: 1, handler: getDeviceInfo, readOnly: true},
		{name: trust.CapGetResource, minArgs: 1, maxArgs: 2, validate: nonEmptyFirst, handler: getResource, readOnly: true},
		{name: trust.CapCountry, handler: country, readOnly: true, fallback: `{"country":"","smartServiceCountry":""}`},
		{name: trust.CapLocale, handler: locale, readOnly: true},
		{name: trust.CapLocaleRegion, handler: localeRegion, readOnly: true},
		{name: trust.CapPhoneRegion, handler: phoneRegion, readOnly: true},
		{name: trust.CapSetContainerAppReady, minArgs: 1, maxArgs: 1, validate: nonEmptyFirst, handler: setContainerAppReady},
		{name: trust.CapSetCountry, handler: setCountry},
		{name: trust.CapSetLocale, minArgs: 1, maxArgs: 1, validate: validLocales, handler: setLocale},
		{name: trust.CapSetLaunchParams, minArgs: 1, maxArgs: 1, validate: validJSON, handler: setLaunchParams},
		{name: trust.CapSetLoadErrorPolicy, minArgs: 1, maxArgs: 1, validate: validLoadErrorPolicy, handler: setLoadErrorPolicy},
		{name: trust.CapHandleBrowserControlMessage, minArgs: 1, maxArgs: unbounded, validate: nonEmptyFirst, handler: handleBrowserControlMessage},
		{name: trust.CapGetWindowGroupInfo, handler: getWindowGroupInfo, readOnly: true, fallback: "{}"},
		{name: trust.CapGetWindowOwnerInfo, handler: getWindowOwnerInfo, readOnly: true, fallback: "{}"},
		{name: trust.CapGetWindowClientInfo, handler: getWindowClientInfo, readOnly: true, fallback: "{}"},
		{name: trust.CapInitialize, handler: initialize, readOnly: true, fallback: "{}"},
		{name: trust.CapIdentifier, handler: identifier, readOnly: true},
		{name: trust.CapTrustLevel, handler: trustLevel, readOnly: true},
		{name: trust.CapIsMinimal, handler: isMinimal, readOnly: true, fallback: "false"},
		{name: trust.CapLaunchParams, handler: launchParams, readOnly: true, fallback: "{}"},
		{name: trust.CapStageReady, handler: stageReady},
		{name: trust.CapOnCloseNotify, maxArgs: 1, handler: onCloseNotify},
		{name: trust.CapKeepAlive, minArgs: 1, maxArgs: 1, validate: validFlag, handler: keepAlive},
	}

	catalogue = make(map[trust.Capability]capability, len(entries))
	for _, e := range entries {
		catalogue[e.name] = e
	}
}

func payload(s string) (Result, error) {
	return Result{Payload: s}, nil
}

func encode(v interface{}) (Result, error) {
	out, err := sonic.ConfigStd.MarshalToString(v)
	if err != nil {
		return Result{}, err
	}
	return Result{Payload: out}, nil
}

// Queries

func getDeviceInfo(_ context.Context, b *Bridge, params []string) (Result, error) {
	return payload(b.host.DeviceInfo(params[0]))
}

// getResource reads a file relative to the application's folder. A missing
// resource is not an error to the caller; it yields an empty payload.
func getResource(_ context.Context, b *Bridge, params []string) (Result, error) {
	path := strings.TrimPrefix(params[0], "file://")
	if !filepath.IsAbs(path) && b.manifest.FolderPath() != "" {
		path = filepath.Join(b.manifest.FolderPath(), path)
	}

	content, err := b.host.ReadFileContent(path)
	if err != nil {
		b.log.Warn("Failed to read resource", zap.String("path", path), zap.Error(err))
		return payload("")
	}
	return payload(content)
}

type countryInfo struct {
	Country             string `json:"country"`
	SmartServiceCountry string `json:"smartServiceCountry"`
}

func currentCountry(b *Bridge) countryInfo {
	return countryInfo{
		Country:             b.host.DeviceInfo(PropLocalCountry),
		SmartServiceCountry: b.host.DeviceInfo(PropSmartServiceCountry),
	}
}

func country(_ context.Context, b *Bridge, _ []string) (Result, error) {
	return encode(currentCountry(b))
}

func locale(_ context.Context, b *Bridge, _ []string) (Result, error) {
	return payload(b.host.SystemLanguage())
}

// localeRegion is a fixed value per runtime, not derived from the device
func localeRegion(_ context.Context, b *Bridge, _ []string) (Result, error) {
	return payload(b.localeRegion)
}

// phoneRegion is intentionally always empty
func phoneRegion(context.Context, *Bridge, []string) (Result, error) {
	return payload("")
}

func getWindowGroupInfo(_ context.Context, b *Bridge, _ []string) (Result, error) {
	return encode(b.manifest.WindowGroupInfo())
}

func getWindowOwnerInfo(_ context.Context, b *Bridge, _ []string) (Result, error) {
	return encode(b.manifest.WindowOwnerInfo())
}

func getWindowClientInfo(_ context.Context, b *Bridge, _ []string) (Result, error) {
	return encode(b.manifest.WindowClientInfo())
}

func identifier(_ context.Context, b *Bridge, _ []string) (Result, error) {
	return payload(b.manifest.ID())
}

func trustLevel(_ context.Context, b *Bridge, _ []string) (Result, error) {
	return payload(b.manifest.TrustLevel().String())
}

func isMinimal(context.Context, *Bridge, []string) (Result, error) {
	return payload("false")
}

func currentLaunchParams(b *Bridge) string {
	params := b.host.LaunchParams(b.manifest.ID())
	if params == "" {
		return "{}"
	}
	return params
}

func launchParams(_ context.Context, b *Bridge, _ []string) (Result, error) {
	return payload(currentLaunchParams(b))
}

type initialState struct {
	LaunchParams string      `json:"launchParams"`
	Country      countryInfo `json:"country"`
	Locale       string      `json:"locale"`
	LocaleRegion string      `json:"localeRegion"`
	PhoneRegion  string      `json:"phoneRegion"`
	IsMinimal    bool        `json:"isMinimal"`
	Identifier   string      `json:"identifier"`
	TrustLevel   string      `json:"trustLevel"`
	FolderPath   string      `json:"folderPath"`
}

// initialize returns everything a page needs at startup in one payload
func initialize(_ context.Context, b *Bridge, _ []string) (Result, error) {
	return encode(initialState{
		LaunchParams: currentLaunchParams(b),
		Country:      currentCountry(b),
		Locale:       b.host.SystemLanguage(),
		LocaleRegion: b.localeRegion,
		PhoneRegion:  "",
		IsMinimal:    false,
		Identifier:   b.manifest.ID(),
		TrustLevel:   b.manifest.TrustLevel().String(),
		FolderPath:   b.manifest.FolderPath(),
	})
}

// Mutations

// setContainerAppReady only acts when appID names the container application.
// Any other id is ignored without error.
func setContainerAppReady(_ context.Context, b *Bridge, params []string) (Result, error) {
	appID := params[0]
	if appID != b.host.ContainerAppID() {
		b.log.Debug("Ignoring container ready for non-container app", zap.String("target", appID))
		return payload("")
	}
	b.host.SetContainerAppReady(true)
	return payload("")
}

func setCountry(_ context.Context, b *Bridge, _ []string) (Result, error) {
	return Result{}, b.host.SetCountry()
}

func setLocale(_ context.Context, b *Bridge, params []string) (Result, error) {
	return Result{}, b.host.SetLocale(b.manifest.ID(), params[0])
}

func setLaunchParams(_ context.Context, b *Bridge, params []string) (Result, error) {
	return Result{}, b.host.SetLaunchParams(b.manifest.ID(), params[0])
}

func setLoadErrorPolicy(_ context.Context, b *Bridge, params []string) (Result, error) {
	return Result{}, b.host.SetLoadErrorPolicy(b.manifest.ID(), params[0])
}

func stageReady(_ context.Context, b *Bridge, _ []string) (Result, error) {
	return Result{}, b.host.StageReady(b.manifest.ID())
}

func onCloseNotify(_ context.Context, b *Bridge, params []string) (Result, error) {
	var reason string
	if len(params) > 0 {
		reason = params[0]
	}
	return Result{}, b.host.CloseNotify(b.manifest.ID(), reason)
}

func keepAlive(_ context.Context, b *Bridge, params []string) (Result, error) {
	return Result{}, b.host.SetKeepAlive(b.manifest.ID(), params[0] == "true")
}

// Validators

func nonEmptyFirst(params []string) error {
	if strings.TrimSpace(params[0]) == "" {
		return errors.New("empty parameter")
	}
	return nil
}

// validLocales accepts a comma-separated list of BCP 47 tags
func validLocales(params []string) error {
	tags := strings.Split(params[0], ",")
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			return errors.New("empty locale tag")
		}
		if _, err := language.Parse(tag); err != nil {
			return fmt.Errorf("locale %q: %w", tag, err)
		}
	}
	return nil
}

func validJSON(params []string) error {
	if !sonic.ConfigStd.Valid([]byte(params[0])) {
		return errors.New("not valid json")
	}
	return nil
}

func validLoadErrorPolicy(params []string) error {
	switch params[0] {
	case LoadErrorPolicyDefault, LoadErrorPolicyEvent:
		return nil
	default:
		return fmt.Errorf("unknown policy %q", params[0])
	}
}

func validFlag(params []string) error {
	switch params[0] {
	case "true", "false":
		return nil
	default:
		return errors.New("expected true or false")
	}
}
