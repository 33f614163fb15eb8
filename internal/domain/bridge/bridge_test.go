package bridge

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/manifest"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/trust"
)

// stubHost records every mutation so tests can assert on side effects
type stubHost struct {
	mu sync.Mutex

	device      map[string]string
	language    string
	files       map[string]string
	containerID string
	ready       bool
	readyCalls  int

	countrySets   int
	locales       map[string]string
	launchParams  map[string]string
	policies      map[string]string
	keepAlive     map[string]bool
	stageReadies  []string
	closeNotifies []string

	failMutations bool
	panicOnRead   bool
}

func newStubHost() *stubHost {
	return &stubHost{
		device:       map[string]string{},
		files:        map[string]string{},
		locales:      map[string]string{},
		launchParams: map[string]string{},
		policies:     map[string]string{},
		keepAlive:    map[string]bool{},
	}
}

var errStubFailure = errors.New("stub failure")

func (h *stubHost) DeviceInfo(name string) string { return h.device[name] }
func (h *stubHost) SystemLanguage() string        { return h.language }
func (h *stubHost) ContainerAppID() string        { return h.containerID }

func (h *stubHost) ReadFileContent(path string) (string, error) {
	if h.panicOnRead {
		panic("disk on fire")
	}
	content, ok := h.files[path]
	if !ok {
		return "", os.ErrNotExist
	}
	return content, nil
}

func (h *stubHost) SetContainerAppReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
	h.readyCalls++
}

func (h *stubHost) SetCountry() error {
	if h.failMutations {
		return errStubFailure
	}
	h.countrySets++
	return nil
}

func (h *stubHost) SetLocale(appID, tags string) error {
	if h.failMutations {
		return errStubFailure
	}
	h.locales[appID] = tags
	return nil
}

func (h *stubHost) SetLaunchParams(appID, params string) error {
	if h.failMutations {
		return errStubFailure
	}
	h.launchParams[appID] = params
	return nil
}

func (h *stubHost) LaunchParams(appID string) string { return h.launchParams[appID] }

func (h *stubHost) SetLoadErrorPolicy(appID, policy string) error {
	if h.failMutations {
		return errStubFailure
	}
	h.policies[appID] = policy
	return nil
}

func (h *stubHost) SetKeepAlive(appID string, keep bool) error {
	if h.failMutations {
		return errStubFailure
	}
	h.keepAlive[appID] = keep
	return nil
}

func (h *stubHost) StageReady(appID string) error {
	if h.failMutations {
		return errStubFailure
	}
	h.stageReadies = append(h.stageReadies, appID)
	return nil
}

func (h *stubHost) CloseNotify(appID, params string) error {
	if h.failMutations {
		return errStubFailure
	}
	h.closeNotifies = append(h.closeNotifies, appID+":"+params)
	return nil
}

// stubRecorder counts observations per status
type stubRecorder struct {
	mu       sync.Mutex
	statuses map[string]int
	denials  map[string]int
}

func newStubRecorder() *stubRecorder {
	return &stubRecorder{statuses: map[string]int{}, denials: map[string]int{}}
}

func (r *stubRecorder) ObserveBridgeCall(_ string, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[status]++
}

func (r *stubRecorder) ObserveBridgeDenial(capability string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.denials[capability]++
}

func newManifest(t *testing.T, doc string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(doc))
	require.NoError(t, err)
	return m
}

func newBridge(t *testing.T, level string, host *stubHost, opts ...Option) *Bridge {
	t.Helper()
	doc := `{"id": "com.example.app", "trustLevel": "` + level + `", "folderPath": "/apps/example"}`
	return New(newManifest(t, doc), host, opts...)
}

func TestCatalogueCoversPolicyTable(t *testing.T) {
	for _, c := range trust.Capabilities() {
		_, ok := catalogue[c]
		assert.True(t, ok, "capability %s has no handler", c)
	}
	for name := range catalogue {
		_, ok := trust.Minimum(name)
		assert.True(t, ok, "handler %s has no trust minimum", name)
	}
	for _, name := range BrowserControlMessages() {
		_, ok := catalogue[browserControlMessages[name]]
		assert.True(t, ok, "browser control message %s has no handler", name)
	}
}

func TestDispatchUnknownCapability(t *testing.T) {
	rec := newStubRecorder()
	b := newBridge(t, "internal", newStubHost(), WithMetrics(rec))

	_, err := b.Call(context.Background(), "formatDisk")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCapability))
	assert.Equal(t, 1, rec.statuses[StatusUnknown])
}

func TestGetDeviceInfo(t *testing.T) {
	host := newStubHost()
	host.device["ModelName"] = "OLED55"
	b := newBridge(t, "default", host)

	result, err := b.Call(context.Background(), "getDeviceInfo", "ModelName")
	require.NoError(t, err)
	assert.Equal(t, "OLED55", result.Payload)

	result, err = b.Call(context.Background(), "getDeviceInfo", "Missing")
	require.NoError(t, err)
	assert.Equal(t, "", result.Payload)

	_, err = b.Call(context.Background(), "getDeviceInfo")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestCountryPayload(t *testing.T) {
	tests := []struct {
		name  string
		local string
		smart string
	}{
		{name: "plain", local: "US", smart: "KR"},
		{name: "empty", local: "", smart: ""},
		{name: "needs escaping", local: `U"S\`, smart: "<script>\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := newStubHost()
			host.device[PropLocalCountry] = tt.local
			host.device[PropSmartServiceCountry] = tt.smart
			b := newBridge(t, "default", host)

			result, err := b.Call(context.Background(), "country")
			require.NoError(t, err)

			var decoded map[string]string
			require.NoError(t, sonic.UnmarshalString(result.Payload, &decoded))
			assert.Equal(t, map[string]string{
				"country":             tt.local,
				"smartServiceCountry": tt.smart,
			}, decoded)
		})
	}
}

func TestCountryPayloadContainsField(t *testing.T) {
	host := newStubHost()
	host.device[PropLocalCountry] = "US"
	b := newBridge(t, "default", host)

	result, err := b.Call(context.Background(), "country")
	require.NoError(t, err)
	assert.Contains(t, result.Payload, `"country":"US"`)
	assert.Contains(t, result.Payload, `"smartServiceCountry":""`)
}

func TestLocaleStubs(t *testing.T) {
	host := newStubHost()
	host.language = "ko-KR"
	b := newBridge(t, "default", host)
	ctx := context.Background()

	result, err := b.Call(ctx, "locale")
	require.NoError(t, err)
	assert.Equal(t, "ko-KR", result.Payload)

	result, err = b.Call(ctx, "localeRegion")
	require.NoError(t, err)
	assert.Equal(t, "US", result.Payload)

	result, err = b.Call(ctx, "phoneRegion")
	require.NoError(t, err)
	assert.Equal(t, "", result.Payload)

	custom := newBridge(t, "default", host, WithLocaleRegion("GB"))
	result, err = custom.Call(ctx, "localeRegion")
	require.NoError(t, err)
	assert.Equal(t, "GB", result.Payload)
}

func TestGetResource(t *testing.T) {
	host := newStubHost()
	host.files["/apps/example/strings.json"] = `{"hello":"world"}`
	host.files["/abs/file.txt"] = "absolute"
	b := newBridge(t, "default", host)
	ctx := context.Background()

	result, err := b.Call(ctx, "getResource", "strings.json")
	require.NoError(t, err)
	assert.Equal(t, `{"hello":"world"}`, result.Payload)

	result, err = b.Call(ctx, "getResource", "file:///abs/file.txt", "const")
	require.NoError(t, err)
	assert.Equal(t, "absolute", result.Payload)

	result, err = b.Call(ctx, "getResource", "/no/such/file")
	require.NoError(t, err)
	assert.Equal(t, "", result.Payload)

	_, err = b.Call(ctx, "getResource", "")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestReadOnlyQueryRecoversFromHostPanic(t *testing.T) {
	host := newStubHost()
	host.panicOnRead = true
	rec := newStubRecorder()
	b := newBridge(t, "default", host, WithMetrics(rec))

	result, err := b.Call(context.Background(), "getResource", "strings.json")
	require.NoError(t, err)
	assert.Equal(t, "", result.Payload)
	assert.Equal(t, 1, rec.statuses[StatusFallback])
}

func TestSetContainerAppReady(t *testing.T) {
	host := newStubHost()
	host.containerID = "com.example.container"
	b := newBridge(t, "internal", host)
	ctx := context.Background()

	_, err := b.Call(ctx, "setContainerAppReady", "com.example.other")
	require.NoError(t, err)
	assert.False(t, host.ready)
	assert.Equal(t, 0, host.readyCalls)

	_, err = b.Call(ctx, "setContainerAppReady", "com.example.container")
	require.NoError(t, err)
	assert.True(t, host.ready)
	assert.Equal(t, 1, host.readyCalls)
}

func TestSetContainerAppReadyForbiddenBelowInternal(t *testing.T) {
	for _, level := range []string{"default", "trusted", "bogus", "INTERNAL"} {
		t.Run(level, func(t *testing.T) {
			host := newStubHost()
			host.containerID = "com.example.container"
			rec := newStubRecorder()
			b := newBridge(t, level, host, WithMetrics(rec))

			_, err := b.Call(context.Background(), "setContainerAppReady", "com.example.container")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrForbidden))
			assert.False(t, host.ready)
			assert.Equal(t, 0, host.readyCalls)
			assert.Equal(t, 1, rec.denials["setContainerAppReady"])
		})
	}
}

func TestDenialIsLoggedButOpaqueToContent(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	host := newStubHost()
	host.containerID = "com.example.container"
	b := newBridge(t, "default", host, WithLogger(zap.New(core)), WithInstanceID("win-1"))

	msg := NewMessage("setContainerAppReady", "com.example.container")
	resp := b.Handle(context.Background(), msg)

	assert.Equal(t, Response{ID: msg.ID, OK: false}, resp)

	entries := logs.FilterMessage("Capability denied").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "com.example.app", fields["app_id"])
	assert.Equal(t, "win-1", fields["instance_id"])
	assert.Equal(t, "setContainerAppReady", fields["capability"])
	assert.Equal(t, msg.ID, fields["message_id"])
}

func TestHandleFailuresAreIndistinguishable(t *testing.T) {
	host := newStubHost()
	host.failMutations = true
	b := newBridge(t, "default", host)
	ctx := context.Background()

	unknown := b.Handle(ctx, Message{ID: "1", Method: "formatDisk"})
	forbiddenResp := b.Handle(ctx, Message{ID: "1", Method: "keepAlive", Params: []string{"true"}})
	invalid := b.Handle(ctx, Message{ID: "1", Method: "setLoadErrorPolicy", Params: []string{"loud"}})
	failure := b.Handle(ctx, Message{ID: "1", Method: "setCountry"})

	assert.Equal(t, unknown, forbiddenResp)
	assert.Equal(t, unknown, invalid)
	assert.Equal(t, unknown, failure)
	assert.Equal(t, Response{ID: "1"}, unknown)
}

func TestHandleSuccess(t *testing.T) {
	b := newBridge(t, "default", newStubHost())
	resp := b.Handle(context.Background(), Message{ID: "42", Method: "identifier"})
	assert.Equal(t, Response{ID: "42", OK: true, Payload: "com.example.app"}, resp)
}

func TestMutationsValidateBeforeForwarding(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		params  []string
		wantErr error
		check   func(t *testing.T, h *stubHost)
	}{
		{
			name:   "setLocale valid",
			method: "setLocale",
			params: []string{"en-US, ko-KR"},
			check: func(t *testing.T, h *stubHost) {
				assert.Equal(t, "en-US, ko-KR", h.locales["com.example.app"])
			},
		},
		{
			name:    "setLocale invalid tag",
			method:  "setLocale",
			params:  []string{"en-US,!!"},
			wantErr: ErrInvalidArgument,
			check: func(t *testing.T, h *stubHost) {
				assert.Empty(t, h.locales)
			},
		},
		{
			name:    "setLocale empty entry",
			method:  "setLocale",
			params:  []string{"en-US,"},
			wantErr: ErrInvalidArgument,
		},
		{
			name:   "setLaunchParams valid",
			method: "setLaunchParams",
			params: []string{`{"target":"home"}`},
			check: func(t *testing.T, h *stubHost) {
				assert.Equal(t, `{"target":"home"}`, h.launchParams["com.example.app"])
			},
		},
		{
			name:    "setLaunchParams invalid",
			method:  "setLaunchParams",
			params:  []string{`{"target":`},
			wantErr: ErrInvalidArgument,
			check: func(t *testing.T, h *stubHost) {
				assert.Empty(t, h.launchParams)
			},
		},
		{
			name:   "setLoadErrorPolicy event",
			method: "setLoadErrorPolicy",
			params: []string{"event"},
			check: func(t *testing.T, h *stubHost) {
				assert.Equal(t, "event", h.policies["com.example.app"])
			},
		},
		{
			name:    "setLoadErrorPolicy unknown",
			method:  "setLoadErrorPolicy",
			params:  []string{"loud"},
			wantErr: ErrInvalidArgument,
			check: func(t *testing.T, h *stubHost) {
				assert.Empty(t, h.policies)
			},
		},
		{
			name:   "setCountry",
			method: "setCountry",
			check: func(t *testing.T, h *stubHost) {
				assert.Equal(t, 1, h.countrySets)
			},
		},
		{
			name:    "setCountry rejects params",
			method:  "setCountry",
			params:  []string{"US"},
			wantErr: ErrInvalidArgument,
			check: func(t *testing.T, h *stubHost) {
				assert.Equal(t, 0, h.countrySets)
			},
		},
		{
			name:    "setLocale too many params",
			method:  "setLocale",
			params:  []string{"en-US", "ko-KR"},
			wantErr: ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := newStubHost()
			b := newBridge(t, "default", host)

			_, err := b.Call(context.Background(), tt.method, tt.params...)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
			} else {
				require.NoError(t, err)
			}
			if tt.check != nil {
				tt.check(t, host)
			}
		})
	}
}

func TestMutationHostFailure(t *testing.T) {
	host := newStubHost()
	host.failMutations = true
	rec := newStubRecorder()
	b := newBridge(t, "default", host, WithMetrics(rec))

	_, err := b.Call(context.Background(), "setLocale", "en-US")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHostFailure))
	assert.True(t, errors.Is(err, errStubFailure))
	assert.Equal(t, 1, rec.statuses[StatusHostFailure])
}

func TestWindowAccessors(t *testing.T) {
	doc := `{
		"id": "com.example.app",
		"windowGroup": {
			"name": "grp",
			"owner": true,
			"ownerInfo": {"allowAnonymous": true, "layers": [{"name": "base", "z": 1}]},
			"clientInfo": {"layer": "base", "hint": "top"}
		}
	}`
	b := New(newManifest(t, doc), newStubHost())
	ctx := context.Background()

	result, err := b.Call(ctx, "getWindowGroupInfo")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"grp","is_owner":true}`, result.Payload)

	result, err = b.Call(ctx, "getWindowOwnerInfo")
	require.NoError(t, err)
	assert.JSONEq(t, `{"allow_anonymous":true,"layers":{"base":1}}`, result.Payload)

	result, err = b.Call(ctx, "getWindowClientInfo")
	require.NoError(t, err)
	assert.JSONEq(t, `{"layer":"base","hint":"top"}`, result.Payload)

	plain := newBridge(t, "default", newStubHost())
	result, err = plain.Call(ctx, "getWindowOwnerInfo")
	require.NoError(t, err)
	assert.JSONEq(t, `{"allow_anonymous":false,"layers":{}}`, result.Payload)
}

func TestInitializePayload(t *testing.T) {
	host := newStubHost()
	host.language = "en-US"
	host.device[PropLocalCountry] = "US"
	host.launchParams["com.example.app"] = `{"target":"home"}`
	b := newBridge(t, "trusted", host)

	result, err := b.Call(context.Background(), "initialize")
	require.NoError(t, err)

	var state map[string]interface{}
	require.NoError(t, sonic.UnmarshalString(result.Payload, &state))
	assert.Equal(t, `{"target":"home"}`, state["launchParams"])
	assert.Equal(t, "en-US", state["locale"])
	assert.Equal(t, "US", state["localeRegion"])
	assert.Equal(t, "", state["phoneRegion"])
	assert.Equal(t, false, state["isMinimal"])
	assert.Equal(t, "com.example.app", state["identifier"])
	assert.Equal(t, "trusted", state["trustLevel"])
	assert.Equal(t, "/apps/example", state["folderPath"])
	assert.Equal(t, map[string]interface{}{"country": "US", "smartServiceCountry": ""}, state["country"])
}

func TestLifecycleSignals(t *testing.T) {
	host := newStubHost()
	b := newBridge(t, "trusted", host)
	ctx := context.Background()

	_, err := b.Call(ctx, "stageReady")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.app"}, host.stageReadies)

	_, err = b.Call(ctx, "onCloseNotify", "didSetOnCloseCallback")
	require.NoError(t, err)
	_, err = b.Call(ctx, "onCloseNotify")
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.app:didSetOnCloseCallback", "com.example.app:"}, host.closeNotifies)

	_, err = b.Call(ctx, "keepAlive", "true")
	require.NoError(t, err)
	assert.True(t, host.keepAlive["com.example.app"])

	_, err = b.Call(ctx, "keepAlive", "yes")
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	result, err := b.Call(ctx, "launchParams")
	require.NoError(t, err)
	assert.Equal(t, "{}", result.Payload)
}

func TestKeepAliveRequiresTrusted(t *testing.T) {
	host := newStubHost()
	b := newBridge(t, "default", host)

	_, err := b.Call(context.Background(), "keepAlive", "true")
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.Empty(t, host.keepAlive)
}

func TestConcurrentDispatch(t *testing.T) {
	host := newStubHost()
	host.device["ModelName"] = "OLED55"
	b := newBridge(t, "default", host)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := b.Call(context.Background(), "getDeviceInfo", "ModelName")
			assert.NoError(t, err)
			assert.Equal(t, "OLED55", result.Payload)
		}()
	}
	wg.Wait()
}
