package manifest

import (
	"math"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/trust"
)

const defaultWindowType = "card"
const defaultVersion = "1.0.0"

// Option configures a parse
type Option func(*parser)

// WithLogger routes field-level diagnostics to logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *parser) {
		if logger != nil {
			p.log = logger
		}
	}
}

// WithFolderPath sets the install folder used when the descriptor omits folderPath
func WithFolderPath(dir string) Option {
	return func(p *parser) {
		p.folderPath = dir
	}
}

type parser struct {
	log        *zap.Logger
	folderPath string
	doc        Document
}

// Parse decodes a JSON descriptor into a Manifest
func Parse(data []byte, opts ...Option) (*Manifest, error) {
	return ParseFormat(data, FormatJSON, opts...)
}

// ParseFormat decodes a descriptor in the given format into a Manifest.
// Only a missing id or an undecodable document is an error.
func ParseFormat(data []byte, format Format, opts ...Option) (*Manifest, error) {
	p := &parser{log: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}

	doc, err := Decode(data, format)
	if err != nil {
		return nil, malformed(format, err)
	}
	p.doc = doc

	id, ok := doc["id"].(string)
	if !ok || id == "" {
		return nil, missingField("id", format)
	}
	p.log = p.log.With(zap.String("app_id", id))

	return p.build(id), nil
}

func (p *parser) build(id string) *Manifest {
	m := fields{
		id:                           id,
		title:                        p.str("title", ""),
		entryPoint:                   p.str("main", ""),
		icon:                         p.str("icon", ""),
		windowClass:                  p.windowClass(),
		surfaceRole:                  p.integer("surfaceRole", 0),
		panelType:                    p.integer("panelType", 0),
		defaultWindowType:            p.str("defaultWindowType", defaultWindowType),
		locationHint:                 p.str("locationHint", ""),
		subType:                      p.str("subType", ""),
		vendorExtension:              p.raw("vendorExtension"),
		transparent:                  p.boolean("transparent", false),
		handlesRelaunch:              p.boolean("handlesRelaunch", false),
		inspectable:                  p.boolean("inspectable", false),
		customPlugin:                 p.boolean("customPlugin", false),
		useNativeScroll:              p.boolean("useNativeScroll", false),
		usePrerendering:              p.boolean("usePrerendering", false),
		doNotTrack:                   p.boolean("doNotTrack", false),
		handleExitKey:                p.boolean("handleExitKey", false),
		supportsAudioGuidance:        p.boolean("supportsAudioGuidance", false),
		enableBackgroundRun:          p.boolean("enableBackgroundRun", false),
		allowVideoCapture:            p.boolean("allowVideoCapture", false),
		allowAudioCapture:            p.boolean("allowAudioCapture", false),
		useUnlimitedMediaPolicy:      p.boolean("useUnlimitedMediaPolicy", false),
		disallowScrollingInMainFrame: p.boolean("disallowScrollingInMainFrame", true),
		useVirtualKeyboard:           p.boolean("useVirtualKeyboard", true),
		enyoBundleVersion:            p.str("enyoBundleVersion", ""),
		supportedEnyoBundleVersions:  p.versionSet("supportedEnyoBundleVersions"),
		enyoVersion:                  p.str("enyoVersion", ""),
		version:                      p.str("version", defaultVersion),
		v8SnapshotPath:               p.str("v8SnapshotFile", ""),
		v8ExtraFlags:                 p.str("v8ExtraFlags", ""),
		deeplinkingParams:            p.str("deeplinkingParams", ""),
		keyFilterTable:               p.keyFilterTable(),
		mediaPreferences:             p.raw("mediaExtension"),
		folderPath:                   p.str("folderPath", p.folderPath),
	}

	m.trustDeclared = p.str("trustLevel", trust.Default.String())
	m.trustLevel = p.trustLevel(m.trustDeclared)

	m.widthOverride = p.positiveInt("widthOverride")
	m.heightOverride = p.positiveInt("heightOverride")
	if timeout, ok := p.number("networkStableTimeout"); ok && timeout > 0 {
		m.networkStableTimeout = some(timeout)
	}
	if ms, ok := p.positiveInt("delayMsForLaunchOptimization").get(); ok {
		m.launchOptimDelay = some(time.Duration(ms) * time.Millisecond)
	}
	if ms, ok := p.positiveInt("customSuspendDOMTime").get(); ok {
		m.customSuspendDOMTime = some(time.Duration(ms) * time.Millisecond)
	}

	m.declaredDisplay = noDisplay
	if d, ok := p.intValue("displayAffinity"); ok && d >= 0 {
		m.declaredDisplay = int32(d)
	}
	m.declaredBackHistoryOff = p.boolean("backHistoryAPIDisabled", false)

	p.windowGroup(&m)

	return newManifest(m)
}

func (p *parser) trustLevel(declared string) trust.Level {
	level, ok := trust.ParseLevel(declared)
	if !ok {
		p.log.Warn("Unrecognized trust level, downgrading",
			zap.String("declared", declared),
			zap.Stringer("effective", level),
		)
	}
	return level
}

func (p *parser) windowClass() WindowClass {
	class := p.object(p.doc, "class")
	if hidden, _ := class["hidden"].(bool); hidden {
		return WindowClassHidden
	}
	return WindowClassNormal
}

// windowGroup fills group, owner and client info from the windowGroup object.
// A missing object leaves the all-default variants in place.
func (p *parser) windowGroup(m *fields) {
	m.windowOwnerInfo.Layers = map[string]int{}

	group := p.object(p.doc, "windowGroup")
	if group == nil {
		return
	}
	m.groupWindowDesc = p.raw("windowGroup")

	m.windowGroupInfo.Name, _ = group["name"].(string)
	m.windowGroupInfo.IsOwner, _ = group["owner"].(bool)

	if owner := p.object(group, "ownerInfo"); owner != nil {
		m.windowOwnerInfo.AllowAnonymous, _ = owner["allowAnonymous"].(bool)
		layers, _ := owner["layers"].([]interface{})
		for _, entry := range layers {
			layer, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			name, _ := layer["name"].(string)
			z, isInt := integral(layer["z"])
			if name == "" || !isInt {
				p.log.Debug("Skipping malformed owner layer", zap.Any("layer", entry))
				continue
			}
			m.windowOwnerInfo.Layers[name] = z
		}
	}

	if client := p.object(group, "clientInfo"); client != nil {
		m.windowClientInfo.Layer, _ = client["layer"].(string)
		m.windowClientInfo.Hint, _ = client["hint"].(string)
	}
}

// keyFilterTable reads [{"from": n, "to": n, "mod": n}] entries
func (p *parser) keyFilterTable() map[int]KeyRemap {
	table := map[int]KeyRemap{}

	v, present := p.doc["keyFilterTable"]
	if !present {
		return table
	}
	entries, ok := v.([]interface{})
	if !ok {
		p.mismatch("keyFilterTable", "array", v)
		return table
	}

	for _, entry := range entries {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		from, okFrom := integral(obj["from"])
		to, okTo := integral(obj["to"])
		if !okFrom || !okTo {
			p.log.Debug("Skipping malformed key filter entry", zap.Any("entry", entry))
			continue
		}
		mod, _ := integral(obj["mod"])
		table[from] = KeyRemap{Code: to, Modifiers: mod}
	}

	return table
}

// versionSet accepts a single token or a list of tokens
func (p *parser) versionSet(key string) map[string]struct{} {
	set := map[string]struct{}{}

	switch v := p.doc[key].(type) {
	case nil:
	case string:
		if v != "" {
			set[canonicalVersion(v)] = struct{}{}
		}
	case []interface{}:
		for _, item := range v {
			token, ok := item.(string)
			if !ok || token == "" {
				continue
			}
			set[canonicalVersion(token)] = struct{}{}
		}
	default:
		p.mismatch(key, "string or array", v)
	}

	return set
}

func (p *parser) str(key, def string) string {
	v, present := p.doc[key]
	if !present {
		return def
	}
	s, ok := v.(string)
	if !ok {
		p.mismatch(key, "string", v)
		return def
	}
	return s
}

func (p *parser) boolean(key string, def bool) bool {
	v, present := p.doc[key]
	if !present {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		p.mismatch(key, "bool", v)
		return def
	}
	return b
}

func (p *parser) number(key string) (float64, bool) {
	v, present := p.doc[key]
	if !present {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		p.mismatch(key, "number", v)
		return 0, false
	}
	return f, true
}

func (p *parser) intValue(key string) (int, bool) {
	v, present := p.doc[key]
	if !present {
		return 0, false
	}
	n, ok := integral(v)
	if !ok {
		p.mismatch(key, "integer", v)
		return 0, false
	}
	return n, true
}

func (p *parser) integer(key string, def int) int {
	if n, ok := p.intValue(key); ok {
		return n
	}
	return def
}

func (p *parser) positiveInt(key string) optional[int] {
	n, ok := p.intValue(key)
	if !ok {
		return optional[int]{}
	}
	if n <= 0 {
		p.log.Debug("Ignoring non-positive override", zap.String("field", key), zap.Int("value", n))
		return optional[int]{}
	}
	return some(n)
}

func (p *parser) object(parent map[string]interface{}, key string) map[string]interface{} {
	v, present := parent[key]
	if !present {
		return nil
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		p.mismatch(key, "object", v)
		return nil
	}
	return obj
}

// raw keeps opaque values as text: strings verbatim, anything else as JSON
func (p *parser) raw(key string) string {
	v, present := p.doc[key]
	if !present || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	out, err := sonic.ConfigStd.MarshalToString(v)
	if err != nil {
		p.mismatch(key, "json value", v)
		return ""
	}
	return out
}

func (p *parser) mismatch(key, want string, got interface{}) {
	p.log.Debug("Ignoring malformed field, using default",
		zap.String("field", key),
		zap.String("want", want),
		zap.Any("got", got),
	)
}

func integral(v interface{}) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
