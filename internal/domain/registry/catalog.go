package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/manifest"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/shared/utils"
)

// DefaultCacheSize bounds the number of parsed manifests kept in memory
const DefaultCacheSize = 256

var ErrNotFound = errors.New("application not found")

// entry is the index record for one installed application
type entry struct {
	path    string
	format  manifest.Format
	summary types.CatalogEntry
}

// Catalog indexes installed applications by id
type Catalog struct {
	root    string
	mu      sync.RWMutex
	entries map[string]entry // Protected by mu
	cache   *lru.Cache[string, *manifest.Manifest]
	log     *zap.Logger
	metrics *monitoring.Metrics
}

// Option configures a Catalog
type Option func(*catalogOptions)

type catalogOptions struct {
	cacheSize int
	log       *zap.Logger
	metrics   *monitoring.Metrics
}

// WithCacheSize sets the manifest cache capacity
func WithCacheSize(size int) Option {
	return func(o *catalogOptions) {
		if size > 0 {
			o.cacheSize = size
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *catalogOptions) {
		if logger != nil {
			o.log = logger
		}
	}
}

// WithMetrics records descriptor parses and catalog size
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(o *catalogOptions) {
		o.metrics = metrics
	}
}

// NewCatalog creates an empty catalog over root. Call Scan to fill it.
func NewCatalog(root string, opts ...Option) (*Catalog, error) {
	o := catalogOptions{cacheSize: DefaultCacheSize, log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	cache, err := lru.New[string, *manifest.Manifest](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create manifest cache: %w", err)
	}

	return &Catalog{
		root:    root,
		entries: make(map[string]entry),
		cache:   cache,
		log:     o.log.With(zap.String("component", "catalog")),
		metrics: o.metrics,
	}, nil
}

// Root returns the install root
func (c *Catalog) Root() string { return c.root }

// Len returns the number of indexed applications
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Lookup returns the manifest of appID, parsing it again if it was evicted
// from the cache. A descriptor that no longer parses is treated as missing.
func (c *Catalog) Lookup(appID string) (*manifest.Manifest, bool) {
	if m, ok := c.cache.Get(appID); ok {
		return m, true
	}

	c.mu.RLock()
	e, ok := c.entries[appID]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	m, digest, err := c.parse(e.path)
	if err != nil {
		c.log.Warn("Indexed descriptor no longer parses",
			zap.String("app_id", appID),
			zap.String("path", e.path),
			zap.Error(err),
		)
		return nil, false
	}
	if m.ID() != appID {
		c.log.Warn("Indexed descriptor changed id",
			zap.String("app_id", appID),
			zap.String("new_id", m.ID()),
			zap.String("path", e.path),
		)
		return nil, false
	}

	if digest != e.summary.Digest {
		c.log.Info("Descriptor changed since scan",
			zap.String("app_id", appID),
			zap.String("digest", utils.ShortDigest(digest)),
		)
		c.mu.Lock()
		if current, ok := c.entries[appID]; ok && current.path == e.path {
			c.entries[appID] = newEntry(e.path, m, digest)
		}
		c.mu.Unlock()
	}

	c.cache.Add(appID, m)
	return m, true
}

// Entry returns the index summary of appID
func (c *Catalog) Entry(appID string) (types.CatalogEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[appID]
	if !ok {
		return types.CatalogEntry{}, fmt.Errorf("%w: %s", ErrNotFound, appID)
	}
	return e.summary, nil
}

// Load parses a single descriptor and indexes it, replacing any earlier
// entry with the same id.
func (c *Catalog) Load(path string) (*manifest.Manifest, error) {
	m, digest, err := c.parse(path)
	if err != nil {
		return nil, err
	}

	e := newEntry(path, m, digest)

	c.mu.Lock()
	c.entries[m.ID()] = e
	count := len(c.entries)
	c.mu.Unlock()

	c.cache.Add(m.ID(), m)
	if c.metrics != nil {
		c.metrics.SetCatalogApps(count)
	}

	c.log.Debug("Descriptor loaded", zap.String("app_id", m.ID()), zap.String("path", path))
	return m, nil
}

// List returns the index summaries sorted by id
func (c *Catalog) List() []types.CatalogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.CatalogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppID < out[j].AppID })
	return out
}

// parse reads and parses one descriptor, recording the outcome. The
// digest covers the raw descriptor bytes.
func (c *Catalog) parse(path string) (*manifest.Manifest, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		c.recordParse("read_error")
		return nil, "", fmt.Errorf("read descriptor: %w", err)
	}

	m, err := manifest.ParseFormat(data, manifest.FormatFromPath(path),
		manifest.WithLogger(c.log),
		manifest.WithFolderPath(filepath.Dir(path)),
	)
	if err != nil {
		switch {
		case errors.Is(err, manifest.ErrMissingRequiredField):
			c.recordParse("missing_field")
		case errors.Is(err, manifest.ErrMalformedDocument):
			c.recordParse("malformed")
		default:
			c.recordParse("error")
		}
		return nil, "", err
	}

	c.recordParse("ok")
	return m, utils.Digest(data), nil
}

func (c *Catalog) recordParse(result string) {
	if c.metrics != nil {
		c.metrics.RecordManifestParse(result)
	}
}

func newEntry(path string, m *manifest.Manifest, digest string) entry {
	format := manifest.FormatFromPath(path)
	return entry{
		path:   path,
		format: format,
		summary: types.CatalogEntry{
			AppID:      m.ID(),
			Title:      m.Title(),
			Version:    m.Version(),
			TrustLevel: m.TrustLevel().String(),
			Format:     string(format),
			Path:       path,
			Digest:     digest,
		},
	}
}
