package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/webruntime/internal/domain/manifest"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/webruntime/internal/shared/types"
)

// DescriptorPattern matches descriptor files relative to the install root
const DescriptorPattern = "**/appinfo.{json,yaml,yml,toml}"

// Scan walks the install root and rebuilds the index from every descriptor
// found. The previous index stays in place if the walk itself fails.
func (c *Catalog) Scan(ctx context.Context) (types.ScanReport, error) {
	timer := monitoring.NewTimer(c.metrics, "catalog", "scan")
	report := types.ScanReport{
		Root:       c.root,
		Added:      []string{},
		Updated:    []string{},
		Removed:    []string{},
		Failures:   []types.ScanFailure{},
		Duplicates: []types.Duplicate{},
	}

	paths, err := c.discover(ctx)
	if err != nil {
		timer.Stop("error")
		return report, err
	}
	report.Found = len(paths)

	entries := make(map[string]entry, len(paths))
	parsed := make(map[string]*manifest.Manifest, len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			timer.Stop("cancelled")
			return report, err
		}

		m, digest, err := c.parse(path)
		if err != nil {
			c.log.Warn("Skipping descriptor", zap.String("path", path), zap.Error(err))
			report.Failures = append(report.Failures, types.ScanFailure{Path: path, Error: err.Error()})
			continue
		}

		if kept, dup := entries[m.ID()]; dup {
			c.log.Warn("Duplicate application id",
				zap.String("app_id", m.ID()),
				zap.String("path", path),
				zap.String("kept_path", kept.path),
			)
			report.Duplicates = append(report.Duplicates, types.Duplicate{
				AppID:    m.ID(),
				Path:     path,
				KeptPath: kept.path,
			})
			continue
		}

		entries[m.ID()] = newEntry(path, m, digest)
		parsed[m.ID()] = m
	}
	report.Loaded = len(entries)

	c.mu.Lock()
	diff(c.entries, entries, &report)
	c.entries = entries
	c.cache.Purge()
	for appID, m := range parsed {
		c.cache.Add(appID, m)
	}
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.SetCatalogApps(report.Loaded)
	}
	report.Duration = timer.Stop("success")

	c.log.Info("Catalog scan complete",
		zap.String("root", c.root),
		zap.Int("found", report.Found),
		zap.Int("loaded", report.Loaded),
		zap.Int("added", len(report.Added)),
		zap.Int("updated", len(report.Updated)),
		zap.Int("removed", len(report.Removed)),
		zap.Int("failed", len(report.Failures)),
		zap.Int("duplicates", len(report.Duplicates)),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// diff fills the added, updated and removed ids of report, each sorted.
// An application counts as updated when its descriptor digest or path moved.
func diff(prev, next map[string]entry, report *types.ScanReport) {
	for appID, e := range next {
		old, ok := prev[appID]
		switch {
		case !ok:
			report.Added = append(report.Added, appID)
		case old.summary.Digest != e.summary.Digest || old.path != e.path:
			report.Updated = append(report.Updated, appID)
		}
	}
	for appID := range prev {
		if _, ok := next[appID]; !ok {
			report.Removed = append(report.Removed, appID)
		}
	}

	sort.Strings(report.Added)
	sort.Strings(report.Updated)
	sort.Strings(report.Removed)
}

// discover returns every descriptor path below the root in lexical order
func (c *Catalog) discover(ctx context.Context) ([]string, error) {
	info, err := os.Stat(c.root)
	if err != nil {
		return nil, fmt.Errorf("install root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("install root %s is not a directory", c.root)
	}

	var (
		mu    sync.Mutex
		paths []string
	)

	conf := fastwalk.Config{Follow: false}
	err = fastwalk.Walk(&conf, c.root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil || d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return nil
		}
		if ok, _ := doublestar.Match(DescriptorPattern, filepath.ToSlash(rel)); !ok {
			return nil
		}

		mu.Lock()
		paths = append(paths, p)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk install root: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}
