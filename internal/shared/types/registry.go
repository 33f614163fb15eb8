package types

import "time"

// CatalogEntry summarizes one installed application
type CatalogEntry struct {
	AppID      string `json:"app_id"`
	Title      string `json:"title"`
	Version    string `json:"version"`
	TrustLevel string `json:"trust_level"`
	Format     string `json:"format"`
	Path       string `json:"path"`
	Digest     string `json:"digest"`
}

// ScanFailure is a descriptor that could not be parsed
type ScanFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Duplicate is a descriptor whose id was already claimed by an earlier path
type Duplicate struct {
	AppID    string `json:"app_id"`
	Path     string `json:"path"`
	KeptPath string `json:"kept_path"`
}

// ScanReport describes one pass over the install root
type ScanReport struct {
	Root       string        `json:"root"`
	Found      int           `json:"found"`
	Loaded     int           `json:"loaded"`
	Added      []string      `json:"added"`
	Updated    []string      `json:"updated"`
	Removed    []string      `json:"removed"`
	Failures   []ScanFailure `json:"failures"`
	Duplicates []Duplicate   `json:"duplicates"`
	Duration   time.Duration `json:"duration_ns"`
}
