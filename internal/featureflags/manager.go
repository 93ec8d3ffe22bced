// Package featureflags evaluates runtime toggles configured through FEATURE_FLAGS.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Known flags.
const (
	// IndexCacheInvalidate makes post create and edit drop the cached home pages.
	IndexCacheInvalidate = "index_cache_invalidate"
	// SignupOpen allows new registrations; on unless set to off.
	SignupOpen = "signup_open"
)

var defaults = map[string]string{
	IndexCacheInvalidate: "off",
	SignupOpen:           "on",
}

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "index_cache_invalidate=on,signup_open=off,beta_feed=25%"
type Manager struct {
	flags   map[string]string
	invalid []string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
// Entries that are not key=value pairs are skipped and reported by Invalid.
func NewManager(raw string) *Manager {
	m := &Manager{flags: make(map[string]string, len(defaults))}
	for k, v := range defaults {
		m.flags[k] = v
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		key, value = normalize(key), normalize(value)
		if !ok || key == "" || value == "" {
			m.invalid = append(m.invalid, pair)
			continue
		}
		m.flags[key] = value
	}
	return m
}

// On reports whether a process-wide flag is switched on. Percentage
// rollouts only apply per user and count as off here.
func (m *Manager) On(name string) bool {
	return m.Enabled(name, 0)
}

// Enabled returns whether a flag is enabled for a given user.
// Supported values: on/true/1, off/false/0 and N% (deterministic per-user rollout).
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return defaults[normalize(name)] == "on"
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < pct
}

// Invalid returns the entries that could not be parsed.
func (m *Manager) Invalid() []string {
	return append([]string(nil), m.invalid...)
}

// Names returns the configured flag names, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.flags))
	for k := range m.flags {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns evaluated flag status for one user.
func (m *Manager) Snapshot(userID uint) map[string]bool {
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, userID)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", normalize(name), userID)
	return int(h.Sum32() % 100)
}
