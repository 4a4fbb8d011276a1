package packages

import (
	"strings"
	"sync"
)

const keySeparator = `\`

// UniqueKey identifies one installed version of a package within a manager.
// Two versions of the same id are distinct identities.
func UniqueKey(manager, id, version string) string {
	return manager + keySeparator + id + keySeparator + version
}

// IgnoreKey is the version-independent key used by the ignore ledger. The
// manager name is lower-cased; the id is kept verbatim.
func IgnoreKey(manager, id string) string {
	return strings.ToLower(manager) + keySeparator + id
}

// IconNormalizer maps a lower-cased package id onto the key used by the icon
// database.
type IconNormalizer func(id string) string

var (
	iconMu          sync.RWMutex
	iconNormalizers = map[string]IconNormalizer{
		"winget":     dropFirstSegment,
		"chocolatey": trimSuffixes(".install", ".portable"),
		"scoop":      trimSuffixes(".app"),
	}
)

// RegisterIconNormalizer installs fn for the named manager, replacing any
// previous entry. Managers without an entry use the lower-cased id as is.
func RegisterIconNormalizer(manager string, fn IconNormalizer) {
	iconMu.Lock()
	defer iconMu.Unlock()
	iconNormalizers[strings.ToLower(manager)] = fn
}

// IconKey derives the icon database key for a package of the given manager.
func IconKey(manager, id string) string {
	iconMu.RLock()
	fn, ok := iconNormalizers[strings.ToLower(manager)]
	iconMu.RUnlock()

	lowered := strings.ToLower(id)
	if !ok || fn == nil {
		return lowered
	}
	return fn(lowered)
}

// dropFirstSegment turns "mozilla.firefox" into "firefox". An id without a
// dot has nothing after its first segment and yields "".
func dropFirstSegment(id string) string {
	_, rest, found := strings.Cut(id, ".")
	if !found {
		return ""
	}
	return rest
}

// trimSuffixes strips the listed suffixes repeatedly, in any order, so
// "foo.install.portable" becomes "foo".
func trimSuffixes(suffixes ...string) IconNormalizer {
	return func(id string) string {
		for {
			trimmed := false
			for _, suffix := range suffixes {
				if rest, ok := strings.CutSuffix(id, suffix); ok {
					id, trimmed = rest, true
				}
			}
			if !trimmed {
				return id
			}
		}
	}
}
