package ptr

import (
	"net"
	"strings"
	"sync"
	"time"
)

// PtrManager handles PTR lookups with simple caching
type PtrManager struct {
	mu         sync.Mutex
	cache      map[string]string
	lookupFunc func(ip string) ([]string, error)
	retries    int
	retryDelay time.Duration
}

// NewPtrManager creates a new PtrManager backed by the system resolver
func NewPtrManager() *PtrManager {
	return &PtrManager{
		cache:      make(map[string]string),
		lookupFunc: net.LookupAddr,
		retries:    3,
		retryDelay: 100 * time.Millisecond,
	}
}

// normalizePTR strips the trailing root dot from a PTR answer
func normalizePTR(name string) string {
	return strings.TrimSuffix(name, ".")
}

// RequestPTR performs a PTR lookup for the given IP address if not cached.
// Concurrent requests for the same address trigger a single lookup.
func (pm *PtrManager) RequestPTR(ip string) {
	pm.mu.Lock()
	if _, exists := pm.cache[ip]; exists {
		pm.mu.Unlock()
		return
	}
	pm.cache[ip] = "" // Mark as "in progress" to avoid duplicate lookups
	pm.mu.Unlock()

	for attempt := range pm.retries {
		names, err := pm.lookupFunc(ip)
		if err == nil && len(names) > 0 {
			pm.mu.Lock()
			pm.cache[ip] = normalizePTR(names[0])
			pm.mu.Unlock()
			return
		}
		if attempt < pm.retries-1 {
			time.Sleep(pm.retryDelay)
		}
	}
}

// GetPTR retrieves the cached PTR result for the given IP address
// Returns the PTR and a boolean indicating if it was found
func (pm *PtrManager) GetPTR(ip string) (string, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	ptr, exists := pm.cache[ip]
	if ptr == "" {
		return ptr, false
	}
	return ptr, exists
}

// Lookup requests the PTR for ip and returns it, or an empty string if the
// address has no name
func (pm *PtrManager) Lookup(ip string) string {
	pm.RequestPTR(ip)
	name, _ := pm.GetPTR(ip)
	return name
}
