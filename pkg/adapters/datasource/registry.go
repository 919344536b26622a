package datasource

import (
	"fmt"
	"sync"
)

// AdapterInfo describes a registered adapter for client discovery.
type AdapterInfo struct {
	Type        string `json:"type"`         // "postgres", "sqlserver"
	DisplayName string `json:"display_name"` // "PostgreSQL", "Microsoft SQL Server"
}

// Registration contains info plus a factory for creating adapters from an
// opaque connection-info map.
type Registration struct {
	Info    AdapterInfo
	Factory func(connectionInfo map[string]any) (Adapter, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Registration)
)

// Register is called by each adapter's init() function.
// Thread-safe for concurrent init() calls.
func Register(reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[reg.Info.Type] = reg
}

// New builds an adapter for the given type from stored connection info.
func New(dsType string, connectionInfo map[string]any) (Adapter, error) {
	registryMu.RLock()
	reg, ok := registry[dsType]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s", dsType)
	}
	return reg.Factory(connectionInfo)
}

// Registered returns info for all registered adapters.
func Registered() []AdapterInfo {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]AdapterInfo, 0, len(registry))
	for _, reg := range registry {
		result = append(result, reg.Info)
	}
	return result
}

// IsRegistered checks if an adapter type is available.
func IsRegistered(dsType string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[dsType]
	return ok
}
