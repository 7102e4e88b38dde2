package utils

import (
	"os"
	"sync"
)

var (
	hostname     string
	hostnameOnce sync.Once
)

// GetHost returns the machine hostname, or "unknown" when the OS cannot
// report one. The lookup runs once per process.
func GetHost() string {
	hostnameOnce.Do(func() {
		hostname = "unknown"
		if h, err := os.Hostname(); err == nil && h != "" {
			hostname = h
		}
	})
	return hostname
}
