package redis

import "fmt"

const (
	// KeyPrefixUsage is the prefix for per-service forward counters
	KeyPrefixUsage = "kidra:usage:"
	// KeyPrefixLastUsed is the prefix for per-service last-use timestamps
	KeyPrefixLastUsed = "kidra:last_used:"
)

// UsageKey returns the Redis key of a service's forward counter
func UsageKey(name string) string {
	return KeyPrefixUsage + name
}

// LastUsedKey returns the Redis key of a service's last-use timestamp
func LastUsedKey(name string) string {
	return KeyPrefixLastUsed + name
}

// ExtractServiceName extracts the service name from a usage key
func ExtractServiceName(key string) (string, error) {
	if len(key) <= len(KeyPrefixUsage) || key[:len(KeyPrefixUsage)] != KeyPrefixUsage {
		return "", fmt.Errorf("invalid usage key: %s", key)
	}
	return key[len(KeyPrefixUsage):], nil
}
