package domain

import "slices"

// MakeAddress combines host and subdomain into a URL.
//
// With a port the backend is assumed local and reached over plain HTTP;
// without one it is a remote service reached over HTTPS.
func MakeAddress(host, port, subdomain string) string {
	if port != "" {
		return "http://" + host + ":" + port + "/" + subdomain
	}
	return "https://" + host + "/" + subdomain
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
