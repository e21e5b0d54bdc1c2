package cache

import (
	"net/url"
	"sort"
	"strings"
)

// keyPrefix namespaces every key written by this package.
const keyPrefix = "wikiload:page"

// PageKey identifies one page of an API query.
type PageKey struct {
	// Endpoint is the API URL without query string
	// (e.g., "https://en.wikipedia.org/w/api.php").
	Endpoint string

	// Params are the full query parameters of the page request, including
	// any continuation token.
	Params url.Values
}

// String generates a deterministic key string.
// Format: wikiload:page:<endpoint>:k1=v1:k2=v2 with keys sorted and
// multi-valued parameters joined by "|".
//
// Example:
//
//	wikiload:page:en.wikipedia.org/w/api.php:action=query:list=recentchanges
func (k PageKey) String() string {
	parts := []string{keyPrefix}

	endpoint := strings.TrimPrefix(k.Endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.Trim(endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.Params) > 0 {
		names := make([]string, 0, len(k.Params))
		for name := range k.Params {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, name+"="+strings.Join(k.Params[name], "|"))
		}
	}

	return strings.Join(parts, ":")
}
