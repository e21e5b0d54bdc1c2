// Package pagination walks the MediaWiki list=recentchanges continuation chain.
//
// MediaWiki returns a "continue" object with every page that has a successor.
// Its members are merged verbatim into the next request's parameters, and
// the walk ends on the first response without one. Pages are fetched
// strictly in sequence because each request depends on the previous response.
//
// Example usage:
//
//	c, _ := client.New(client.DefaultConfig("my-tool/1.0 (ops@example.com)"))
//	p := pagination.NewPaginator(c, pagination.DefaultConfig())
//	records, err := p.Fetch(ctx, "2024-10-31T00:00:00Z", "2024-10-31T23:59:59Z")
//
// Records keep the JSON value kinds of the response: strings stay strings,
// numbers are json.Number, booleans are bool, null is nil, and nested arrays
// or objects are kept as compact json.RawMessage.
package pagination
