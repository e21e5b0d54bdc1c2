package pagination

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/wiki-recent-changes/pkg/logging"
	"github.com/Sternrassler/wiki-recent-changes/pkg/progress"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// DefaultProps is the rcprop value requested for every change.
var DefaultProps = []string{
	"user", "userid", "comment", "parsedcomment", "flags", "timestamp",
	"title", "ids", "sizes", "redirect", "loginfo", "tags", "sha1",
}

var (
	// ErrMalformedPage is returned when a page body is not a usable response.
	ErrMalformedPage = errors.New("malformed recent changes page")
)

var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikiload_pages_fetched_total",
		Help: "Total number of recent changes pages fetched",
	})

	recordsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikiload_records_fetched_total",
		Help: "Total number of change records fetched",
	})
)

// Record is one change entry as returned by the API.
type Record = map[string]any

// Querier executes one API request and returns the raw JSON body.
// *client.Client satisfies it.
type Querier interface {
	Query(ctx context.Context, params url.Values) ([]byte, error)
}

// Config holds the fixed list=recentchanges parameters.
type Config struct {
	Namespace string
	Limit     string
	Props     []string
}

// DefaultConfig requests every namespace, the server maximum per page and
// DefaultProps.
func DefaultConfig() Config {
	return Config{
		Namespace: "*",
		Limit:     "max",
		Props:     DefaultProps,
	}
}

// Paginator fetches every change in a time window.
type Paginator struct {
	querier  Querier
	config   Config
	progress progress.Reporter
	logger   zerolog.Logger
}

// NewPaginator creates a paginator. Empty config fields fall back to
// DefaultConfig values.
func NewPaginator(querier Querier, config Config) *Paginator {
	defaults := DefaultConfig()
	if config.Namespace == "" {
		config.Namespace = defaults.Namespace
	}
	if config.Limit == "" {
		config.Limit = defaults.Limit
	}
	if len(config.Props) == 0 {
		config.Props = defaults.Props
	}

	return &Paginator{
		querier:  querier,
		config:   config,
		progress: progress.Nop{},
		logger:   logging.NewLogger("pagination"),
	}
}

// WithProgress sets the reporter notified after each page.
func (p *Paginator) WithProgress(r progress.Reporter) *Paginator {
	if r == nil {
		r = progress.Nop{}
	}
	p.progress = r
	return p
}

// BaseParams returns the first-page parameters for a window. The API lists
// changes newest first, so rcstart is the window end and rcend its start.
func (p *Paginator) BaseParams(windowStart, windowEnd string) url.Values {
	return url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"list":        {"recentchanges"},
		"rcstart":     {windowEnd},
		"rcend":       {windowStart},
		"rcnamespace": {p.config.Namespace},
		"rclimit":     {p.config.Limit},
		"rcprop":      {strings.Join(p.config.Props, "|")},
	}
}

// Fetch retrieves all records between windowStart and windowEnd in API
// order. Any failing page aborts the run and no partial result is returned.
func (p *Paginator) Fetch(ctx context.Context, windowStart, windowEnd string) ([]Record, error) {
	start := time.Now()
	params := p.BaseParams(windowStart, windowEnd)
	records := make([]Record, 0)

	defer p.progress.Done()

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		body, err := p.querier.Query(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		batch, cont, err := parsePage(body)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}

		records = append(records, batch...)
		pagesFetchedTotal.Inc()
		recordsFetchedTotal.Add(float64(len(batch)))
		p.progress.Report(len(records))

		p.logger.Debug().
			Int("page", page).
			Int("records", len(batch)).
			Int("total", len(records)).
			Bool("has_continue", cont != nil).
			Msg("Page fetched")

		if cont == nil {
			p.logger.Info().
				Int("pages", page).
				Int("records", len(records)).
				Dur("duration", time.Since(start)).
				Msg("Fetch complete")
			return records, nil
		}

		params = mergeContinue(params, cont)
	}
}

// parsePage extracts the records and continuation members of one response.
// A nil continuation means the page was the last one.
func parsePage(body []byte) ([]Record, map[string]string, error) {
	if !gjson.ValidBytes(body) {
		return nil, nil, fmt.Errorf("%w: invalid JSON", ErrMalformedPage)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, nil, fmt.Errorf("%w: top level is not an object", ErrMalformedPage)
	}

	var records []Record
	if rc := doc.Get("query.recentchanges"); rc.Exists() {
		if !rc.IsArray() {
			return nil, nil, fmt.Errorf("%w: query.recentchanges is not a list", ErrMalformedPage)
		}
		var itemErr error
		rc.ForEach(func(_, item gjson.Result) bool {
			if !item.IsObject() {
				itemErr = fmt.Errorf("%w: change entry is not an object", ErrMalformedPage)
				return false
			}
			records = append(records, decodeRecord(item))
			return true
		})
		if itemErr != nil {
			return nil, nil, itemErr
		}
	}

	cont := doc.Get("continue")
	if !cont.Exists() {
		return records, nil, nil
	}
	if !cont.IsObject() {
		return nil, nil, fmt.Errorf("%w: continue is not an object", ErrMalformedPage)
	}

	members := make(map[string]string)
	cont.ForEach(func(key, value gjson.Result) bool {
		members[key.String()] = value.String()
		return true
	})
	// An empty continue object would repeat the same request forever.
	if len(members) == 0 {
		return records, nil, nil
	}
	return records, members, nil
}

func decodeRecord(item gjson.Result) Record {
	record := make(Record)
	item.ForEach(func(key, value gjson.Result) bool {
		record[key.String()] = decodeValue(value)
		return true
	})
	return record
}

func decodeValue(v gjson.Result) any {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return json.Number(v.Raw)
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.JSON:
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(v.Raw)); err != nil {
			return json.RawMessage(v.Raw)
		}
		return json.RawMessage(buf.Bytes())
	default:
		return nil
	}
}

// mergeContinue returns a copy of params with every continuation member set
// verbatim, overwriting any earlier value.
func mergeContinue(params url.Values, cont map[string]string) url.Values {
	next := make(url.Values, len(params)+len(cont))
	for k, v := range params {
		next[k] = append([]string(nil), v...)
	}
	for k, v := range cont {
		next.Set(k, v)
	}
	return next
}
