package identify

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/cache"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/normalize"
)

// Defaults.
const (
	DefaultYearsBack  = 2
	DefaultMaxResults = 100
)

// Identifier runs keyword searches against a Source, caching results per
// keyword in the identify namespace.
type Identifier struct {
	source     Source
	cache      *cache.Cache
	yearsBack  int
	maxResults int
	ttl        time.Duration
	now        func() time.Time
}

// Option configures an Identifier.
type Option func(*Identifier)

// WithCache stores search results. Without it every run hits the source.
func WithCache(c *cache.Cache) Option {
	return func(i *Identifier) { i.cache = c }
}

// WithYearsBack sets the publication window length.
func WithYearsBack(n int) Option {
	return func(i *Identifier) {
		if n > 0 {
			i.yearsBack = n
		}
	}
}

// WithMaxResults is part of the cache key so differently sized searches do
// not share entries.
func WithMaxResults(n int) Option {
	return func(i *Identifier) {
		if n > 0 {
			i.maxResults = n
		}
	}
}

// WithTTL sets the cache lifetime of search results.
func WithTTL(d time.Duration) Option {
	return func(i *Identifier) {
		if d > 0 {
			i.ttl = d
		}
	}
}

// WithNow sets the clock that anchors the publication window.
func WithNow(now func() time.Time) Option {
	return func(i *Identifier) { i.now = now }
}

// New creates an Identifier.
func New(source Source, opts ...Option) *Identifier {
	i := &Identifier{
		source:     source,
		yearsBack:  DefaultYearsBack,
		maxResults: DefaultMaxResults,
		ttl:        cache.DefaultIdentifyTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run searches every keyword and returns the distinct publications in
// first-seen order. A failing keyword is logged and skipped; Run fails only
// when every keyword fails or ctx is cancelled.
func (i *Identifier) Run(ctx context.Context, keywords []string) ([]model.Publication, error) {
	kws := Keywords(keywords)
	if len(kws) == 0 {
		return nil, eris.New("identify: no keywords")
	}

	now := i.now()
	window := Window{From: now.AddDate(-i.yearsBack, 0, 0), To: now}

	var (
		out      []model.Publication
		seen     = make(map[string]bool)
		failures int
	)
	for _, kw := range kws {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "identify: cancelled")
		}

		pubs, err := i.search(ctx, kw, window)
		if err != nil {
			failures++
			zap.L().Warn("identify: keyword search failed",
				zap.String("keyword", kw),
				zap.String("source", i.source.Name()),
				zap.Error(err),
			)
			continue
		}

		added := 0
		for _, p := range pubs {
			id := publicationID(p)
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, p)
			added++
		}
		zap.L().Info("identify: keyword searched",
			zap.String("keyword", kw),
			zap.Int("publications", len(pubs)),
			zap.Int("new", added),
		)
	}

	if failures == len(kws) {
		return nil, eris.Errorf("identify: all %d keyword searches failed", failures)
	}
	return out, nil
}

func (i *Identifier) search(ctx context.Context, kw string, w Window) ([]model.Publication, error) {
	key := cache.Key(cache.NamespaceIdentify, i.source.Name(), kw,
		strconv.Itoa(i.yearsBack), strconv.Itoa(i.maxResults))
	if i.cache != nil {
		if pubs, ok := cache.GetJSON[[]model.Publication](ctx, i.cache, key); ok {
			return pubs, nil
		}
	}

	pubs, err := i.source.Search(ctx, kw, w)
	if err != nil {
		return nil, err
	}
	if i.cache != nil {
		if err := cache.PutJSON(ctx, i.cache, key, pubs, i.ttl); err != nil {
			zap.L().Warn("identify: cache store failed", zap.String("keyword", kw), zap.Error(err))
		}
	}
	return pubs, nil
}

// Keywords normalizes keywords and drops empty and repeated ones.
func Keywords(in []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, kw := range in {
		kw = normalize.Keyword(kw)
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
	}
	return out
}

func publicationID(p model.Publication) string {
	if p.PMID != "" {
		return "pmid:" + p.PMID
	}
	return "title:" + strings.ToLower(strings.TrimSpace(p.Title))
}
