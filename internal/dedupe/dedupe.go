// Package dedupe merges candidate leads that denote the same person.
package dedupe

import (
	"cmp"
	"slices"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/normalize"
)

// Defaults for the merge confidence model.
const (
	DefaultThreshold               = 0.85
	DefaultNameWeight              = 0.7
	DefaultAffiliationWeight       = 0.3
	DefaultMissingAffiliationScore = 0.5
)

// SimilarityFunc scores how likely two leads are the same person, in [0,1].
type SimilarityFunc func(a, b *model.Lead) float64

// Deduper groups leads whose confidence meets Threshold and folds each group
// into a single lead.
type Deduper struct {
	threshold  float64
	nameWeight float64
	affWeight  float64
	missingAff float64
	similarity SimilarityFunc
}

// Option configures a Deduper.
type Option func(*Deduper)

// WithThreshold sets the merge threshold.
func WithThreshold(t float64) Option {
	return func(d *Deduper) { d.threshold = t }
}

// WithWeights sets the name and affiliation weights.
func WithWeights(name, affiliation float64) Option {
	return func(d *Deduper) {
		d.nameWeight = name
		d.affWeight = affiliation
	}
}

// WithMissingAffiliationScore sets the affiliation score used when either
// lead has no affiliation.
func WithMissingAffiliationScore(s float64) Option {
	return func(d *Deduper) { d.missingAff = s }
}

// WithSimilarity replaces the confidence model.
func WithSimilarity(fn SimilarityFunc) Option {
	return func(d *Deduper) { d.similarity = fn }
}

// New creates a Deduper with default weights and threshold.
func New(opts ...Option) *Deduper {
	d := &Deduper{
		threshold:  DefaultThreshold,
		nameWeight: DefaultNameWeight,
		affWeight:  DefaultAffiliationWeight,
		missingAff: DefaultMissingAffiliationScore,
	}
	for _, o := range opts {
		o(d)
	}
	if d.similarity == nil {
		d.similarity = d.Confidence
	}
	return d
}

// NameSimilarity compares normalized person names.
func NameSimilarity(a, b *model.Lead) float64 {
	return FuzzyScore(normalize.PersonName(a.Name), normalize.PersonName(b.Name))
}

// AffiliationSimilarity compares normalized companies, falling back to the raw
// affiliation text. ok is false when either side has nothing to compare.
func AffiliationSimilarity(a, b *model.Lead) (score float64, ok bool) {
	ca, cb := normalize.Company(a.Company), normalize.Company(b.Company)
	if ca != "" && cb != "" {
		return FuzzyScore(ca, cb), true
	}
	ta, tb := normalize.Text(a.AffiliationText), normalize.Text(b.AffiliationText)
	if ta != "" && tb != "" {
		return FuzzyScore(ta, tb), true
	}
	return 0, false
}

// Confidence combines name and affiliation similarity.
func (d *Deduper) Confidence(a, b *model.Lead) float64 {
	name := NameSimilarity(a, b)
	// Skip the affiliation comparison when it cannot lift the pair over the
	// threshold.
	if d.nameWeight*name+d.affWeight < d.threshold {
		return d.nameWeight * name
	}
	aff, ok := AffiliationSimilarity(a, b)
	if !ok {
		aff = d.missingAff
	}
	return d.nameWeight*name + d.affWeight*aff
}

// Merge returns leads with duplicates folded together. Grouping is transitive
// and repeats until no surviving pair meets the threshold, so
// Merge(Merge(x)) equals Merge(x).
func (d *Deduper) Merge(leads []model.Lead) []model.Lead {
	current := canonicalize(leads)
	passes := 0
	for {
		passes++
		groups := d.group(current)
		if len(groups) == len(current) {
			break
		}
		next := make([]model.Lead, 0, len(groups))
		for _, g := range groups {
			members := make([]model.Lead, len(g))
			for i, idx := range g {
				members[i] = current[idx]
			}
			next = append(next, fold(members))
		}
		current = canonicalize(next)
	}
	zap.L().Info("dedupe: merged candidates",
		zap.Int("input", len(leads)),
		zap.Int("output", len(current)),
		zap.Int("passes", passes),
	)
	return current
}

// group returns index groups ordered by their lowest member index.
func (d *Deduper) group(leads []model.Lead) [][]int {
	uf := newUnionFind(len(leads))
	for i := range leads {
		for j := i + 1; j < len(leads); j++ {
			if uf.find(i) == uf.find(j) {
				continue
			}
			if d.similarity(&leads[i], &leads[j]) >= d.threshold {
				uf.union(i, j)
			}
		}
	}

	byRoot := make(map[int][]int)
	var roots []int
	for i := range leads {
		r := uf.find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], i)
	}
	groups := make([][]int, 0, len(roots))
	for _, r := range roots {
		groups = append(groups, byRoot[r])
	}
	return groups
}

// canonicalize copies leads sorted by extraction order, identity key and PMID.
func canonicalize(leads []model.Lead) []model.Lead {
	out := make([]model.Lead, len(leads))
	for i := range leads {
		out[i] = leads[i].Clone()
	}
	slices.SortStableFunc(out, func(a, b model.Lead) int {
		return cmp.Or(
			cmp.Compare(a.Seq, b.Seq),
			cmp.Compare(a.IdentityKey(), b.IdentityKey()),
			cmp.Compare(a.PMID, b.PMID),
		)
	})
	return out
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// union keeps the lower index as root so grouping is order-stable.
func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if rb < ra {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
}
