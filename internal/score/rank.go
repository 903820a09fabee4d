package score

import (
	"slices"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Rank returns a copy of leads ordered by score descending, then extraction
// order, with Rank set to 1..n.
func Rank(leads []model.Lead) []model.Lead {
	out := slices.Clone(leads)
	slices.SortStableFunc(out, func(a, b model.Lead) int {
		if a.PropensityScore != b.PropensityScore {
			return b.PropensityScore - a.PropensityScore
		}
		return a.Seq - b.Seq
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}
