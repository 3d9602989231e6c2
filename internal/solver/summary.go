package solver

import (
	"sort"
	"time"

	"github.com/phobologic/rotorbench/internal/model"
)

// Summary aggregates the results of one solver.
type Summary struct {
	Solver   string                `json:"solver"`
	Runs     int                   `json:"runs"`
	Verdicts map[model.Verdict]int `json:"verdicts"`
	Total    time.Duration         `json:"total_ns"`
}

// Mean returns the mean run time.
func (s Summary) Mean() time.Duration {
	if s.Runs == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Runs)
}

// Summarize aggregates all solver results of models, one Summary per solver,
// sorted by solver name.
func Summarize(models []model.Model) []Summary {
	byName := map[string]*Summary{}
	for i := range models {
		for _, r := range models[i].Results {
			s, ok := byName[r.Solver]
			if !ok {
				s = &Summary{Solver: r.Solver, Verdicts: map[model.Verdict]int{}}
				byName[r.Solver] = s
			}
			s.Runs++
			s.Verdicts[r.Verdict]++
			s.Total += r.Duration
		}
	}

	out := make([]Summary, 0, len(byName))
	for _, s := range byName {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Solver < out[j].Solver })
	return out
}
