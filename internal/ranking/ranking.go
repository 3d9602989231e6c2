// Package ranking orders and selects models for reporting.
package ranking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phobologic/rotorbench/internal/model"
)

// Keys lists the accepted sort keys.
var Keys = []string{"name", "lines", "code", "defines"}

// Sort orders models in place by key. Numeric keys sort descending, ties
// and "name" sort by path ascending.
func Sort(models []model.Model, key string) error {
	var metric func(s *model.Statistics) int
	switch key {
	case "", "name":
		sort.SliceStable(models, func(i, j int) bool { return models[i].Path < models[j].Path })
		return nil
	case "lines":
		metric = func(s *model.Statistics) int { return s.TotalLines }
	case "code":
		metric = func(s *model.Statistics) int { return s.CodeLines }
	case "defines":
		metric = func(s *model.Statistics) int { return s.DefineCount }
	default:
		return fmt.Errorf("unknown sort key %q (valid: %s)", key, strings.Join(Keys, ", "))
	}

	value := func(m *model.Model) int {
		if m.Stats == nil {
			return -1
		}
		return metric(m.Stats)
	}
	sort.SliceStable(models, func(i, j int) bool {
		vi, vj := value(&models[i]), value(&models[j])
		if vi != vj {
			return vi > vj
		}
		return models[i].Path < models[j].Path
	})
	return nil
}

// Select returns the first maxModels models.
// If maxModels is <= 0 or >= len(models), all models are returned.
func Select(models []model.Model, maxModels int) []model.Model {
	if maxModels <= 0 || maxModels >= len(models) {
		return models
	}
	return models[:maxModels]
}

// Filter returns the models whose path or model type contains substr
// (case-insensitive). An empty substr keeps every model.
func Filter(models []model.Model, substr string) []model.Model {
	if substr == "" {
		return models
	}
	lower := strings.ToLower(substr)
	var kept []model.Model
	for i := range models {
		m := &models[i]
		if strings.Contains(strings.ToLower(m.Path), lower) ||
			strings.Contains(strings.ToLower(m.ModelType), lower) {
			kept = append(kept, *m)
		}
	}
	return kept
}
