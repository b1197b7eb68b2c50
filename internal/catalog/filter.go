package catalog

import (
	"sort"
	"strings"

	"github.com/rkilchmn/openrouter-free-scanner/pkg/api"
)

// Criteria narrows a model listing down to the candidate list.
// Zero values mean "no constraint".
type Criteria struct {
	Name             string
	Provider         string
	MinContextLength int
	RequireParams    []string
	Limit            int
}

// Select is the full candidate pipeline: filter, sort, then truncate to
// the limit. Filtering never reorders; the limit keeps the highest
// priority entries after sorting.
func Select(models []api.Model, c Criteria, sortBy string, reverse bool) []api.Model {
	out := Sort(Filter(models, c), sortBy, reverse)
	if c.Limit > 0 && len(out) > c.Limit {
		out = out[:c.Limit]
	}
	return out
}

// Filter applies the criteria except Limit, preserving input order.
func Filter(models []api.Model, c Criteria) []api.Model {
	out := make([]api.Model, 0, len(models))
	for _, m := range models {
		if c.Name != "" && !strings.Contains(strings.ToLower(m.Name), strings.ToLower(c.Name)) {
			continue
		}
		if c.MinContextLength > 0 && m.ContextLength < c.MinContextLength {
			continue
		}
		if c.Provider != "" && !strings.Contains(strings.ToLower(m.Provider()), strings.ToLower(c.Provider)) {
			continue
		}
		if !supportsAll(m, c.RequireParams) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func supportsAll(m api.Model, params []string) bool {
	for _, p := range params {
		if !m.SupportsParameter(p) {
			return false
		}
	}
	return true
}

// Sort orders models by the given field. Unknown fields fall back to id.
// The sort is stable so equal keys keep their catalog order.
func Sort(models []api.Model, field string, reverse bool) []api.Model {
	out := make([]api.Model, len(models))
	copy(out, models)

	less := func(a, b api.Model) bool {
		switch field {
		case "context_length":
			return a.ContextLength < b.ContextLength
		case "created":
			return a.Created < b.Created
		case "name":
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		default:
			return a.ID < b.ID
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if reverse {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}
