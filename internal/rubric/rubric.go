// Package rubric defines the canonical rubric text protocol shared with the
// grading model. Render and Parse operate on the same table shape; changing
// one side requires changing the other in lockstep.
package rubric

// Item is a single scoring criterion.
type Item struct {
	Criterion   string `json:"criterion"`
	MaxPoints   int    `json:"max_points"`
	Description string `json:"description"`
}

// Rubric is an ordered set of scoring criteria plus the point total declared
// by the rubric text. DeclaredTotal is kept as stated, never recomputed, so
// a model that misstates its own arithmetic stays detectable.
type Rubric struct {
	Items         []Item `json:"items"`
	DeclaredTotal int    `json:"declared_total"`
}

// SumPoints returns the arithmetic sum of item max points.
func (r Rubric) SumPoints() int {
	sum := 0
	for _, item := range r.Items {
		sum += item.MaxPoints
	}
	return sum
}

// Consistent reports whether the declared total matches the item sum.
func (r Rubric) Consistent() bool {
	return r.DeclaredTotal == r.SumPoints()
}
