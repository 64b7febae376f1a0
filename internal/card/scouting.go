package card

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/7ipolito/goals-vision/internal/catalog"
)

// Attribute names accepted in scouting weights.
const (
	AttributeSpeed     = "speed"
	AttributeDribbling = "dribbling"
	AttributePhysical  = "physical"
)

// Attributes lists every attribute a card can carry.
var Attributes = []string{AttributeSpeed, AttributeDribbling, AttributePhysical}

// missingAttribute is the value assumed for an attribute a candidate lacks.
const missingAttribute = 50

// Criteria is a coach's search configuration: the positions they are
// looking for and how much each attribute matters (0-100).
type Criteria struct {
	Positions []string           `json:"positions"`
	Weights   map[string]float64 `json:"weights"`
}

// Validate checks positions and weights against the known values.
func (c Criteria) Validate() error {
	if len(c.Positions) == 0 {
		return fmt.Errorf("%w: at least one position is required", catalog.ErrValidation)
	}
	for _, p := range c.Positions {
		if !slices.Contains(catalog.Positions, p) {
			return fmt.Errorf("%w: unknown position %q", catalog.ErrValidation, p)
		}
	}
	for name, w := range c.Weights {
		if !slices.Contains(Attributes, name) {
			return fmt.Errorf("%w: unknown attribute %q, want one of %s", catalog.ErrValidation, name, strings.Join(Attributes, ", "))
		}
		if math.IsNaN(w) || w < 0 || w > 100 {
			return fmt.Errorf("%w: weight for %s must be between 0 and 100", catalog.ErrValidation, name)
		}
	}
	return nil
}

// Candidate is one player under consideration.
type Candidate struct {
	PlayerID   string             `json:"player_id"`
	Name       string             `json:"name"`
	Position   string             `json:"position"`
	Attributes map[string]float64 `json:"attributes"`
}

// CandidateFromCard builds a Candidate for the card's player.
func CandidateFromCard(player *catalog.Player, c Card) Candidate {
	return Candidate{
		PlayerID:   player.ID,
		Name:       player.Name,
		Position:   player.Position,
		Attributes: c.Attributes(),
	}
}

// Ranked is a candidate with its compatibility score.
type Ranked struct {
	Candidate
	Compatibility int `json:"compatibility"`
}

// Compatibility scores a candidate against criteria in [0,100]: 0 when the
// candidate's position was not selected, otherwise the weighted mean of their
// attributes with a missing attribute counted as 50. With no positive weight
// every attribute counts equally.
func Compatibility(cand Candidate, crit Criteria) int {
	if !slices.Contains(crit.Positions, cand.Position) {
		return 0
	}

	names := make([]string, 0, len(crit.Weights))
	for name, w := range crit.Weights {
		if w > 0 {
			names = append(names, name)
		}
	}
	weights := make([]float64, 0, len(Attributes))
	if len(names) == 0 {
		names = Attributes
	} else {
		slices.Sort(names)
	}

	values := make([]float64, 0, len(names))
	for _, name := range names {
		v, ok := cand.Attributes[name]
		if !ok || math.IsNaN(v) {
			v = missingAttribute
		}
		values = append(values, math.Max(0, math.Min(100, v)))
		if w, ok := crit.Weights[name]; ok && w > 0 {
			weights = append(weights, w)
		} else {
			weights = append(weights, 1)
		}
	}

	return score(stat.Mean(values, weights))
}

// Rank scores every candidate, drops those scoring 0 and orders the rest by
// compatibility, best first. Ties keep name order.
func Rank(cands []Candidate, crit Criteria) []Ranked {
	ranked := make([]Ranked, 0, len(cands))
	for _, c := range cands {
		if s := Compatibility(c, crit); s > 0 {
			ranked = append(ranked, Ranked{Candidate: c, Compatibility: s})
		}
	}
	slices.SortStableFunc(ranked, func(a, b Ranked) int {
		if n := cmp.Compare(b.Compatibility, a.Compatibility); n != 0 {
			return n
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return ranked
}
