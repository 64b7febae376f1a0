// Package card derives a player's card and coach-side scouting ranks from
// their stored agility analyses.
package card

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/7ipolito/goals-vision/internal/catalog"
)

// Position codes shown on the card.
const (
	CodeGoalkeeper = "GK"
	CodeDefender   = "DEF"
	CodeMidfielder = "MID"
	CodeForward    = "FWD"
)

var positionCodes = map[string]string{
	catalog.PositionGoalkeeper: CodeGoalkeeper,
	catalog.PositionDefender:   CodeDefender,
	catalog.PositionMidfielder: CodeMidfielder,
	catalog.PositionForward:    CodeForward,
}

// A lateral speed of paceFullSpeed normalised widths per second maps to a
// pace of 100.
const paceFullSpeed = 0.5

// Stats are the card's face attributes, each in [0,100].
type Stats struct {
	Pace      int `json:"pace"`
	Dribbling int `json:"dribbling"`
	Physical  int `json:"physical"`
}

// Card is the collectible summary of a player.
type Card struct {
	PlayerID     string `json:"player_id"`
	Name         string `json:"name"`
	Age          int    `json:"age"`
	DominantFoot string `json:"dominant_foot"`
	Position     string `json:"position"`

	// Unrated is set until the player has a conclusive analysis; clients
	// render the rating and stats as "??".
	Unrated bool  `json:"unrated"`
	Rating  int   `json:"rating"`
	Stats   Stats `json:"stats"`

	Analyses int `json:"analyses"`
	// Trend is the agility change per analysis, least-squares over the
	// conclusive analyses in order. Zero with fewer than two.
	Trend          float64    `json:"trend"`
	LastAnalyzedAt *time.Time `json:"last_analyzed_at,omitempty"`
}

// PositionCode maps a catalog position to its card code.
func PositionCode(position string) string {
	if code, ok := positionCodes[position]; ok {
		return code
	}
	return "?"
}

// Build derives the card for player from their analyses, oldest first.
// Inconclusive analyses are skipped.
func Build(player *catalog.Player, analyses []*catalog.Analysis) Card {
	c := Card{
		PlayerID:     player.ID,
		Name:         player.Name,
		Age:          player.Age,
		DominantFoot: player.DominantFoot,
		Position:     PositionCode(player.Position),
	}

	var agility, coordination, speed []float64
	for _, a := range analyses {
		if !a.Conclusive() {
			continue
		}
		agility = append(agility, a.AgilityScore)
		coordination = append(coordination, a.CoordinationScore)
		speed = append(speed, a.AverageLateralSpeed)
		created := a.CreatedAt
		c.LastAnalyzedAt = &created
	}

	c.Analyses = len(agility)
	if c.Analyses == 0 {
		c.Unrated = true
		return c
	}

	c.Stats = Stats{
		Pace:      score(stat.Mean(speed, nil) / paceFullSpeed * 100),
		Dribbling: score(stat.Mean(agility, nil)),
		Physical:  score(stat.Mean(coordination, nil)),
	}
	c.Rating = score(0.3*float64(c.Stats.Pace) + 0.4*float64(c.Stats.Dribbling) + 0.3*float64(c.Stats.Physical))
	c.Trend = trend(agility)
	return c
}

// Attributes exposes the card stats under the names scouting criteria use.
// An unrated card has no attributes.
func (c Card) Attributes() map[string]float64 {
	if c.Unrated {
		return map[string]float64{}
	}
	return map[string]float64{
		AttributeSpeed:     float64(c.Stats.Pace),
		AttributeDribbling: float64(c.Stats.Dribbling),
		AttributePhysical:  float64(c.Stats.Physical),
	}
}

func trend(ys []float64) float64 {
	if len(ys) < 2 {
		return 0
	}
	xs := make([]float64, len(ys))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		return 0
	}
	return math.Round(beta*100) / 100
}

func score(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 100 {
		return 100
	}
	return int(math.Round(v))
}
