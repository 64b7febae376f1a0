package motion

import "math"

// Summarize computes the agility metrics over an ordered record log. It
// returns false when there are fewer than MinRecords records.
func Summarize(records []MovementRecord) (AgilitySummary, bool) {
	n := len(records)
	if n < MinRecords {
		return AgilitySummary{}, false
	}

	var (
		lateral      int
		totalSpeed   float64
		maxSpeed     float64
		stabilitySum float64
	)

	for i := 1; i < n; i++ {
		prev, curr := records[i-1], records[i]

		dist := math.Abs(curr.HipCenter.X - prev.HipCenter.X)
		if dist > LateralThreshold {
			lateral++
		}

		// Out-of-order or repeated timestamps contribute no speed.
		var speed float64
		if dt := float64(curr.TimestampMs-prev.TimestampMs) / 1000; dt > 0 {
			speed = dist / dt
		}
		totalSpeed += speed
		maxSpeed = math.Max(maxSpeed, speed)

		stabilitySum += math.Max(0, 1-math.Abs(curr.ShoulderCenter.X-prev.ShoulderCenter.X))
	}

	pairs := float64(n - 1)
	duration := math.Max(0, math.Round(float64(records[n-1].TimestampMs-records[0].TimestampMs)/1000))

	var agility float64
	if duration > 0 {
		agility = float64(lateral)/duration*10 + maxSpeed*50
	} else {
		agility = maxSpeed * 50
	}

	return AgilitySummary{
		LateralMovementCount: lateral,
		// Divided by the pair count, not the record count n the browser
		// analyzer used, so a perfectly still upper body scores 100.
		CoordinationScore:    clamp(math.Round(stabilitySum/pairs*100), 0, 100),
		AgilityScore:         clamp(math.Round(math.Min(100, agility)), 0, 100),
		// Divided by the record count, not the pair count.
		AverageLateralSpeed:  finiteOrZero(math.Round(totalSpeed/float64(n)*1000) / 1000),
		TotalDurationSeconds: int(duration),
	}, true
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
