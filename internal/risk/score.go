package risk

import (
	"regexp"
	"strconv"
)

// Score summarizes the numeric risk scores found in a report.
type Score struct {
	Average    float64
	Level      string
	Individual []int
}

// Risk level thresholds on the 1-10 average.
const (
	lowThreshold    = 3
	mediumThreshold = 6
)

var scorePattern = regexp.MustCompile(`(\d+)/10`)

// CalculateScore extracts every "N/10" score from a report and averages
// them. A report with no parseable scores defaults to medium risk.
func CalculateScore(report string) Score {
	matches := scorePattern.FindAllStringSubmatch(report, -1)
	if len(matches) == 0 {
		return Score{
			Average:    5.0,
			Level:      "Medium",
			Individual: []int{5, 5, 5, 5, 5},
		}
	}

	var scores []int
	sum := 0
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		scores = append(scores, n)
		sum += n
	}

	avg := float64(sum) / float64(len(scores))
	// Round to one decimal place.
	avg = float64(int(avg*10+0.5)) / 10

	level := "High"
	switch {
	case avg <= lowThreshold:
		level = "Low"
	case avg <= mediumThreshold:
		level = "Medium"
	}

	return Score{
		Average:    avg,
		Level:      level,
		Individual: scores,
	}
}
