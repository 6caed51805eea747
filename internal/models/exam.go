package models

import (
	"math"
	"sort"
	"time"
)

// Grade is the letter assigned to a completed exam
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// Percentage returns score/total*100 rounded to one decimal place
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return roundTenth(float64(score) / float64(total) * 100)
}

// GradeFor maps a percentage onto A/B/C/D with thresholds 80/60/40
func GradeFor(percentage float64) Grade {
	switch {
	case percentage >= 80:
		return GradeA
	case percentage >= 60:
		return GradeB
	case percentage >= 40:
		return GradeC
	default:
		return GradeD
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// ExamResult is the append-only record of one completed attempt
type ExamResult struct {
	ID               string            `json:"id"`
	UserID           string            `json:"userId"`
	UserEmail        string            `json:"userEmail"`
	UserName         string            `json:"userName"`
	ExamID           string            `json:"examId"`
	ExamTitle        string            `json:"examTitle"`
	ExamType         string            `json:"examType"`
	Score            int               `json:"score"`
	TotalQuestions   int               `json:"totalQuestions"`
	Percentage       float64           `json:"percentage"`
	Grade            Grade             `json:"grade"`
	TimeSpent        int               `json:"timeSpent"` // seconds
	Answers          map[string]string `json:"answers"`
	FlaggedQuestions []int             `json:"flaggedQuestions"`
	CompletedAt      time.Time         `json:"completedAt"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// ExamTypeStats aggregates results of one exam type
type ExamTypeStats struct {
	Count        int     `json:"count"`
	AverageScore float64 `json:"averageScore"`
}

// ExamStats is the aggregate view over a user's results
type ExamStats struct {
	TotalExams    int                      `json:"totalExams"`
	AverageScore  float64                  `json:"averageScore"`
	HighestScore  float64                  `json:"highestScore"`
	ExamTypes     map[string]ExamTypeStats `json:"examTypes"`
	RecentResults []ExamResult             `json:"recentResults"`
}

const recentResultsCount = 5

// ComputeExamStats aggregates results, which must be ordered newest first
func ComputeExamStats(results []ExamResult) ExamStats {
	stats := ExamStats{
		TotalExams:    len(results),
		ExamTypes:     make(map[string]ExamTypeStats),
		RecentResults: []ExamResult{},
	}
	if len(results) == 0 {
		return stats
	}

	sum := 0.0
	highest := math.Inf(-1)
	typeSums := make(map[string]float64)
	for _, r := range results {
		sum += r.Percentage
		if r.Percentage > highest {
			highest = r.Percentage
		}
		ts := stats.ExamTypes[r.ExamType]
		ts.Count++
		stats.ExamTypes[r.ExamType] = ts
		typeSums[r.ExamType] += r.Percentage
	}

	for examType, ts := range stats.ExamTypes {
		ts.AverageScore = typeSums[examType] / float64(ts.Count)
		stats.ExamTypes[examType] = ts
	}

	stats.AverageScore = roundTenth(sum / float64(len(results)))
	stats.HighestScore = roundTenth(highest)

	n := recentResultsCount
	if len(results) < n {
		n = len(results)
	}
	stats.RecentResults = append(stats.RecentResults, results[:n]...)
	return stats
}

// SortResultsNewestFirst orders results by completion time, newest first
func SortResultsNewestFirst(results []ExamResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CompletedAt.After(results[j].CompletedAt)
	})
}
