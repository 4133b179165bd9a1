package score

import (
	"fmt"

	"github.com/panbanda/qscore/pkg/models"
)

// Grade maps a score to a letter grade. Boundaries resolve to the higher grade.
func Grade(score float64) models.Grade {
	switch {
	case score >= 90:
		return models.GradeA
	case score >= 80:
		return models.GradeB
	case score >= 70:
		return models.GradeC
	case score >= 60:
		return models.GradeD
	default:
		return models.GradeF
	}
}

// Status returns pass when score reaches PassThreshold.
func Status(score float64) models.Status {
	if score >= PassThreshold {
		return models.StatusPass
	}
	return models.StatusFail
}

var gradeDescriptions = map[models.Grade]string{
	models.GradeA: "Excellent code quality",
	models.GradeB: "Good code quality with minor issues",
	models.GradeC: "Acceptable code quality with room for improvement",
	models.GradeD: "Below-standard code quality needing significant work",
	models.GradeF: "Poor code quality requiring immediate attention",
}

// Summary describes a grade, suffixed with the score to one decimal.
func Summary(grade models.Grade, score float64) string {
	desc, ok := gradeDescriptions[grade]
	if !ok {
		desc = "Unrated code quality"
	}
	return fmt.Sprintf("%s (score: %.1f)", desc, score)
}
