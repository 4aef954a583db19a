package constants

import (
	"strings"
)

// Priority of a generated task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// TaskCategory groups generated tasks.
type TaskCategory string

const (
	CategoryFollowUp    TaskCategory = "followUp"
	CategoryResearch    TaskCategory = "research"
	CategoryMeeting     TaskCategory = "meeting"
	CategoryDeadline    TaskCategory = "deadline"
	CategoryCommunicate TaskCategory = "communication"
	CategoryReview      TaskCategory = "review"
	CategoryFinance     TaskCategory = "finance"
	CategoryOrganize    TaskCategory = "organize"
	CategoryGeneral     TaskCategory = "general"
)

var allCategories = []TaskCategory{
	CategoryFollowUp,
	CategoryResearch,
	CategoryMeeting,
	CategoryDeadline,
	CategoryCommunicate,
	CategoryReview,
	CategoryFinance,
	CategoryOrganize,
	CategoryGeneral,
}

func Canonicalize(input string) (TaskCategory, bool) {
	if input == "" {
		return CategoryGeneral, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]TaskCategory{
		"follow up": CategoryFollowUp,
		"follow-up": CategoryFollowUp,
		"call":      CategoryCommunicate,
		"email":     CategoryCommunicate,
		"payment":   CategoryFinance,
		"invoice":   CategoryFinance,
		"todo":      CategoryGeneral,
	}
	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return CategoryGeneral, false
}
