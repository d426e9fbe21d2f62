// ABOUTME: Qualification scoring for prospects
// ABOUTME: Weighted sum of firmographic, seniority, intent, and recency signals capped at 100
package models

import (
	"math"
	"regexp"
	"time"
)

// QualificationWeights holds the scoring weights. The defaults are the
// production values; they are configurable because they were tuned by hand.
type QualificationWeights struct {
	LargeCompanyEmployees int     `yaml:"large_company_employees"`
	LargeCompanyBonus     int     `yaml:"large_company_bonus"`
	FundingThresholdUSD   int64   `yaml:"funding_threshold_usd"`
	FundingBonus          int     `yaml:"funding_bonus"`
	CLevelBonus           int     `yaml:"c_level_bonus"`
	VPBonus               int     `yaml:"vp_bonus"`
	ManagerBonus          int     `yaml:"manager_bonus"`
	IntentMultiplier      float64 `yaml:"intent_multiplier"`
	RecencyDays           int     `yaml:"recency_days"`
	RecencyBonus          int     `yaml:"recency_bonus"`
}

// DefaultQualificationWeights returns the standard weights.
func DefaultQualificationWeights() QualificationWeights {
	return QualificationWeights{
		LargeCompanyEmployees: 100,
		LargeCompanyBonus:     25,
		FundingThresholdUSD:   5_000_000,
		FundingBonus:          10,
		CLevelBonus:           30,
		VPBonus:               25,
		ManagerBonus:          15,
		IntentMultiplier:      0.25,
		RecencyDays:           7,
		RecencyBonus:          10,
	}
}

// Seniority buckets, ordered from least to most senior.
type Seniority int

const (
	SeniorityIndividual Seniority = iota
	SeniorityManager
	SeniorityVP
	SeniorityCLevel
)

var (
	cLevelPattern  = regexp.MustCompile(`(?i)\b(ceo|cto|cfo|coo|cmo|cio|cro|ciso|chief|founder|co-founder|cofounder|owner|president)\b`)
	vpPattern      = regexp.MustCompile(`(?i)\b(vp|svp|evp|vice president|director|head of)\b`)
	managerPattern = regexp.MustCompile(`(?i)\b(manager|lead|supervisor)\b`)
)

// ClassifySeniority buckets a job title.
func ClassifySeniority(title string) Seniority {
	switch {
	case cLevelPattern.MatchString(title):
		return SeniorityCLevel
	case vpPattern.MatchString(title):
		return SeniorityVP
	case managerPattern.MatchString(title):
		return SeniorityManager
	}
	return SeniorityIndividual
}

// QualificationInput is everything the score depends on.
type QualificationInput struct {
	EmployeeCount  int
	FundingUSD     int64
	Title          string
	IntentScore    int
	LastActivityAt *time.Time
}

// QualificationScore computes the weighted score, clamped to [0,100].
func QualificationScore(in QualificationInput, w QualificationWeights, now time.Time) int {
	score := 0

	if in.EmployeeCount > w.LargeCompanyEmployees {
		score += w.LargeCompanyBonus
	}
	if in.FundingUSD > w.FundingThresholdUSD {
		score += w.FundingBonus
	}

	switch ClassifySeniority(in.Title) {
	case SeniorityCLevel:
		score += w.CLevelBonus
	case SeniorityVP:
		score += w.VPBonus
	case SeniorityManager:
		score += w.ManagerBonus
	}

	intent := in.IntentScore
	if intent < 0 {
		intent = 0
	}
	if intent > 100 {
		intent = 100
	}
	score += int(math.Round(float64(intent) * w.IntentMultiplier))

	if in.LastActivityAt != nil && now.Sub(*in.LastActivityAt) < time.Duration(w.RecencyDays)*24*time.Hour {
		score += w.RecencyBonus
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// Qualification outcomes.
const (
	QualifyHandoff  = "handoff"
	QualifyContinue = "continue"
	QualifyNurture  = "nurture"
)

// QualificationOutcome maps a score onto the next lifecycle step.
func QualificationOutcome(score, handoffThreshold, engageThreshold int) string {
	switch {
	case score >= handoffThreshold:
		return QualifyHandoff
	case score >= engageThreshold:
		return QualifyContinue
	}
	return QualifyNurture
}
