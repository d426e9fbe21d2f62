// ABOUTME: Route table and relationship stage rules
// ABOUTME: Maps a classification onto its destination, whether it needs a draft, and the stage it implies
package router

import "github.com/DoniaKassem/AIRevenueOrc-sub002/models"

// Destination returns where a classification is routed. Anything that
// requires human review goes to a human.
func Destination(cls models.Classification) string {
	if cls.RequiresHumanReview {
		return models.RouteHuman
	}

	switch cls.Category {
	case models.CategoryObjection:
		return models.RouteObjectionHandler
	case models.CategoryMeetingRequest:
		return models.RouteMeetingScheduler
	case models.CategoryUnclear, models.CategoryWrongPerson, models.CategoryReferral:
		return models.RouteHuman
	case models.CategoryUnsubscribe:
		return models.RouteSuppression
	}

	switch cls.SuggestedAction.Action {
	case models.ActionScheduleMeeting:
		return models.RouteMeetingScheduler
	case models.ActionEscalateToHuman:
		return models.RouteHuman
	}
	return models.RouteAutoResponder
}

// needsDraft reports whether a reply at this destination gets a written response.
func needsDraft(routedTo string, category models.Category) bool {
	if routedTo == models.RouteHuman || routedTo == models.RouteSuppression {
		return false
	}
	switch category {
	case models.CategoryOutOfOffice, models.CategoryAutoReply, models.CategoryNotInterested, models.CategoryUnsubscribe:
		return false
	}
	return true
}

// StageFor returns the relationship stage a reply moves the prospect to.
func StageFor(category models.Category, current string) string {
	switch category {
	case models.CategoryPositiveInterest, models.CategoryMeetingRequest:
		return models.StageInterested
	case models.CategoryNotInterested, models.CategoryUnsubscribe:
		return models.StageDisqualified
	}
	if current == "" {
		current = models.StageUnknown
	}
	if current == models.StageUnknown && !category.IsAutomated() {
		return models.StageEngaged
	}
	return current
}
