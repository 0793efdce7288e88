package workflow

import (
	"slices"

	"prefect-admin/internal/models"
)

type Operation int

const (
	OpSendToEngineer Operation = iota
	OpEngineerSubmit
	OpSecondReview
	OpThirdReview
	OpArchive
)

func (op Operation) String() string {
	switch op {
	case OpSendToEngineer:
		return "send_to_engineer"
	case OpEngineerSubmit:
		return "engineer_submit"
	case OpSecondReview:
		return "second_review"
	case OpThirdReview:
		return "third_review"
	case OpArchive:
		return "archive"
	}
	return "unknown"
}

type rule struct {
	role models.UserRole
	from []models.PrefectStatus
	// targets holds the reachable states. Operations with a single
	// target ignore the caller's choice.
	targets  []models.PrefectStatus
	nodeName string
}

var rules = map[Operation]rule{
	OpSendToEngineer: {
		role:     models.RoleCreator,
		from:     []models.PrefectStatus{models.StatusCreate},
		targets:  []models.PrefectStatus{models.StatusEngineerEdit},
		nodeName: "Creator dispatch",
	},
	OpEngineerSubmit: {
		role: models.RoleEngineer,
		// a rejected project is back on the engineer's desk
		from:     []models.PrefectStatus{models.StatusEngineerEdit, models.StatusRejectEngineer},
		targets:  []models.PrefectStatus{models.StatusSecondReview},
		nodeName: "Engineer edit",
	},
	OpSecondReview: {
		role:     models.RoleSecondReviewer,
		from:     []models.PrefectStatus{models.StatusSecondReview},
		targets:  []models.PrefectStatus{models.StatusThirdReview, models.StatusRejectEngineer},
		nodeName: "Second review",
	},
	OpThirdReview: {
		role:     models.RoleThirdReviewer,
		from:     []models.PrefectStatus{models.StatusThirdReview},
		targets:  []models.PrefectStatus{models.StatusToArchive, models.StatusRejectEngineer},
		nodeName: "Third review",
	},
	OpArchive: {
		role:     models.RoleArchiver,
		from:     []models.PrefectStatus{models.StatusToArchive},
		targets:  []models.PrefectStatus{models.StatusArchived},
		nodeName: "Archive",
	},
}

// RequiredRole returns the role allowed to run op.
func RequiredRole(op Operation) models.UserRole {
	return rules[op].role
}

// AllowedTargets lists the states op may move a project into.
func AllowedTargets(op Operation) []models.PrefectStatus {
	return slices.Clone(rules[op].targets)
}

func (r rule) accepts(from models.PrefectStatus) bool {
	return slices.Contains(r.from, from)
}

// resolveTarget picks the destination state for a request.
func (r rule) resolveTarget(requested models.PrefectStatus) (models.PrefectStatus, bool) {
	if len(r.targets) == 1 {
		return r.targets[0], true
	}
	return requested, slices.Contains(r.targets, requested)
}

// opinionRequired is true for the review stages.
func opinionRequired(from models.PrefectStatus) bool {
	return from == models.StatusSecondReview || from == models.StatusThirdReview
}

func successMessage(op Operation, to models.PrefectStatus) string {
	switch op {
	case OpSendToEngineer:
		return "project sent to engineer"
	case OpEngineerSubmit:
		return "project submitted for second review"
	case OpSecondReview:
		if to == models.StatusRejectEngineer {
			return "second review rejected, returned to engineer"
		}
		return "second review passed, moved to third review"
	case OpThirdReview:
		if to == models.StatusRejectEngineer {
			return "third review rejected, returned to engineer"
		}
		return "third review passed, moved to archive queue"
	case OpArchive:
		return "project archived, workflow finished"
	}
	return "ok"
}
