package services

import (
	"visa-management-api/models"
)

// Workflow actions. Customers may only submit/resubmit their own
// applications; employees may only approve/reject/request-more-info.
const (
	ActionSubmit          = "submit"
	ActionResubmit        = "resubmit"
	ActionApprove         = "approve"
	ActionReject          = "reject"
	ActionRequestMoreInfo = "request-more-info"
)

// Actor is the principal performing a workflow action, built explicitly from
// the authenticated request rather than read from ambient state.
type Actor struct {
	UserID int
	RoleID int
}

func (a Actor) IsCustomer() bool {
	return a.RoleID == models.RoleCustomer
}

func (a Actor) IsEmployee() bool {
	return a.RoleID == models.RoleEmployee || a.RoleID == models.RoleAdmin
}

type transitionEdge struct {
	from     string
	to       string
	customer bool // true: customer-owned edge, false: employee edge
}

// The complete transition table. Approved and rejected are terminal: no
// action has an edge out of them.
var transitions = map[string]transitionEdge{
	ActionSubmit:          {from: models.StatusDraft, to: models.StatusUnderReview, customer: true},
	ActionResubmit:        {from: models.StatusResent, to: models.StatusUnderReview, customer: true},
	ActionApprove:         {from: models.StatusUnderReview, to: models.StatusApproved},
	ActionReject:          {from: models.StatusUnderReview, to: models.StatusRejected},
	ActionRequestMoreInfo: {from: models.StatusUnderReview, to: models.StatusResent},
}

// Transition validates action against the application's current status and
// the actor's capability, and returns the status the application moves to.
// It is pure: no persistence, no payment state. Fee gating on approve is the
// caller's job (see ReviewService).
func Transition(app *models.VisaApplication, action string, actor Actor) (string, error) {
	edge, ok := transitions[action]
	if !ok {
		return "", ErrInvalidTransition
	}
	if app.Status != edge.from {
		return "", ErrInvalidTransition
	}
	if edge.customer {
		if !actor.IsCustomer() || actor.UserID != app.UserID {
			return "", ErrInvalidTransition
		}
	} else if !actor.IsEmployee() {
		return "", ErrInvalidTransition
	}
	return edge.to, nil
}

// SubmitAction picks the customer action that applies to the application's
// current status: submit from draft, resubmit from resent.
func SubmitAction(status string) string {
	if status == models.StatusResent {
		return ActionResubmit
	}
	return ActionSubmit
}
