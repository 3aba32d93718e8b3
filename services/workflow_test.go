package services

import (
	"testing"

	"visa-management-api/models"
)

func TestTransitionTable(t *testing.T) {
	customer := Actor{UserID: 7, RoleID: models.RoleCustomer}
	employee := Actor{UserID: 9, RoleID: models.RoleEmployee}

	tests := []struct {
		name    string
		status  string
		action  string
		actor   Actor
		want    string
		wantErr bool
	}{
		{"customer submits draft", models.StatusDraft, ActionSubmit, customer, models.StatusUnderReview, false},
		{"customer resubmits resent", models.StatusResent, ActionResubmit, customer, models.StatusUnderReview, false},
		{"employee approves", models.StatusUnderReview, ActionApprove, employee, models.StatusApproved, false},
		{"employee rejects", models.StatusUnderReview, ActionReject, employee, models.StatusRejected, false},
		{"employee requests more info", models.StatusUnderReview, ActionRequestMoreInfo, employee, models.StatusResent, false},

		{"submit from under_review", models.StatusUnderReview, ActionSubmit, customer, "", true},
		{"resubmit from draft", models.StatusDraft, ActionResubmit, customer, "", true},
		{"approve from draft", models.StatusDraft, ActionApprove, employee, "", true},
		{"approve from approved", models.StatusApproved, ActionApprove, employee, "", true},
		{"reject from rejected", models.StatusRejected, ActionReject, employee, "", true},
		{"unknown action", models.StatusUnderReview, "escalate", employee, "", true},

		{"customer cannot approve", models.StatusUnderReview, ActionApprove, customer, "", true},
		{"customer cannot reject", models.StatusUnderReview, ActionReject, customer, "", true},
		{"customer cannot request more info", models.StatusUnderReview, ActionRequestMoreInfo, customer, "", true},
		{"employee cannot submit", models.StatusDraft, ActionSubmit, employee, "", true},
		{"employee cannot resubmit", models.StatusResent, ActionResubmit, employee, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &models.VisaApplication{ApplicationID: 1, UserID: customer.UserID, Status: tt.status}
			got, err := Transition(app, tt.action, tt.actor)
			if tt.wantErr {
				if err != ErrInvalidTransition {
					t.Fatalf("expected ErrInvalidTransition, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected status %q, got %q", tt.want, got)
			}
		})
	}
}

func TestTransitionRejectsForeignCustomer(t *testing.T) {
	app := &models.VisaApplication{ApplicationID: 1, UserID: 7, Status: models.StatusDraft}
	other := Actor{UserID: 8, RoleID: models.RoleCustomer}

	if _, err := Transition(app, ActionSubmit, other); err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition for non-owner, got %v", err)
	}
}

func TestTransitionAllowsAdminAsReviewer(t *testing.T) {
	app := &models.VisaApplication{ApplicationID: 1, UserID: 7, Status: models.StatusUnderReview}
	admin := Actor{UserID: 2, RoleID: models.RoleAdmin}

	got, err := Transition(app, ActionReject, admin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != models.StatusRejected {
		t.Fatalf("expected rejected, got %q", got)
	}
}

func TestSubmitActionPicksEdgeForStatus(t *testing.T) {
	if got := SubmitAction(models.StatusDraft); got != ActionSubmit {
		t.Fatalf("expected submit, got %q", got)
	}
	if got := SubmitAction(models.StatusResent); got != ActionResubmit {
		t.Fatalf("expected resubmit, got %q", got)
	}
}
