package workflow

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/kpi_backend/models"
	"bitbucket.org/mmdatafocus/kpi_backend/utils"
)

func TestValidateEventDateInput(t *testing.T) {
	groupId := 4
	store := "S01"
	nominal := day(2025, time.May, 10)

	cases := []struct {
		name    string
		input   EventDateInput
		wantErr bool
	}{
		{"valid chain-wide", EventDateInput{EventId: 1, NominalDate: nominal}, false},
		{"valid group scope", EventDateInput{EventId: 1, NominalDate: nominal, StoreGroupId: &groupId}, false},
		{"valid store scope", EventDateInput{EventId: 1, NominalDate: nominal, StoreCode: &store}, false},
		{"missing event", EventDateInput{NominalDate: nominal}, true},
		{"missing nominal date", EventDateInput{EventId: 1}, true},
		{"conflicting scope", EventDateInput{EventId: 1, NominalDate: nominal, StoreGroupId: &groupId, StoreCode: &store}, true},
	}
	for _, tc := range cases {
		err := validateEventDateInput(tc.input)
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error, got nil", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if tc.wantErr && !utils.IsValidationError(err) {
			t.Fatalf("%s: expected validation error, got %T", tc.name, err)
		}
	}
}

func TestApplyApprovalTransition_RejectRequiresReason(t *testing.T) {
	row := &models.EventDate{ApprovalState: models.ApprovalStatePending}

	err := ApplyApprovalTransition(row, models.ApprovalStateRejected, "   ", "reviewer")
	if !utils.IsValidationError(err) {
		t.Fatalf("expected validation error for blank reason, got %v", err)
	}
	if row.ApprovalState != models.ApprovalStatePending {
		t.Fatalf("failed transition must not mutate state, got %s", row.ApprovalState)
	}
}

func TestApplyApprovalTransition_Reversible(t *testing.T) {
	row := &models.EventDate{ApprovalState: models.ApprovalStatePending}

	if err := ApplyApprovalTransition(row, models.ApprovalStateApproved, "", "alice"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if row.ApprovalState != models.ApprovalStateApproved || row.ApprovedBy != "alice" {
		t.Fatalf("unexpected state after approve: %s / %s", row.ApprovalState, row.ApprovedBy)
	}

	if err := ApplyApprovalTransition(row, models.ApprovalStateRejected, "wrong reference week", "bob"); err != nil {
		t.Fatalf("reject after approve: %v", err)
	}
	if row.ApprovalState != models.ApprovalStateRejected {
		t.Fatalf("expected Rejected, got %s", row.ApprovalState)
	}
	if row.RejectionReason != "wrong reference week" {
		t.Fatalf("expected reason recorded, got %q", row.RejectionReason)
	}
	if row.ApprovedBy != "" {
		t.Fatalf("rejection must clear the approver, got %q", row.ApprovedBy)
	}

	if err := ApplyApprovalTransition(row, models.ApprovalStateApproved, "", "carol"); err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if row.RejectionReason != "" {
		t.Fatalf("approval must clear the old rejection reason, got %q", row.RejectionReason)
	}
	if row.ApprovedBy != "carol" {
		t.Fatalf("expected approver carol, got %q", row.ApprovedBy)
	}
}

func TestApplyApprovalTransition_RejectsPendingTarget(t *testing.T) {
	row := &models.EventDate{ApprovalState: models.ApprovalStateApproved}
	err := ApplyApprovalTransition(row, models.ApprovalStatePending, "", "alice")
	if !utils.IsValidationError(err) {
		t.Fatalf("expected validation error for Pending target, got %v", err)
	}
}

func TestEventDateKey_String(t *testing.T) {
	groupId := 7
	store := "S03"

	cases := []struct {
		name string
		key  EventDateKey
		want string
	}{
		{
			"chain-wide defaults",
			EventDateKey{EventId: 2, NominalDate: day(2025, time.December, 24)},
			"event=2 date=2025-12-24 channel=All scope=all",
		},
		{
			"group scope",
			EventDateKey{EventId: 2, NominalDate: day(2025, time.December, 24), Channel: "Delivery", StoreGroupId: &groupId},
			"event=2 date=2025-12-24 channel=Delivery scope=group:7",
		},
		{
			"store scope",
			EventDateKey{EventId: 2, NominalDate: day(2025, time.December, 24), StoreCode: &store},
			"event=2 date=2025-12-24 channel=All scope=store:S03",
		},
	}
	for _, tc := range cases {
		if got := tc.key.String(); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}
