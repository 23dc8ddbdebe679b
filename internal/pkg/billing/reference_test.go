package billing

import (
	"errors"
	"strings"
	"testing"

	"github.com/cosanostra/blacklink/internal/pkg/entitlements"
)

func TestReferenceRoundTrip(t *testing.T) {
	tests := []struct {
		username string
		plan     entitlements.Plan
		months   int
	}{
		{username: "alice", plan: entitlements.PlanPro, months: 1},
		{username: "bob", plan: entitlements.PlanDon, months: 24},
		{username: "Maria-Silva", plan: entitlements.PlanPro, months: 12},
		{username: "UPPER", plan: entitlements.PlanDon, months: 3},
	}

	for _, tt := range tests {
		token, err := FormatReference(tt.username, tt.plan, tt.months)
		if err != nil {
			t.Fatalf("FormatReference(%q): %v", tt.username, err)
		}

		ref, err := ParseReference(token)
		if err != nil {
			t.Fatalf("ParseReference(%q): %v", token, err)
		}

		// usernames are lowercased at both ends of the wire
		if ref.Username != strings.ToLower(tt.username) {
			t.Fatalf("username = %q, want %q", ref.Username, strings.ToLower(tt.username))
		}
		if ref.Plan != tt.plan {
			t.Fatalf("plan = %q, want %q", ref.Plan, tt.plan)
		}
		if ref.Months != tt.months {
			t.Fatalf("months = %d, want %d", ref.Months, tt.months)
		}
	}
}

func TestParseReferenceRejections(t *testing.T) {
	tests := []struct {
		token string
		want  error
	}{
		{token: "alice:free:1", want: ErrPlanNotSellable},
		{token: "alice:bogus:1", want: ErrPlanNotSellable}, // unknown normalizes to free
		{token: "alice:pro:0", want: ErrValidation},
		{token: "alice:pro:25", want: ErrValidation},
		{token: "alice:pro:x", want: ErrValidation},
		{token: "onlyonepart", want: ErrValidation},
		{token: "a:b:c:d", want: ErrValidation},
		{token: ":pro:1", want: ErrValidation},
		{token: "", want: ErrValidation},
	}

	for _, tt := range tests {
		_, err := ParseReference(tt.token)
		if !errors.Is(err, tt.want) {
			t.Fatalf("ParseReference(%q) err = %v, want %v", tt.token, err, tt.want)
		}
	}
}

func TestFormatReferenceRejectsColonUsername(t *testing.T) {
	if _, err := FormatReference("a:b", entitlements.PlanPro, 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if _, err := FormatReference("  ", entitlements.PlanPro, 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
