package validation

import (
	"strings"
	"testing"

	"docchat/pkg/models"
)

func TestValidateUserMessage(t *testing.T) {
	t.Cleanup(func() { SetRules(Rules{}) })

	ok := models.Message{ID: "m1", Role: models.RoleUser, Content: "hello", TS: 1}
	if err := ValidateUserMessage(ok); err != nil {
		t.Fatalf("valid message rejected: %v", err)
	}

	cases := []struct {
		name string
		msg  models.Message
		want string
	}{
		{"wrong role", models.Message{Role: models.RoleAssistant, Content: "x"}, "unexpected role"},
		{"empty content", models.Message{Role: models.RoleUser}, "content is required"},
		{"whitespace only", models.Message{Role: models.RoleUser, Content: "  \n\t "}, "content is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateUserMessage(tc.msg)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q; got %v", tc.want, err)
			}
		})
	}
}

func TestMaxContentLen(t *testing.T) {
	t.Cleanup(func() { SetRules(Rules{}) })
	SetRules(Rules{MaxContentLen: 10})

	short := models.Message{Role: models.RoleUser, Content: "short"}
	if err := ValidateUserMessage(short); err != nil {
		t.Fatalf("within cap rejected: %v", err)
	}

	long := models.Message{Role: models.RoleUser, Content: strings.Repeat("a", 11)}
	err := ValidateUserMessage(long)
	if err == nil || !strings.Contains(err.Error(), "content too long") {
		t.Fatalf("expected length error; got %v", err)
	}
}

func TestErrorsJoined(t *testing.T) {
	err := ValidateUserMessage(models.Message{Role: "system"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Fatalf("expected joined errors; got %q", err.Error())
	}
}
