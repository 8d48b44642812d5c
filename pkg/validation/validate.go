package validation

import (
	"errors"
	"fmt"
	"strings"

	"docchat/pkg/models"
)

// Rules are the configurable checks applied to inbound messages before
// they reach the thread store.
type Rules struct {
	// MaxContentLen caps user message length in bytes; 0 disables the cap.
	MaxContentLen int
}

var rules Rules

func SetRules(r Rules) { rules = r }

// ValidateUserMessage checks a user-authored message prior to append.
func ValidateUserMessage(m models.Message) error {
	var errs []string
	if m.Role != models.RoleUser {
		errs = append(errs, fmt.Sprintf("unexpected role: %q", m.Role))
	}
	if strings.TrimSpace(m.Content) == "" {
		errs = append(errs, "content is required")
	}
	if rules.MaxContentLen > 0 && len(m.Content) > rules.MaxContentLen {
		errs = append(errs, fmt.Sprintf("content too long: %d > %d", len(m.Content), rules.MaxContentLen))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
