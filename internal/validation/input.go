package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
	emailRe    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// ValidateUsername checks username length and character set.
func ValidateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return fmt.Errorf("username must be 3-30 characters of letters, digits or underscores")
	}
	return nil
}

// ValidateEmail performs a light-weight email shape check; real verification
// happens via the confirmation mail flow.
func ValidateEmail(email string) error {
	if len(email) > 254 || !emailRe.MatchString(strings.TrimSpace(email)) {
		return fmt.Errorf("email address is not valid")
	}
	return nil
}
