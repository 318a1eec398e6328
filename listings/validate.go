package listings

import (
	"strings"

	"driza/errs"
	"driza/models"
)

const (
	maxTitleLen       = 65
	maxDescriptionLen = 4000
	minPhoneDigits    = 10
	maxPhoneDigits    = 20
)

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validate(l models.Listing) error {
	title := strings.TrimSpace(l.Title)
	if title == "" {
		return errs.Invalid("title", "required")
	}
	if len(title) > maxTitleLen {
		return errs.Invalid("title", "too long")
	}
	if strings.TrimSpace(l.Description) == "" {
		return errs.Invalid("description", "required")
	}
	if len(l.Description) > maxDescriptionLen {
		return errs.Invalid("description", "too long")
	}
	if len(l.Phone) < minPhoneDigits || len(l.Phone) > maxPhoneDigits || !digitsOnly(l.Phone) {
		return errs.Invalid("phone", "must be 10 to 20 digits")
	}
	return nil
}
