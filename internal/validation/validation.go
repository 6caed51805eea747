package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata" // timezone checks must not depend on the host zoneinfo
	"unicode/utf8"

	"nihongo/internal/models"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9 ()\-]{6,20}$`)
)

const (
	MaxNameLength    = 100
	MaxBioLength     = 500
	MaxTextLength    = 200
	MaxTitleLength   = 120
	MaxMessageLength = 2000
	MaxQuestionChars = 2000
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateName checks if a display name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if utf8.RuneCountInString(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return ValidationError{Field: "name", Message: "name is too long"}
	}
	return nil
}

// ValidatePersonalInfo checks the editable personal fields of a profile.
// Every field is optional.
func ValidatePersonalInfo(info models.PersonalInfo) error {
	limits := []struct {
		field string
		value string
		max   int
	}{
		{"fullName", info.FullName, MaxNameLength},
		{"nickname", info.Nickname, MaxNameLength},
		{"address", info.Address, MaxTextLength},
		{"bio", info.Bio, MaxBioLength},
		{"learningGoals", info.LearningGoals, MaxBioLength},
		{"timezone", info.Timezone, MaxNameLength},
	}
	for _, l := range limits {
		if utf8.RuneCountInString(l.value) > l.max {
			return ValidationError{Field: l.field, Message: fmt.Sprintf("must be at most %d characters", l.max)}
		}
	}

	if info.DateOfBirth != "" {
		if _, err := time.Parse("2006-01-02", info.DateOfBirth); err != nil {
			return ValidationError{Field: "dateOfBirth", Message: "must be a date in YYYY-MM-DD format"}
		}
	}
	if info.PhoneNumber != "" && !phoneRegex.MatchString(info.PhoneNumber) {
		return ValidationError{Field: "phoneNumber", Message: "invalid phone number"}
	}
	if info.PreferredLanguage != "" && !isLanguage(info.PreferredLanguage) {
		return ValidationError{Field: "preferredLanguage", Message: "unsupported language"}
	}
	if info.Timezone != "" {
		if _, err := time.LoadLocation(info.Timezone); err != nil {
			return ValidationError{Field: "timezone", Message: "unknown timezone"}
		}
	}
	return nil
}

// ValidateSettings checks application preferences
func ValidateSettings(s models.Settings) error {
	switch s.Theme {
	case "light", "dark", "system":
	default:
		return ValidationError{Field: "theme", Message: "theme must be light, dark or system"}
	}
	if !isLanguage(s.Language) {
		return ValidationError{Field: "language", Message: "unsupported language"}
	}
	return nil
}

// ValidateLearningStats rejects negative counters
func ValidateLearningStats(s models.LearningStats) error {
	counters := map[string]int{
		"totalStudyTime":   s.TotalStudyTime,
		"totalSessions":    s.TotalSessions,
		"currentStreak":    s.CurrentStreak,
		"longestStreak":    s.LongestStreak,
		"completedLessons": s.CompletedLessons,
	}
	for field, v := range counters {
		if v < 0 {
			return ValidationError{Field: field, Message: "must not be negative"}
		}
	}
	return nil
}

// ValidateNotification checks an admin broadcast before it is stored
func ValidateNotification(n models.Notification, now time.Time) error {
	title := strings.TrimSpace(n.Title)
	if title == "" {
		return ValidationError{Field: "title", Message: "title is required"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ValidationError{Field: "title", Message: "title is too long"}
	}

	message := strings.TrimSpace(n.Message)
	if message == "" {
		return ValidationError{Field: "message", Message: "message is required"}
	}
	if utf8.RuneCountInString(message) > MaxMessageLength {
		return ValidationError{Field: "message", Message: "message is too long"}
	}

	switch n.Type {
	case models.NotificationInfo, models.NotificationSuccess, models.NotificationWarning, models.NotificationError:
	default:
		return ValidationError{Field: "type", Message: "type must be info, success, warning or error"}
	}
	switch n.Priority {
	case models.PriorityLow, models.PriorityNormal, models.PriorityHigh:
	default:
		return ValidationError{Field: "priority", Message: "priority must be low, normal or high"}
	}
	if n.TargetUsers != models.TargetAllUsers {
		return ValidationError{Field: "targetUsers", Message: "only broadcasts to all users are supported"}
	}
	if n.ExpiresAt != nil && !n.ExpiresAt.After(now) {
		return ValidationError{Field: "expiresAt", Message: "expiry must be in the future"}
	}
	return nil
}

// ValidateQuestion checks free text sent to the AI helper
func ValidateQuestion(field, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ValidationError{Field: field, Message: "is required"}
	}
	if utf8.RuneCountInString(text) > MaxQuestionChars {
		return ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters", MaxQuestionChars)}
	}
	return nil
}

func isLanguage(code string) bool {
	switch code {
	case "vi", "en", "ja":
		return true
	}
	return false
}
