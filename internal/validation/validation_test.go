package validation

import (
	"strings"
	"testing"
	"time"

	"nihongo/internal/models"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{
			name:    "valid email",
			email:   "test@example.com",
			wantErr: false,
		},
		{
			name:    "valid email with subdomain",
			email:   "user@mail.example.com",
			wantErr: false,
		},
		{
			name:    "valid email with plus",
			email:   "user+tag@example.com",
			wantErr: false,
		},
		{
			name:    "missing @",
			email:   "testexample.com",
			wantErr: true,
		},
		{
			name:    "missing domain",
			email:   "test@",
			wantErr: true,
		},
		{
			name:    "missing local part",
			email:   "@example.com",
			wantErr: true,
		},
		{
			name:    "empty string",
			email:   "",
			wantErr: true,
		},
		{
			name:    "spaces in email",
			email:   "test @example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "valid name",
			input:   "John Doe",
			wantErr: false,
		},
		{
			name:    "single name",
			input:   "John",
			wantErr: false,
		},
		{
			name:    "empty name",
			input:   "",
			wantErr: true,
		},
		{
			name:    "name too short",
			input:   "J",
			wantErr: true,
		},
		{
			name:    "name with hyphen",
			input:   "Mary-Jane",
			wantErr: false,
		},
		{
			name:    "name with apostrophe",
			input:   "O'Brien",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateName_Unicode(t *testing.T) {
	if err := ValidateName("花子"); err != nil {
		t.Errorf("ValidateName(花子) error = %v, want nil", err)
	}
	if err := ValidateName(strings.Repeat("あ", MaxNameLength+1)); err == nil {
		t.Error("ValidateName() accepted an over-long name")
	}
}

func TestValidatePersonalInfo(t *testing.T) {
	tests := []struct {
		name    string
		info    models.PersonalInfo
		wantErr bool
	}{
		{"defaults", models.DefaultPersonalInfo("Nguyễn Văn A", ""), false},
		{"empty", models.PersonalInfo{}, false},
		{"full", models.PersonalInfo{FullName: "Hoa", DateOfBirth: "2000-05-17", PhoneNumber: "+84 90 123 4567", PreferredLanguage: "ja", Timezone: "Asia/Tokyo"}, false},
		{"bad date", models.PersonalInfo{DateOfBirth: "17/05/2000"}, true},
		{"bad phone", models.PersonalInfo{PhoneNumber: "call me"}, true},
		{"bad language", models.PersonalInfo{PreferredLanguage: "xx"}, true},
		{"bad timezone", models.PersonalInfo{Timezone: "Mars/Olympus"}, true},
		{"long bio", models.PersonalInfo{Bio: strings.Repeat("a", MaxBioLength+1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePersonalInfo(tt.info)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePersonalInfo() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings models.Settings
		wantErr  bool
	}{
		{"defaults", models.DefaultSettings(), false},
		{"dark english", models.Settings{Theme: "dark", Language: "en"}, false},
		{"unknown theme", models.Settings{Theme: "neon", Language: "vi"}, true},
		{"missing language", models.Settings{Theme: "light"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSettings(tt.settings)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateLearningStats(t *testing.T) {
	if err := ValidateLearningStats(models.DefaultLearningStats()); err != nil {
		t.Errorf("defaults rejected: %v", err)
	}
	err := ValidateLearningStats(models.LearningStats{CurrentStreak: -1})
	ve, ok := err.(ValidationError)
	if !ok || ve.Field != "currentStreak" {
		t.Errorf("error = %v, want currentStreak ValidationError", err)
	}
}

func TestValidateNotification(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(24 * time.Hour)

	valid := models.Notification{
		Title:       "Bảo trì",
		Message:     "Hệ thống sẽ bảo trì lúc 22:00",
		Type:        models.NotificationWarning,
		Priority:    models.PriorityHigh,
		TargetUsers: models.TargetAllUsers,
	}

	tests := []struct {
		name   string
		modify func(n *models.Notification)
		field  string
	}{
		{"valid", func(n *models.Notification) {}, ""},
		{"valid with expiry", func(n *models.Notification) { n.ExpiresAt = &future }, ""},
		{"blank title", func(n *models.Notification) { n.Title = "  " }, "title"},
		{"blank message", func(n *models.Notification) { n.Message = "" }, "message"},
		{"bad type", func(n *models.Notification) { n.Type = "alert" }, "type"},
		{"bad priority", func(n *models.Notification) { n.Priority = "urgent" }, "priority"},
		{"targeted", func(n *models.Notification) { n.TargetUsers = "user-1" }, "targetUsers"},
		{"expired", func(n *models.Notification) { n.ExpiresAt = &past }, "expiresAt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := valid
			tt.modify(&n)
			err := ValidateNotification(n, now)
			if tt.field == "" {
				if err != nil {
					t.Errorf("ValidateNotification() error = %v, want nil", err)
				}
				return
			}
			ve, ok := err.(ValidationError)
			if !ok || ve.Field != tt.field {
				t.Errorf("ValidateNotification() error = %v, want field %q", err, tt.field)
			}
		})
	}
}

func TestValidateQuestion(t *testing.T) {
	if err := ValidateQuestion("question", "「は」と「が」の違いは?"); err != nil {
		t.Errorf("error = %v, want nil", err)
	}
	if err := ValidateQuestion("question", "   "); err == nil {
		t.Error("blank question accepted")
	}
	if err := ValidateQuestion("question", strings.Repeat("あ", MaxQuestionChars+1)); err == nil {
		t.Error("over-long question accepted")
	}
}
