package models

import "time"

// UserProfile is the per-account document created on first sign-in
type UserProfile struct {
	UID           string        `json:"uid"`
	DisplayName   string        `json:"displayName"`
	Email         string        `json:"email"`
	PhotoURL      string        `json:"photoURL"`
	PersonalInfo  PersonalInfo  `json:"personalInfo"`
	LearningStats LearningStats `json:"learningStats"`
	Settings      Settings      `json:"settings"`
	IsAdmin       bool          `json:"isAdmin"`
	CreatedAt     time.Time     `json:"createdAt"`
	LastLoginAt   time.Time     `json:"lastLoginAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// PersonalInfo holds the editable personal details of a profile
type PersonalInfo struct {
	FullName          string     `json:"fullName"`
	Nickname          string     `json:"nickname"`
	DateOfBirth       string     `json:"dateOfBirth"`
	PhoneNumber       string     `json:"phoneNumber"`
	Address           string     `json:"address"`
	Bio               string     `json:"bio"`
	LearningGoals     string     `json:"learningGoals"`
	PreferredLanguage string     `json:"preferredLanguage"`
	Timezone          string     `json:"timezone"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

// LearningStats tracks study activity. TotalStudyTime is in seconds.
type LearningStats struct {
	TotalStudyTime   int        `json:"totalStudyTime"`
	TotalSessions    int        `json:"totalSessions"`
	CurrentStreak    int        `json:"currentStreak"`
	LongestStreak    int        `json:"longestStreak"`
	LastStudyDate    *time.Time `json:"lastStudyDate"`
	FavoriteTopics   []string   `json:"favoriteTopics"`
	CompletedLessons int        `json:"completedLessons"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
}

// Settings holds application preferences
type Settings struct {
	Notifications bool       `json:"notifications"`
	SoundEnabled  bool       `json:"soundEnabled"`
	AutoPlay      bool       `json:"autoPlay"`
	Theme         string     `json:"theme"`
	Language      string     `json:"language"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// DefaultPersonalInfo returns the personal info a new profile starts with
func DefaultPersonalInfo(fullName, timezone string) PersonalInfo {
	if timezone == "" {
		timezone = "Asia/Ho_Chi_Minh"
	}
	return PersonalInfo{
		FullName:          fullName,
		PreferredLanguage: "vi",
		Timezone:          timezone,
	}
}

// DefaultLearningStats returns zeroed stats
func DefaultLearningStats() LearningStats {
	return LearningStats{FavoriteTopics: []string{}}
}

// DefaultSettings returns the settings a new profile starts with
func DefaultSettings() Settings {
	return Settings{
		Notifications: true,
		SoundEnabled:  true,
		AutoPlay:      false,
		Theme:         "light",
		Language:      "vi",
	}
}

// RecordSession adds one study session at the given time. Streaks count
// consecutive calendar days in the time's location.
func (s *LearningStats) RecordSession(at time.Time, seconds int) {
	if seconds > 0 {
		s.TotalStudyTime += seconds
	}
	s.TotalSessions++

	today := truncateDay(at)
	switch {
	case s.LastStudyDate == nil:
		s.CurrentStreak = 1
	default:
		last := truncateDay(s.LastStudyDate.In(at.Location()))
		days := int(today.Sub(last).Hours() / 24)
		switch {
		case days <= 0:
			if s.CurrentStreak == 0 {
				s.CurrentStreak = 1
			}
		case days == 1:
			s.CurrentStreak++
		default:
			s.CurrentStreak = 1
		}
	}

	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastStudyDate = &at
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Session is an authenticated sign-in, carried in a signed token
type Session struct {
	UserID    string
	Email     string
	Name      string
	IsAdmin   bool
	ExpiresAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
