package model

import (
	"time"

	"github.com/google/uuid"
)

// Satisfaction levels accepted for a mood log.
const (
	SatisfactionVeryGood     = "Very good"
	SatisfactionGood         = "Good"
	SatisfactionNotSoGood    = "Not so good"
	SatisfactionNotGoodAtAll = "Not good at all"
)

// Moods is the fixed set of moods a log may carry.
var Moods = []string{
	"😊 Happy",
	"❤️ Romantic",
	"🤩 Excited",
	"🤪 Weird",
	"🌈 Hopeful",
	"😴 Sleepy",
	"😫 Stressed",
	"😡 Angry",
	"😐 Neutral",
	"😢 Sad",
	"😌 Relaxed",
	"💪 Motivated",
	"✨ Inspired",
	"🎨 Creative",
	"🤔 Thoughtful",
	"🪞 Reflective",
	"😔 Pensive",
	"🌙 Dreamy",
	"🕰️ Nostalgic",
	"😭 Emotional",
	"😰 Anxious",
	"😕 Confused",
	"😤 Frustrated",
	"🤡 Silly",
	"🧐 Curious",
	"🏞️ Adventurous",
}

// ValidMood reports whether mood is one of the accepted values.
func ValidMood(mood string) bool {
	for _, m := range Moods {
		if m == mood {
			return true
		}
	}
	return false
}

// ValidSatisfaction reports whether s is one of the accepted levels.
func ValidSatisfaction(s string) bool {
	switch s {
	case SatisfactionVeryGood, SatisfactionGood, SatisfactionNotSoGood, SatisfactionNotGoodAtAll:
		return true
	}
	return false
}

// User represents a registered account.
// PasswordHash is populated only by credentialed repo lookups; default reads
// leave it empty so it never escapes into responses.
type User struct {
	ID                 uuid.UUID `json:"_id"`
	Name               string    `json:"name,omitempty"`
	Username           string    `json:"username,omitempty"`
	Phone              string    `json:"phone,omitempty"`
	Email              string    `json:"email"`
	Role               string    `json:"role"`
	PasswordHash       string    `json:"-"`
	Verified           bool      `json:"verified"`
	VerificationToken  string    `json:"-"`
	PasswordResetToken string    `json:"-"`
	RefreshToken       string    `json:"-"`
	LastActive         time.Time `json:"lastActive"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// MoodLog is a single day's entry for a user. One log per user per calendar
// day (unique on user_id + date); Date is stored as UTC midnight.
type MoodLog struct {
	ID           uuid.UUID `json:"_id"`
	UserID       uuid.UUID `json:"userId"`
	Date         time.Time `json:"date"`
	Mood         string    `json:"mood"`
	EmojiCode    string    `json:"emojiCode,omitempty"`
	Thoughts     string    `json:"thoughts,omitempty"`
	Satisfaction string    `json:"satisfaction,omitempty"`
	WaterGlasses int       `json:"waterGlasses"`
	SleepHours   int       `json:"sleepHours"`
	Status       bool      `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
