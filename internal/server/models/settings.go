package models

type Settings struct {
	UserID      string
	Language    string
	Theme       string
	AccentColor string
}

// DefaultSettings returns the settings every new principal starts with.
func DefaultSettings(userID, accentColor string) *Settings {
	return &Settings{
		UserID:      userID,
		Language:    "it",
		Theme:       "light",
		AccentColor: accentColor,
	}
}
