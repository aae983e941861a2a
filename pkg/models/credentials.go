package models

// Credentials are the Garmin Connect login fields received from the browser.
// They exist for the duration of a single sync request and must never be
// echoed back in responses or written to logs.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// IsComplete reports whether both fields are present and non-empty.
func (c Credentials) IsComplete() bool {
	return c.Username != "" && c.Password != ""
}
