package models

// Activity is one recorded exercise session read from the activities table.
// The external sync tool owns the schema; this service only ever reads it.
// JSON field names match the columns so the HTTP payload mirrors the database.
type Activity struct {
	ActivityID   int64   `json:"activity_id"`
	ActivityName string  `json:"activity_name"`
	StartTimeGMT string  `json:"start_time_gmt"`
	Distance     float64 `json:"distance"`
	Duration     float64 `json:"duration"`
}
