package dto

// RawEvent is the inbound event body before validation. It is kept as a
// map because required-field checks use truthiness semantics (an empty
// string fails "site_id is required") and values of any JSON type are
// coerced to strings during normalization, neither of which binding tags
// can express. A JSON `null` body decodes to a nil map.
type RawEvent map[string]any

// QueueEvent is the normalized queue entry pushed by the gateway and
// consumed by the worker. All fields are strings or null; the timestamp
// stays a string until the worker parses it.
type QueueEvent struct {
	SiteID    string  `json:"site_id"`
	EventType string  `json:"event_type"`
	Path      *string `json:"path"`
	UserID    *string `json:"user_id"`
	Timestamp string  `json:"timestamp"`
}
