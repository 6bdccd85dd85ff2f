package models

// Participant is the other side of a conversation
type Participant struct {
	Name string // Empty when the source has no name
}

// LatestMessage is the most recent message of a conversation
type LatestMessage struct {
	Text      string
	Timestamp string // ISO-8601, may be malformed
}

// SessionSummary describes one conversation thread for list rendering
type SessionSummary struct {
	ID            string
	Participant   Participant
	LatestMessage *LatestMessage // nil when the thread has no messages
	UnreadCount   int
}

// DisplayName returns the participant name or "Unknown"
func (s SessionSummary) DisplayName() string {
	if s.Participant.Name == "" {
		return "Unknown"
	}
	return s.Participant.Name
}

// ProportionRecord feeds the status ring chart
type ProportionRecord struct {
	OnHold     float64
	InProgress float64
	Completed  float64
}

// Values returns the record in segment order
func (r ProportionRecord) Values() []float64 {
	return []float64{r.OnHold, r.InProgress, r.Completed}
}

// Total is the sum of all segments
func (r ProportionRecord) Total() float64 {
	return r.OnHold + r.InProgress + r.Completed
}

// CategoryEntry is one bar of the categorical chart
type CategoryEntry struct {
	Title   string
	Count   float64
	Tooltip string
}

// MenuItem identifies an account menu entry
type MenuItem int

const (
	MenuProfile MenuItem = iota
	MenuChangePassword
	MenuLogout
)

func (i MenuItem) String() string {
	switch i {
	case MenuProfile:
		return "profile"
	case MenuChangePassword:
		return "change-password"
	case MenuLogout:
		return "logout"
	}
	return "unknown"
}
