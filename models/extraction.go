package models

// ExtractionResult is the structured reading of a single utterance. It is
// produced fresh each turn. Text fields use the empty string for "not
// mentioned"; Duration always holds a usable value and DurationSpecified
// tells whether the user actually stated it.
type ExtractionResult struct {
	Intent            Intent  `json:"intent"`
	Date              string  `json:"date,omitempty"`
	Time              string  `json:"time,omitempty"`
	MeetingType       string  `json:"meetingType,omitempty"`
	Duration          int     `json:"duration"`
	DurationSpecified bool    `json:"durationSpecified"`
	Urgency           Urgency `json:"urgency"`
	UserName          string  `json:"userName,omitempty"`
	// Source is "classifier" or "rules".
	Source string `json:"source"`
}
