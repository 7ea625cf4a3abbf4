package models

import "time"

// Appointment is the record handed to the calendar backend on commit.
type Appointment struct {
	ID          string    `bson:"id" json:"id"`
	Start       time.Time `bson:"start" json:"start"`
	End         time.Time `bson:"end" json:"end"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description" json:"description"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// Receipt describes a successfully committed booking.
type Receipt struct {
	AppointmentID string    `json:"appointmentId"`
	Slot          Slot      `json:"slot"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	MeetingType   string    `json:"meetingType"`
	Duration      int       `json:"duration"`
	UserName      string    `json:"userName,omitempty"`
	BookedAt      time.Time `json:"bookedAt"`
}

// PreferenceSummary is what we remember about a user between sessions.
type PreferenceSummary struct {
	Key                  string    `bson:"key" json:"key"`
	PreferredDuration    int       `bson:"preferred_duration" json:"preferredDuration"`
	PreferredMeetingType string    `bson:"preferred_meeting_type" json:"preferredMeetingType"`
	LastBooking          time.Time `bson:"last_booking" json:"lastBooking"`
	UpdatedAt            time.Time `bson:"updated_at" json:"updatedAt"`
}

// ReminderPayload is the asynq payload for a booking reminder.
type ReminderPayload struct {
	AppointmentID string    `json:"appointmentId"`
	UserName      string    `json:"userName,omitempty"`
	Title         string    `json:"title"`
	Start         time.Time `json:"start"`
}
