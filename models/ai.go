package models

// ChatRequest is the payload coming from the frontend into /api/chat.
type ChatRequest struct {
	Message   string `json:"message" binding:"required"`
	SessionID string `json:"session_id"` // opaque; a new one is issued when empty
}

// ChatResponse is what the chat handler returns to the frontend.
type ChatResponse struct {
	Response         string   `json:"response"`
	SessionID        string   `json:"session_id"`
	Outcome          string   `json:"outcome"`
	Phase            string   `json:"phase"`
	Slots            []Slot   `json:"slots,omitempty"` // the offered (displayed) candidates
	SelectedSlot     *Slot    `json:"selected_slot,omitempty"`
	BookingConfirmed bool     `json:"booking_confirmed"`
	Booking          *Receipt `json:"booking,omitempty"`
	Retryable        bool     `json:"retryable,omitempty"`
	Degraded         bool     `json:"degraded,omitempty"`
}
