package roster

import "time"

// Shift is a roster assignment for a single day.
type Shift struct {
	ID        string    `json:"id"`
	StaffID   string    `json:"staffId"`
	Date      time.Time `json:"date"`
	ShiftName string    `json:"shiftName"`
}

// Event is a scheduled commitment (training, meeting) with a datetime window.
type Event struct {
	ID       string    `json:"id"`
	StaffID  string    `json:"staffId"`
	Name     string    `json:"name"`
	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
	Location string    `json:"location,omitempty"`
}
