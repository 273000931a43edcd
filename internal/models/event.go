package models

import "strings"

// NoTitle is the placeholder written for events without a summary.
const NoTitle = "(No Title)"

// EventHeader is the column order of the exported events file.
var EventHeader = []string{"Title", "Description", "Start", "End", "Attendees"}

// Event represents a single calendar event flattened for export.
// Start and End carry whichever granularity the provider supplied:
// an RFC3339 date-time for timed events, or a bare YYYY-MM-DD date
// for all-day events.
type Event struct {
	Title       string
	Description string
	Start       string
	End         string
	UID         string // iCalendar UID, kept for the ICS snapshot
	Attendees   []string
}

// Row projects the event into one CSV record. Attendee emails are
// joined with a comma and a space.
func (e *Event) Row() []string {
	return []string{e.Title, e.Description, e.Start, e.End, strings.Join(e.Attendees, ", ")}
}
