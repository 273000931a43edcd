package models

import "strconv"

// RosterHeader is the column order of the attendee roster file.
var RosterHeader = []string{
	"Email", "FirstName", "LastName", "FullName",
	"LastMeetingDate", "CompanyName", "Website", "MeetingCount",
}

// AttendeeRecord is one external meeting contact, keyed by the
// lowercased email address. Exactly one record exists per distinct
// external email; internal addresses never produce a record.
type AttendeeRecord struct {
	Email           string
	FirstName       string
	LastName        string
	FullName        string
	LastMeetingDate string // ISO calendar date (YYYY-MM-DD)
	CompanyName     string
	Website         string
	MeetingCount    int
}

// Row projects the record into one CSV record of the roster file.
func (r *AttendeeRecord) Row() []string {
	return []string{
		r.Email, r.FirstName, r.LastName, r.FullName,
		r.LastMeetingDate, r.CompanyName, r.Website,
		strconv.Itoa(r.MeetingCount),
	}
}
