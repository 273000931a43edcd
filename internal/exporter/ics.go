package exporter

import (
	"fmt"
	"os"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"calroster/internal/models"
)

// writeICS encodes the exported events as a single VCALENDAR so the
// window can be re-imported into any calendar application.
func writeICS(path string, events []*models.Event) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//calroster//EN")

	now := time.Now().UTC()
	for _, event := range events {
		cal.Children = append(cal.Children, toVEvent(event, now))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create ICS file: %w", err)
	}
	defer f.Close()

	if err := ical.NewEncoder(f).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode ICS snapshot: %w", err)
	}
	return nil
}

// toVEvent converts an exported event to an iCal VEVENT component.
func toVEvent(event *models.Event, stamp time.Time) *ical.Component {
	uid := event.UID
	if uid == "" {
		uid = uuid.New().String()
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid)
	ve.Props.SetText(ical.PropSummary, event.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	if t, ok := parseEventTime(event.Start); ok {
		ve.Props.SetDateTime(ical.PropDateTimeStart, t)
	}
	if t, ok := parseEventTime(event.End); ok {
		ve.Props.SetDateTime(ical.PropDateTimeEnd, t)
	}
	if event.Description != "" {
		ve.Props.SetText(ical.PropDescription, event.Description)
	}
	for _, attendee := range event.Attendees {
		p := ical.NewProp(ical.PropAttendee)
		p.SetText(fmt.Sprintf("mailto:%s", attendee))
		ve.Props.Add(p)
	}
	return ve
}

// parseEventTime handles both granularities the provider emits:
// RFC3339 date-times for timed events and bare dates for all-day ones.
func parseEventTime(s string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
