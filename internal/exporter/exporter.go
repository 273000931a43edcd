// Package exporter implements the event export stage: it drains every
// page of a calendar window and writes the flattened events to a CSV
// file, with an optional ICS snapshot alongside.
package exporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"

	"calroster/internal/google"
	"calroster/internal/models"
)

// Pager lists one page of calendar events at a time. An empty
// continuation token in the response marks the final page.
type Pager interface {
	Page(ctx context.Context, calendarID string, w google.Window, pageToken string) ([]*models.Event, string, error)
}

// Exporter drives the export of a single calendar window.
type Exporter struct {
	logger *slog.Logger
	source Pager
}

// New creates an Exporter reading events from source.
func New(logger *slog.Logger, source Pager) *Exporter {
	return &Exporter{logger: logger, source: source}
}

// Run fetches every event in the window and writes the events CSV to
// outPath, overwriting any previous export. When icsPath is non-empty
// an ICS snapshot of the same events is written there as well.
func (e *Exporter) Run(ctx context.Context, calendarID string, w google.Window, outPath, icsPath string) error {
	events, err := e.fetchAll(ctx, calendarID, w)
	if err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}

	if len(events) == 0 {
		e.logger.Info("No events found in this range.")
	}

	if err := writeCSV(outPath, events); err != nil {
		return err
	}
	e.logger.Info("Wrote events file.", "file", outPath, "count", len(events))

	if icsPath != "" {
		if err := writeICS(icsPath, events); err != nil {
			return err
		}
		e.logger.Info("Wrote ICS snapshot.", "file", icsPath)
	}
	return nil
}

// fetchAll accumulates all pages of the window, in the ascending
// start-time order the provider returns them.
func (e *Exporter) fetchAll(ctx context.Context, calendarID string, w google.Window) ([]*models.Event, error) {
	var (
		all       []*models.Event
		pageToken string
	)
	for {
		events, next, err := e.source.Page(ctx, calendarID, w, pageToken)
		if err != nil {
			return nil, err
		}
		all = append(all, events...)
		if next == "" {
			return all, nil
		}
		pageToken = next
	}
}

// writeCSV writes the header and one row per event.
func writeCSV(path string, events []*models.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.EventHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, event := range events {
		if err := w.Write(event.Row()); err != nil {
			return fmt.Errorf("failed to write event row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush output file: %w", err)
	}
	return nil
}
