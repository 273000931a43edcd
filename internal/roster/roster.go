// Package roster implements the attendee aggregation stage: it reads
// the exported events file, deduplicates external attendees, resolves
// their metadata through the enrichment oracle and writes the contact
// roster.
package roster

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"calroster/internal/enrich"
	"calroster/internal/models"
)

// Enricher resolves metadata for one lowercased email address.
type Enricher interface {
	Enrich(ctx context.Context, email string) *enrich.Enrichment
}

// Builder aggregates exported event rows into attendee records.
type Builder struct {
	logger   *slog.Logger
	enricher Enricher
	cache    enrich.Cache
	internal map[string]bool

	records map[string]*models.AttendeeRecord
	order   []string
}

// New creates a Builder. internal is the lowercased exclusion set;
// cache may be nil to disable cross-run memoization.
func New(logger *slog.Logger, enricher Enricher, cache enrich.Cache, internal map[string]bool) *Builder {
	return &Builder{
		logger:   logger,
		enricher: enricher,
		cache:    cache,
		internal: internal,
		records:  make(map[string]*models.AttendeeRecord),
	}
}

// Build reads the events CSV at inPath, aggregates its external
// attendees and writes the roster CSV to outPath.
func (b *Builder) Build(ctx context.Context, inPath, outPath string) error {
	rows, err := readEventRows(inPath)
	if err != nil {
		return err
	}

	for i, row := range rows {
		b.logger.Debug("Processing row.", "row", i+1, "total", len(rows))
		b.consumeRow(ctx, row)
	}

	if err := b.writeRoster(outPath); err != nil {
		return err
	}
	b.logger.Info("Wrote attendee roster.", "file", outPath, "contacts", len(b.order))
	return nil
}

// eventRow is one parsed line of the exported events file.
type eventRow struct {
	End       string
	Attendees string
}

// readEventRows loads the exported events file. Column positions are
// resolved from the header so the reader tolerates reordered columns.
func readEventRows(path string) ([]eventRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open events file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read events header: %w", err)
	}
	endCol, attCol := -1, -1
	for i, name := range header {
		switch name {
		case "End":
			endCol = i
		case "Attendees":
			attCol = i
		}
	}
	if endCol < 0 || attCol < 0 {
		return nil, fmt.Errorf("events file %s is missing the End or Attendees column", path)
	}

	var rows []eventRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read events file: %w", err)
		}
		rows = append(rows, eventRow{End: record[endCol], Attendees: record[attCol]})
	}
}

// consumeRow folds one event row into the record map. Rows whose End
// field does not parse are skipped whole; none of their attendees are
// counted.
func (b *Builder) consumeRow(ctx context.Context, row eventRow) {
	endDate, ok := ParseEndDate(row.End)
	if !ok {
		b.logger.Debug("Skipping row with unparseable end date.", "end", row.End)
		return
	}

	for _, email := range SplitAttendees(row.Attendees) {
		if b.internal[email] {
			continue
		}
		if rec, seen := b.records[email]; seen {
			// ISO dates compare correctly as strings.
			if endDate > rec.LastMeetingDate {
				rec.LastMeetingDate = endDate
			}
			rec.MeetingCount++
			continue
		}
		b.addRecord(ctx, email, endDate)
	}
}

// addRecord creates the record for a first-sighted email, resolving
// its metadata from the cache or, on a miss, from the oracle.
func (b *Builder) addRecord(ctx context.Context, email, endDate string) {
	info := b.lookupOrEnrich(ctx, email)
	b.records[email] = &models.AttendeeRecord{
		Email:           email,
		FirstName:       info.FirstName,
		LastName:        info.LastName,
		FullName:        info.FullName,
		LastMeetingDate: endDate,
		CompanyName:     info.CompanyName,
		Website:         info.Website,
		MeetingCount:    1,
	}
	b.order = append(b.order, email)
}

func (b *Builder) lookupOrEnrich(ctx context.Context, email string) *enrich.Enrichment {
	if b.cache != nil {
		cached, ok, err := b.cache.Lookup(email)
		if err != nil {
			b.logger.Warn("Enrichment cache lookup failed.", "email", email, "error", err)
		} else if ok {
			return cached
		}
	}

	info := b.enricher.Enrich(ctx, email)

	if b.cache != nil {
		if err := b.cache.Store(email, info); err != nil {
			b.logger.Warn("Enrichment cache store failed.", "email", email, "error", err)
		}
	}
	return info
}

// writeRoster writes one row per record in first-seen order.
func (b *Builder) writeRoster(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create roster file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.RosterHeader); err != nil {
		return fmt.Errorf("failed to write roster header: %w", err)
	}
	for _, email := range b.order {
		if err := w.Write(b.records[email].Row()); err != nil {
			return fmt.Errorf("failed to write roster row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush roster file: %w", err)
	}
	return nil
}

// endLayouts are the timestamp shapes the provider emits, after any
// trailing UTC marker has been stripped.
var endLayouts = []string{
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseEndDate parses an event End field to an ISO calendar date. A
// trailing "Z" is stripped before parsing.
func ParseEndDate(s string) (string, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	for _, layout := range endLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// SplitAttendees splits the comma-joined attendees field into
// lowercased email addresses, dropping empty tokens.
func SplitAttendees(s string) []string {
	var emails []string
	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		if token != "" {
			emails = append(emails, strings.ToLower(token))
		}
	}
	return emails
}
