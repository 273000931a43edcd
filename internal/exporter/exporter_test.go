package exporter

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"calroster/internal/google"
	"calroster/internal/models"
)

// fakePager serves a canned multi-page fixture. Page i hands out the
// token for page i+1 until the pages run out.
type fakePager struct {
	pages [][]*models.Event
	err   error
	calls int
}

func (p *fakePager) Page(ctx context.Context, calendarID string, w google.Window, pageToken string) ([]*models.Event, string, error) {
	p.calls++
	if p.err != nil {
		return nil, "", p.err
	}
	i := 0
	if pageToken != "" {
		i, _ = strconv.Atoi(pageToken)
	}
	next := ""
	if i+1 < len(p.pages) {
		next = strconv.Itoa(i + 1)
	}
	return p.pages[i], next, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func event(title, start string) *models.Event {
	return &models.Event{Title: title, Start: start, End: start}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Failed to open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return rows
}

func TestRun_MultiPage(t *testing.T) {
	pager := &fakePager{pages: [][]*models.Event{
		{event("a", "2024-01-01T09:00:00Z"), event("b", "2024-01-02T09:00:00Z")},
		{event("c", "2024-01-03T09:00:00Z")},
		{event("d", "2024-01-04T09:00:00Z"), event("e", "2024-01-05T09:00:00Z")},
	}}
	out := filepath.Join(t.TempDir(), "events.csv")

	w, _ := google.NewWindow("2024-01-01", "2024-01-31")
	exp := New(testLogger(), pager)
	if err := exp.Run(context.Background(), "cal@example.com", w, out, ""); err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}

	if pager.calls != 3 {
		t.Errorf("pager calls = %d, want 3", pager.calls)
	}

	rows := readCSV(t, out)
	if len(rows) != 6 { // header + 5 events
		t.Fatalf("got %d rows, want 6", len(rows))
	}
	if strings.Join(rows[0], ",") != "Title,Description,Start,End,Attendees" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	// Row order must follow the ascending start-time order of the pages.
	want := []string{"a", "b", "c", "d", "e"}
	for i, title := range want {
		if rows[i+1][0] != title {
			t.Errorf("row %d title = %q, want %q", i+1, rows[i+1][0], title)
		}
	}
}

func TestRun_NoEvents(t *testing.T) {
	pager := &fakePager{pages: [][]*models.Event{{}}}
	out := filepath.Join(t.TempDir(), "events.csv")

	w, _ := google.NewWindow("2024-01-01", "2024-01-02")
	exp := New(testLogger(), pager)
	if err := exp.Run(context.Background(), "cal@example.com", w, out, ""); err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}

	rows := readCSV(t, out)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want header only", len(rows))
	}
}

func TestRun_OverwritesPreviousExport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "events.csv")
	if err := os.WriteFile(out, []byte("stale contents\nwith rows\nand more rows\n"), 0644); err != nil {
		t.Fatal(err)
	}

	pager := &fakePager{pages: [][]*models.Event{{event("fresh", "2024-01-01T09:00:00Z")}}}
	w, _ := google.NewWindow("2024-01-01", "2024-01-02")
	exp := New(testLogger(), pager)
	if err := exp.Run(context.Background(), "cal@example.com", w, out, ""); err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}

	rows := readCSV(t, out)
	if len(rows) != 2 || rows[1][0] != "fresh" {
		t.Errorf("expected stale file to be overwritten, got %v", rows)
	}
}

func TestRun_ProviderError(t *testing.T) {
	pager := &fakePager{err: errors.New("listing failed")}
	out := filepath.Join(t.TempDir(), "events.csv")

	w, _ := google.NewWindow("2024-01-01", "2024-01-02")
	exp := New(testLogger(), pager)
	err := exp.Run(context.Background(), "cal@example.com", w, out, "")
	if err == nil {
		t.Fatal("expected error when the provider listing fails")
	}
	// Nothing may have been written: the export aborts before the
	// output file is created.
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("output file should not exist after a failed export")
	}
}

func TestRun_WritesICSSnapshot(t *testing.T) {
	pager := &fakePager{pages: [][]*models.Event{{
		{Title: "Standup", Start: "2024-01-01T09:00:00Z", End: "2024-01-01T09:15:00Z", UID: "uid-1", Attendees: []string{"a@x.com"}},
		{Title: "Offsite", Start: "2024-01-02", End: "2024-01-03"},
	}}}
	dir := t.TempDir()
	out := filepath.Join(dir, "events.csv")
	ics := filepath.Join(dir, "events.ics")

	w, _ := google.NewWindow("2024-01-01", "2024-01-05")
	exp := New(testLogger(), pager)
	if err := exp.Run(context.Background(), "cal@example.com", w, out, ics); err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}

	data, err := os.ReadFile(ics)
	if err != nil {
		t.Fatalf("Failed to read ICS snapshot: %v", err)
	}
	body := string(data)
	if !strings.Contains(body, "BEGIN:VCALENDAR") {
		t.Error("ICS snapshot is missing the VCALENDAR wrapper")
	}
	if !strings.Contains(body, "SUMMARY:Standup") || !strings.Contains(body, "SUMMARY:Offsite") {
		t.Errorf("ICS snapshot is missing event summaries:\n%s", body)
	}
	if !strings.Contains(body, "UID:uid-1") {
		t.Error("ICS snapshot should keep the provider's iCal UID")
	}
}
