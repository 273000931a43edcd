package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"calroster/internal/models"
)

const credentialsFile = "credentials.json"

// Window is a half-open event time window [Min, Max).
type Window struct {
	Min time.Time
	Max time.Time
}

// NewWindow builds the export window from two inclusive YYYY-MM-DD
// bounds. The upper bound is the day after "to" at midnight, so every
// event starting on the "to" date is included regardless of its
// time of day.
func NewWindow(from, to string) (Window, error) {
	min, err := time.Parse("2006-01-02", from)
	if err != nil {
		return Window{}, fmt.Errorf("invalid start date %q, want YYYY-MM-DD: %w", from, err)
	}
	max, err := time.Parse("2006-01-02", to)
	if err != nil {
		return Window{}, fmt.Errorf("invalid end date %q, want YYYY-MM-DD: %w", to, err)
	}
	return Window{Min: min, Max: max.AddDate(0, 0, 1)}, nil
}

// CalendarClient provides read access to the Google Calendar API.
type CalendarClient struct {
	service *calendar.Service
	logger  *slog.Logger
}

// NewClient creates an authenticated Google Calendar client from the
// token stored at tokenFile. An expired token with a refresh token is
// refreshed transparently and the new token is persisted back to the
// same file, so subsequent runs skip interactive authorization.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret, tokenFile string) (*CalendarClient, error) {
	config, err := getOAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token from %s: %w. Please run the 'auth' command first", tokenFile, err)
	}

	if !token.Valid() && token.RefreshToken != "" {
		refreshed, err := config.TokenSource(ctx, token).Token()
		if err != nil {
			return nil, fmt.Errorf("failed to refresh expired token: %w", err)
		}
		if err := SaveToken(tokenFile, refreshed); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
		}
		logger.Info("Refreshed and persisted access token.", "file", tokenFile)
		token = refreshed
	}

	client := config.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &CalendarClient{service: service, logger: logger}, nil
}

// Page fetches one page of events within the window, sorted ascending
// by start time with recurring events expanded into single instances.
// An empty pageToken requests the first page; an empty returned token
// means this was the last page.
func (c *CalendarClient) Page(ctx context.Context, calendarID string, w Window, pageToken string) ([]*models.Event, string, error) {
	c.logger.Debug("Fetching events page", "calendarID", calendarID, "pageToken", pageToken != "")

	call := c.service.Events.List(calendarID).
		Context(ctx).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(w.Min.UTC().Format(time.RFC3339)).
		TimeMax(w.Max.UTC().Format(time.RFC3339))
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	result, err := call.Do()
	if err != nil {
		return nil, "", fmt.Errorf("failed to retrieve events: %w", err)
	}

	return toInternalEvents(result.Items), result.NextPageToken, nil
}

// toInternalEvents converts Google Calendar events to the internal
// Event model, applying the export row projection rules.
func toInternalEvents(googleEvents []*calendar.Event) []*models.Event {
	events := make([]*models.Event, 0, len(googleEvents))
	for _, item := range googleEvents {
		title := item.Summary
		if title == "" {
			title = models.NoTitle
		}

		var attendees []string
		for _, a := range item.Attendees {
			if a.Email != "" {
				attendees = append(attendees, a.Email)
			}
		}

		events = append(events, &models.Event{
			Title:       title,
			Description: item.Description,
			Start:       eventTime(item.Start),
			End:         eventTime(item.End),
			UID:         item.ICalUID,
			Attendees:   attendees,
		})
	}
	return events
}

// eventTime prefers the date-time field, falling back to the
// date-only field for all-day events.
func eventTime(t *calendar.EventDateTime) string {
	if t == nil {
		return ""
	}
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

// GetOAuthConfigForAuthFlow is used by the auth command to get the config for the web flow.
func GetOAuthConfigForAuthFlow(clientID, clientSecret string) (*oauth2.Config, error) {
	return getOAuthConfig(clientID, clientSecret)
}

// getOAuthConfig reads credentials and returns an OAuth2 config.
// It prioritizes environment variables over a local credentials.json file.
func getOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if _, ok := err.(*fs.PathError); ok {
			return nil, fmt.Errorf("credentials.json not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place credentials.json in the working directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob" // For desktop app flow
	return config, nil
}

// TokenFromWeb is called by the auth flow to retrieve a token.
func TokenFromWeb(config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(context.Background(), authCode)
}

// SaveToken saves a token to a file path. The file carries the
// refresh token, so it is written readable by the owner only and its
// contents are never logged.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}
