// Package calendar integrates with Google Calendar through a tenant's OAuth
// refresh token.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Event is the provider-neutral event payload.
type Event struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	// Timezone is the IANA zone the event times are expressed in.
	Timezone string
}

// CreatedEvent identifies an event created on the provider.
type CreatedEvent struct {
	EventID   string
	EventLink string
}

// GoogleAdapter creates and deletes events on one tenant's calendar.
type GoogleAdapter struct {
	svc        *gcal.Service
	calendarID string
}

// NewGoogleAdapter builds a calendar client from the app's OAuth credentials
// and the tenant's refresh token. An empty calendarID targets the tenant's
// primary calendar.
func NewGoogleAdapter(ctx context.Context, clientID, clientSecret, refreshToken, calendarID string) (*GoogleAdapter, error) {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarEventsScope},
	}
	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("calendar: build service: %w", err)
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleAdapter{svc: svc, calendarID: calendarID}, nil
}

// CreateEvent inserts the event and returns its provider ID and HTML link.
func (g *GoogleAdapter) CreateEvent(ctx context.Context, ev Event) (*CreatedEvent, error) {
	item := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.Timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.Timezone,
		},
	}

	created, err := g.svc.Events.Insert(g.calendarID, item).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: insert event: %w", err)
	}
	return &CreatedEvent{EventID: created.Id, EventLink: created.HtmlLink}, nil
}

// DeleteEvent removes a previously created event. Used when a scheduled
// appointment is cancelled.
func (g *GoogleAdapter) DeleteEvent(ctx context.Context, eventID string) error {
	if err := g.svc.Events.Delete(g.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("calendar: delete event %s: %w", eventID, err)
	}
	return nil
}

// EventCancelled reports whether the event was deleted or cancelled on the
// provider side. A 404 counts as cancelled; Google keeps tombstones with
// status "cancelled" for a while before they 404.
func (g *GoogleAdapter) EventCancelled(ctx context.Context, eventID string) (bool, error) {
	ev, err := g.svc.Events.Get(g.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return true, nil
		}
		return false, fmt.Errorf("calendar: get event %s: %w", eventID, err)
	}
	return ev.Status == "cancelled", nil
}
