package integrations

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dvloznov/decision-ease/internal/domain"
	"github.com/dvloznov/decision-ease/internal/notice"
	"github.com/rs/zerolog"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// EventInserter creates calendar events.
type EventInserter interface {
	InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error)
}

// CalendarExporter adds one all-day event per upcoming charge.
type CalendarExporter struct {
	events     EventInserter
	calendarID string
	log        zerolog.Logger
}

// NewCalendarExporter builds an exporter backed by the Calendar API. An empty
// credentialsFile falls back to Application Default Credentials.
func NewCalendarExporter(ctx context.Context, credentialsFile, calendarID string, log zerolog.Logger) (*CalendarExporter, error) {
	opts := []option.ClientOption{option.WithScopes(calendar.CalendarEventsScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewCalendarExporter: %w", err)
	}

	return NewCalendarExporterWithInserter(&calendarAPI{svc: svc}, calendarID, log), nil
}

// NewCalendarExporterWithInserter builds an exporter around any EventInserter.
func NewCalendarExporterWithInserter(events EventInserter, calendarID string, log zerolog.Logger) *CalendarExporter {
	return &CalendarExporter{
		events:     events,
		calendarID: calendarID,
		log:        log,
	}
}

func (c *CalendarExporter) Target() domain.Integration {
	return domain.IntegrationCalendar
}

// Export inserts the events. Event IDs are derived from the subscription and
// charge date, so exporting twice does not duplicate events.
func (c *CalendarExporter) Export(ctx context.Context, st *domain.State, today time.Time) (int, error) {
	created := 0
	for _, charge := range notice.UpcomingCharges(activeSubscriptions(st.Subscriptions), today) {
		event := chargeEvent(charge)

		_, err := c.events.InsertEvent(ctx, c.calendarID, event)
		if isConflict(err) {
			c.log.Debug().Str("event_id", event.Id).Msg("Calendar event already exists")
			continue
		}
		if err != nil {
			return created, fmt.Errorf("CalendarExporter.Export: insert %q: %w", charge.Subscription.Name, err)
		}
		created++
	}
	return created, nil
}

func chargeEvent(charge notice.Charge) *calendar.Event {
	day := charge.NextChargeDate.Format(domain.DateLayout)
	end := charge.NextChargeDate.AddDate(0, 0, 1).Format(domain.DateLayout)

	return &calendar.Event{
		Id:           eventID(charge.Subscription.ID, day),
		Summary:      fmt.Sprintf("%s charge", charge.Subscription.Name),
		Description:  fmt.Sprintf("%d yen is scheduled to be billed.", charge.Subscription.Amount),
		Start:        &calendar.EventDateTime{Date: day},
		End:          &calendar.EventDateTime{Date: end},
		Transparency: "transparent",
	}
}

// eventID returns a stable ID in the base32hex alphabet the API requires.
func eventID(subscriptionID, day string) string {
	sum := sha1.Sum([]byte(subscriptionID + "|" + day))
	return "de" + hex.EncodeToString(sum[:])
}

func isConflict(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}

type calendarAPI struct {
	svc *calendar.Service
}

func (a *calendarAPI) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	return a.svc.Events.Insert(calendarID, event).Context(ctx).Do()
}

var _ Exporter = (*CalendarExporter)(nil)
