package integrations

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/decision-ease/internal/domain"
	"github.com/dvloznov/decision-ease/internal/jobs"
	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

var today = time.Date(2024, 6, 21, 12, 0, 0, 0, time.UTC)

func testState() *domain.State {
	st := domain.NewState(42000)
	st.Transactions = domain.SampleTransactions()
	st.Subscriptions = []domain.Subscription{
		{ID: "sub-Spotify", Name: "Spotify", Amount: 980, RenewalDay: 2, Status: domain.StatusActive, Category: domain.CategoryEntertainment, Detected: true},
		{ID: "manual-1", Name: "Gym", Amount: 7000, RenewalDay: 25, Status: domain.StatusPaused, Category: domain.CategoryUncategorized},
	}
	return st
}

// mockStates is a StateLoader returning a fixed state.
type mockStates struct {
	LoadFunc func(ctx context.Context) (*domain.State, error)
}

func (m *mockStates) Load(ctx context.Context) (*domain.State, error) {
	return m.LoadFunc(ctx)
}

// mockExporter records calls.
type mockExporter struct {
	target     domain.Integration
	ExportFunc func(ctx context.Context, st *domain.State, today time.Time) (int, error)
	calls      int
}

func (m *mockExporter) Target() domain.Integration { return m.target }

func (m *mockExporter) Export(ctx context.Context, st *domain.State, today time.Time) (int, error) {
	m.calls++
	if m.ExportFunc != nil {
		return m.ExportFunc(ctx, st, today)
	}
	return 1, nil
}

func TestDispatcher_Handle(t *testing.T) {
	enabled := func(on bool) *mockStates {
		return &mockStates{LoadFunc: func(ctx context.Context) (*domain.State, error) {
			st := testState()
			st.Integrations[domain.IntegrationDrive] = on
			return st, nil
		}}
	}

	tests := []struct {
		name        string
		states      *mockStates
		exportErr   error
		target      domain.Integration
		wantOK      bool
		wantErr     error
		wantNoRetry bool
		wantCalls   int
	}{
		{name: "runs enabled exporter", states: enabled(true), target: domain.IntegrationDrive, wantOK: true, wantCalls: 1},
		{name: "switched off", states: enabled(false), target: domain.IntegrationDrive, wantErr: ErrDisabled, wantNoRetry: true},
		{name: "no exporter configured", states: enabled(true), target: domain.IntegrationNotion, wantErr: ErrUnavailable, wantNoRetry: true},
		{
			name: "state load failure is retryable",
			states: &mockStates{LoadFunc: func(ctx context.Context) (*domain.State, error) {
				return nil, errors.New("db down")
			}},
			target: domain.IntegrationDrive,
		},
		{name: "exporter failure is retryable", states: enabled(true), exportErr: errors.New("quota"), target: domain.IntegrationDrive, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := &mockExporter{target: domain.IntegrationDrive}
			if tt.exportErr != nil {
				exp.ExportFunc = func(ctx context.Context, st *domain.State, today time.Time) (int, error) {
					return 0, tt.exportErr
				}
			}
			d := NewDispatcher(tt.states, zerolog.Nop(), exp, nil)

			err := d.Handle(context.Background(), &jobs.ExportJob{JobID: "j1", Target: tt.target})

			assert.Equal(t, tt.wantCalls, exp.calls)
			if tt.wantOK {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, tt.wantNoRetry, errors.Is(err, jobs.ErrNoRetry))
		})
	}
}

func TestDispatcher_Available(t *testing.T) {
	d := NewDispatcher(nil, zerolog.Nop(), &mockExporter{target: domain.IntegrationCalendar})
	assert.True(t, d.Available(domain.IntegrationCalendar))
	assert.False(t, d.Available(domain.IntegrationDrive))
}

// mockInserter is an EventInserter with a swappable implementation.
type mockInserter struct {
	InsertEventFunc func(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error)
	events          []*calendar.Event
}

func (m *mockInserter) InsertEvent(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
	m.events = append(m.events, event)
	if m.InsertEventFunc != nil {
		return m.InsertEventFunc(ctx, calendarID, event)
	}
	return event, nil
}

func TestCalendarExporter_Export(t *testing.T) {
	ins := &mockInserter{}
	c := NewCalendarExporterWithInserter(ins, "primary", zerolog.Nop())

	n, err := c.Export(context.Background(), testState(), today)
	require.NoError(t, err)

	assert.Equal(t, 1, n, "paused subscriptions are skipped")
	require.Len(t, ins.events, 1)
	ev := ins.events[0]
	assert.Equal(t, "Spotify charge", ev.Summary)
	assert.Equal(t, "2024-07-02", ev.Start.Date)
	assert.Equal(t, "2024-07-03", ev.End.Date)
	assert.Equal(t, eventID("sub-Spotify", "2024-07-02"), ev.Id)
}

func TestCalendarExporter_ConflictIsSkipped(t *testing.T) {
	ins := &mockInserter{
		InsertEventFunc: func(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
			return nil, &googleapi.Error{Code: http.StatusConflict, Message: "duplicate"}
		},
	}
	c := NewCalendarExporterWithInserter(ins, "primary", zerolog.Nop())

	n, err := c.Export(context.Background(), testState(), today)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCalendarExporter_Error(t *testing.T) {
	ins := &mockInserter{
		InsertEventFunc: func(ctx context.Context, calendarID string, event *calendar.Event) (*calendar.Event, error) {
			return nil, &googleapi.Error{Code: http.StatusForbidden}
		},
	}
	c := NewCalendarExporterWithInserter(ins, "primary", zerolog.Nop())

	_, err := c.Export(context.Background(), testState(), today)
	assert.ErrorContains(t, err, "Spotify")
}

func TestEventID_Format(t *testing.T) {
	id := eventID("sub-GMOレンタル", "2024-07-15")
	assert.Equal(t, id, eventID("sub-GMOレンタル", "2024-07-15"))
	assert.NotEqual(t, id, eventID("sub-GMOレンタル", "2024-08-15"))
	for _, r := range id {
		assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'v'), "unexpected rune %q", r)
	}
}

func TestMonthlyReport(t *testing.T) {
	report, err := MonthlyReport(testState(), today)
	require.NoError(t, err)

	want := strings.Join([]string{
		"section,name,amount,date,note",
		"category,entertainment,1960,,",
		"category,housing,5960,,",
		"category,food,4500,,",
		"category,transport,1800,,",
		"upcoming,Spotify,980,2024-07-02,entertainment",
		"balance,current,42000,2024-06-21,",
		"status,stable,,,billed amounts and balance are in balance",
		"",
	}, "\n")
	assert.Equal(t, want, string(report))
	assert.Equal(t, "decision-ease-2024-06.csv", reportName(today))
}

// mockUploader is a FileUploader capturing the upload.
type mockUploader struct {
	meta    *drive.File
	content string
	err     error
}

func (m *mockUploader) CreateFile(ctx context.Context, meta *drive.File, content io.Reader) (*drive.File, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.meta = meta
	b, _ := io.ReadAll(content)
	m.content = string(b)
	return &drive.File{Id: "file-1", Name: meta.Name}, nil
}

func TestDriveExporter_Export(t *testing.T) {
	up := &mockUploader{}
	d := NewDriveExporterWithUploader(up, "folder-9", zerolog.Nop())

	n, err := d.Export(context.Background(), testState(), today)
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, "decision-ease-2024-06.csv", up.meta.Name)
	assert.Equal(t, "text/csv", up.meta.MimeType)
	assert.Equal(t, []string{"folder-9"}, up.meta.Parents)
	assert.True(t, strings.HasPrefix(up.content, "section,name,amount,date,note\n"))
}

func TestDriveExporter_NoFolder(t *testing.T) {
	up := &mockUploader{}
	d := NewDriveExporterWithUploader(up, "", zerolog.Nop())

	_, err := d.Export(context.Background(), testState(), today)
	require.NoError(t, err)
	assert.Empty(t, up.meta.Parents)
}

func TestDriveExporter_UploadError(t *testing.T) {
	d := NewDriveExporterWithUploader(&mockUploader{err: errors.New("403")}, "", zerolog.Nop())

	n, err := d.Export(context.Background(), testState(), today)
	assert.Error(t, err)
	assert.Zero(t, n)
}

// mockNotion is a NotionService with swappable implementations.
type mockNotion struct {
	CreatePageFunc    func(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	UpdatePageFunc    func(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabaseFunc func(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)

	created []notionapi.Properties
	updated []string
	queries []notionapi.Cursor
}

func (m *mockNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	m.created = append(m.created, properties)
	if m.CreatePageFunc != nil {
		return m.CreatePageFunc(ctx, databaseID, properties)
	}
	return &notionapi.Page{ID: notionapi.ObjectID("new-page")}, nil
}

func (m *mockNotion) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	m.updated = append(m.updated, pageID)
	if m.UpdatePageFunc != nil {
		return m.UpdatePageFunc(ctx, pageID, properties)
	}
	return &notionapi.Page{ID: notionapi.ObjectID(pageID)}, nil
}

func (m *mockNotion) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	m.queries = append(m.queries, req.StartCursor)
	if m.QueryDatabaseFunc != nil {
		return m.QueryDatabaseFunc(ctx, databaseID, req)
	}
	return &notionapi.DatabaseQueryResponse{}, nil
}

func pageFor(pageID, subscriptionID string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(pageID),
		Properties: notionapi.Properties{
			propSubscriptionID: &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: subscriptionID}},
			},
		},
	}
}

func TestNotionExporter_Upserts(t *testing.T) {
	svc := &mockNotion{
		QueryDatabaseFunc: func(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			if req.StartCursor == "" {
				return &notionapi.DatabaseQueryResponse{
					Results:    []notionapi.Page{pageFor("page-a", "other")},
					HasMore:    true,
					NextCursor: notionapi.Cursor("next"),
				}, nil
			}
			return &notionapi.DatabaseQueryResponse{
				Results: []notionapi.Page{pageFor("page-spotify", "sub-Spotify")},
			}, nil
		},
	}
	n := NewNotionExporter(svc, "db-1", zerolog.Nop())

	count, err := n.Export(context.Background(), testState(), today)
	require.NoError(t, err)

	assert.Equal(t, 2, count)
	assert.Equal(t, []notionapi.Cursor{"", "next"}, svc.queries)
	assert.Equal(t, []string{"page-spotify"}, svc.updated)
	require.Len(t, svc.created, 1)

	title := svc.created[0][propName].(notionapi.TitleProperty)
	assert.Equal(t, "Gym", title.Title[0].Text.Content)
	status := svc.created[0][propStatus].(notionapi.SelectProperty)
	assert.Equal(t, "paused", status.Select.Name)
}

func TestNotionExporter_PartialFailure(t *testing.T) {
	svc := &mockNotion{
		CreatePageFunc: func(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
			title := properties[propName].(notionapi.TitleProperty)
			if title.Title[0].Text.Content == "Gym" {
				return nil, errors.New("validation_error")
			}
			return &notionapi.Page{ID: "p"}, nil
		},
	}
	n := NewNotionExporter(svc, "db-1", zerolog.Nop())

	count, err := n.Export(context.Background(), testState(), today)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNotionExporter_AllFail(t *testing.T) {
	svc := &mockNotion{
		CreatePageFunc: func(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
			return nil, errors.New("unauthorized")
		},
	}
	n := NewNotionExporter(svc, "db-1", zerolog.Nop())

	_, err := n.Export(context.Background(), testState(), today)
	assert.Error(t, err)
}

func TestNotionExporter_QueryError(t *testing.T) {
	svc := &mockNotion{
		QueryDatabaseFunc: func(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
			return nil, errors.New("object_not_found")
		},
	}
	_, err := NewNotionExporter(svc, "db-1", zerolog.Nop()).Export(context.Background(), testState(), today)
	assert.ErrorContains(t, err, "object_not_found")
	assert.Empty(t, svc.created)
}

func TestSubscriptionToNotionProperties(t *testing.T) {
	sub := testState().Subscriptions[0]
	props := SubscriptionToNotionProperties(sub, time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, float64(980), props[propAmount].(notionapi.NumberProperty).Number)
	assert.Equal(t, float64(2), props[propRenewalDay].(notionapi.NumberProperty).Number)
	assert.True(t, props[propDetected].(notionapi.CheckboxProperty).Checkbox)
	assert.Equal(t, "entertainment", props[propCategory].(notionapi.SelectProperty).Select.Name)

	next := props[propNextCharge].(notionapi.DateProperty).Date.Start
	assert.Equal(t, "2024-07-02", time.Time(*next).Format("2006-01-02"))
	assert.Equal(t, "sub-Spotify", props[propSubscriptionID].(notionapi.RichTextProperty).RichText[0].Text.Content)
}
