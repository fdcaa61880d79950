package integrations

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/decision-ease/internal/domain"
	"github.com/dvloznov/decision-ease/internal/notice"
	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
)

// Notion database property names.
const (
	propName           = "Name"
	propSubscriptionID = "Subscription ID"
	propAmount         = "Amount"
	propRenewalDay     = "Renewal Day"
	propStatus         = "Status"
	propCategory       = "Category"
	propDetected       = "Detected"
	propNextCharge     = "Next Charge"
)

// NotionExporter keeps one page per subscription in a Notion database.
// Pages are matched on the Subscription ID property and updated in place.
type NotionExporter struct {
	notion     NotionService
	databaseID string
	log        zerolog.Logger
}

// NewNotionExporter creates an exporter writing into databaseID.
func NewNotionExporter(notion NotionService, databaseID string, log zerolog.Logger) *NotionExporter {
	return &NotionExporter{
		notion:     notion,
		databaseID: databaseID,
		log:        log,
	}
}

func (n *NotionExporter) Target() domain.Integration {
	return domain.IntegrationNotion
}

// Export upserts every subscription, whatever its status, so paused and
// cancelled ones are visible too. A failed page is logged and skipped.
func (n *NotionExporter) Export(ctx context.Context, st *domain.State, today time.Time) (int, error) {
	pages, err := queryAllPages(ctx, n.notion, n.databaseID)
	if err != nil {
		return 0, fmt.Errorf("NotionExporter.Export: %w", err)
	}

	existing := make(map[string]string, len(pages))
	for _, page := range pages {
		if id := subscriptionIDOf(page); id != "" {
			existing[id] = string(page.ID)
		}
	}

	charges := notice.UpcomingCharges(st.Subscriptions, today)

	var created, updated, failed int
	for i, sub := range st.Subscriptions {
		props := SubscriptionToNotionProperties(sub, charges[i].NextChargeDate)

		if pageID, ok := existing[sub.ID]; ok {
			if _, err := n.notion.UpdatePage(ctx, pageID, props); err != nil {
				n.log.Warn().Err(err).Str("subscription_id", sub.ID).Str("page_id", pageID).Msg("Failed to update Notion page")
				failed++
				continue
			}
			updated++
			continue
		}

		page, err := n.notion.CreatePage(ctx, n.databaseID, props)
		if err != nil {
			n.log.Warn().Err(err).Str("subscription_id", sub.ID).Msg("Failed to create Notion page")
			failed++
			continue
		}
		n.log.Debug().Str("subscription_id", sub.ID).Str("page_id", string(page.ID)).Msg("Created Notion page")
		created++
	}

	n.log.Info().
		Int("created", created).
		Int("updated", updated).
		Int("failed", failed).
		Int("total", len(st.Subscriptions)).
		Msg("Notion sync completed")

	if failed > 0 && created+updated == 0 {
		return 0, fmt.Errorf("NotionExporter.Export: all %d pages failed", failed)
	}
	return created + updated, nil
}

// SubscriptionToNotionProperties maps a subscription onto the database columns.
func SubscriptionToNotionProperties(sub domain.Subscription, nextCharge time.Time) notionapi.Properties {
	next := notionapi.Date(time.Date(nextCharge.Year(), nextCharge.Month(), nextCharge.Day(), 0, 0, 0, 0, time.UTC))

	return notionapi.Properties{
		propName: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: sub.Name}},
			},
		},
		propSubscriptionID: notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: sub.ID}},
			},
		},
		propAmount:     notionapi.NumberProperty{Number: float64(sub.Amount)},
		propRenewalDay: notionapi.NumberProperty{Number: float64(sub.RenewalDay)},
		propStatus:     notionapi.SelectProperty{Select: notionapi.Option{Name: string(sub.Status)}},
		propCategory:   notionapi.SelectProperty{Select: notionapi.Option{Name: string(sub.Category)}},
		propDetected:   notionapi.CheckboxProperty{Checkbox: sub.Detected},
		propNextCharge: notionapi.DateProperty{Date: &notionapi.DateObject{Start: &next}},
	}
}

// queryAllPages pages through the whole database.
func queryAllPages(ctx context.Context, notion NotionService, databaseID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: 100}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllPages: %w", err)
		}
		all = append(all, resp.Results...)

		if !resp.HasMore {
			return all, nil
		}
		cursor = resp.NextCursor
	}
}

// subscriptionIDOf reads the Subscription ID property, or "" if absent.
func subscriptionIDOf(page notionapi.Page) string {
	prop, ok := page.Properties[propSubscriptionID]
	if !ok {
		return ""
	}
	switch p := prop.(type) {
	case *notionapi.RichTextProperty:
		if len(p.RichText) > 0 {
			return p.RichText[0].PlainText
		}
	case notionapi.RichTextProperty:
		if len(p.RichText) > 0 {
			return p.RichText[0].PlainText
		}
	}
	return ""
}

var _ Exporter = (*NotionExporter)(nil)
