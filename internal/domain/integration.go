package domain

import "fmt"

// Integration names an external connector the user can switch on or off.
type Integration string

const (
	IntegrationGmail    Integration = "gmail"
	IntegrationCalendar Integration = "calendar"
	IntegrationDrive    Integration = "drive"
	IntegrationNotion   Integration = "notion"
	IntegrationSlack    Integration = "slack"
	IntegrationSupabase Integration = "supabase"
)

// AllIntegrations returns the fixed integration set in display order.
func AllIntegrations() []Integration {
	return []Integration{
		IntegrationGmail,
		IntegrationCalendar,
		IntegrationDrive,
		IntegrationNotion,
		IntegrationSlack,
		IntegrationSupabase,
	}
}

// Valid reports whether i is a known integration.
func (i Integration) Valid() bool {
	switch i {
	case IntegrationGmail, IntegrationCalendar, IntegrationDrive,
		IntegrationNotion, IntegrationSlack, IntegrationSupabase:
		return true
	}
	return false
}

// ParseIntegration converts a path segment or flag value into an Integration.
func ParseIntegration(s string) (Integration, error) {
	i := Integration(s)
	if !i.Valid() {
		return "", fmt.Errorf("unknown integration %q", s)
	}
	return i, nil
}

// Integrations holds the on/off toggle of every known integration.
type Integrations map[Integration]bool

// DefaultIntegrations returns every integration switched off.
func DefaultIntegrations() Integrations {
	out := make(Integrations, len(AllIntegrations()))
	for _, i := range AllIntegrations() {
		out[i] = false
	}
	return out
}

// Enabled reports whether i is switched on.
func (in Integrations) Enabled(i Integration) bool {
	return in[i]
}
