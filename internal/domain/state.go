package domain

// NoticeLevel controls how chatty the dashboard notices are.
type NoticeLevel string

const (
	NoticeLight NoticeLevel = "light"
	NoticeOff   NoticeLevel = "off"
)

// Font scale bounds accepted from the settings slider.
const (
	MinFontScale = 0.9
	MaxFontScale = 1.2
)

// DefaultBalance is the balance a fresh state starts with.
const DefaultBalance int64 = 42000

// Profile holds the onboarding answers.
type Profile struct {
	Income  string `json:"income"`
	Concern string `json:"concern"`
	Notice  string `json:"notice"`
}

// State is the whole application snapshot. It is loaded and saved wholesale;
// there is no partial update or versioning.
type State struct {
	User          *Profile       `json:"user"`
	Transactions  []Transaction  `json:"transactions"`
	Subscriptions []Subscription `json:"subscriptions"`
	Balance       int64          `json:"balance"`
	PremiumActive bool           `json:"premiumActive"`
	NoticeLevel   NoticeLevel    `json:"noticeLevel"`
	FontScale     float64        `json:"fontScale"`
	Integrations  Integrations   `json:"integrations"`
}

// NewState returns an empty state with defaults applied.
func NewState(balance int64) *State {
	return &State{
		Transactions:  []Transaction{},
		Subscriptions: []Subscription{},
		Balance:       balance,
		NoticeLevel:   NoticeLight,
		FontScale:     1,
		Integrations:  DefaultIntegrations(),
	}
}

// Clone returns a deep copy so callers can mutate without aliasing a store.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	out.Transactions = append([]Transaction(nil), s.Transactions...)
	out.Subscriptions = append([]Subscription(nil), s.Subscriptions...)
	out.Integrations = make(Integrations, len(s.Integrations))
	for k, v := range s.Integrations {
		out.Integrations[k] = v
	}
	return &out
}

// Normalize fills fields an older or hand-written snapshot may lack.
func (s *State) Normalize() {
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	if s.Subscriptions == nil {
		s.Subscriptions = []Subscription{}
	}
	if s.NoticeLevel == "" {
		s.NoticeLevel = NoticeLight
	}
	if s.FontScale == 0 {
		s.FontScale = 1
	}
	if s.Integrations == nil {
		s.Integrations = DefaultIntegrations()
	}
	for _, i := range AllIntegrations() {
		if _, ok := s.Integrations[i]; !ok {
			s.Integrations[i] = false
		}
	}
}
