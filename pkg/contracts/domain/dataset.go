package domain

// Dataset is the dashboard snapshot as published in master-dashboard.json.
// It is loaded once and never mutated afterwards; a reload replaces it wholesale.
type Dataset struct {
	LastUpdated           string             `json:"lastUpdated"`
	Summary               Summary            `json:"summary"`
	Categories            []string           `json:"categories"`
	Items                 []Item             `json:"items" validate:"unique=ID,dive"`
	InterdependencyChains []Chain            `json:"interdependencyChains" validate:"dive"`
	LeadingIndicators     []LeadingIndicator `json:"leadingIndicators" validate:"dive"`
}

// Summary holds alert counts per level
type Summary struct {
	Red    int `json:"red"`
	Yellow int `json:"yellow"`
	Green  int `json:"green"`
	Total  int `json:"total"`
}

// Add increments the bucket for level. Anything that is not red or yellow
// counts as green.
func (s *Summary) Add(level AlertLevel) {
	switch level {
	case AlertRed:
		s.Red++
	case AlertYellow:
		s.Yellow++
	default:
		s.Green++
	}
	s.Total++
}

// ChainStatus is the health of an interdependency chain
type ChainStatus string

const (
	ChainNormal   ChainStatus = "normal"
	ChainWarning  ChainStatus = "warning"
	ChainCritical ChainStatus = "critical"
)

// Label returns the badge text shown on chain cards
func (s ChainStatus) Label() string {
	switch s {
	case ChainCritical:
		return "CRITICAL"
	case ChainWarning:
		return "WARNING"
	default:
		return "NORMAL"
	}
}

// Chain is a display-only dependency path between monitored nodes
type Chain struct {
	Name            string      `json:"name" validate:"required"`
	Status          ChainStatus `json:"status" validate:"oneof=normal warning critical"`
	Nodes           []string    `json:"nodes"`
	MonitoringPoint string      `json:"monitoringPoint"`
}

// LeadingIndicator is a dashboard-wide early warning signal
type LeadingIndicator struct {
	Name      string  `json:"name" validate:"required"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Trend     Trend   `json:"trend"`
	Status    string  `json:"status"`
	Threshold float64 `json:"threshold"`
	Source    string  `json:"source"`
}
