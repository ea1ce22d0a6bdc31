package config

import (
	"time"

	"shortwatch/pkg/contracts"
)

// Application info
const (
	AppName    = "shortwatch"
	AppVersion = contracts.Version

	EnvPrefix     = "SHORTWATCH"
	ConfigFileEnv = EnvPrefix + "_CONFIG"
)

// Defaults shared by the server and the report CLI
const (
	DefaultSource         = "data/master-dashboard.json"
	DefaultHTTPTimeout    = 15 * time.Second
	DefaultSearchDebounce = 300 * time.Millisecond
	DefaultChartPeriod    = 30
)
