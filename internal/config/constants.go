package config

// Application info
const (
	AppName = "usdataexplorer"
)

// API paths
const (
	APIBasePath       = "/api"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)

// Default dataset file names as published by their sources
const (
	DefaultPresidentFile = "1976-2020-president.csv"
	DefaultSenateFile    = "1976-2020-senate.csv"
	DefaultHouseFile     = "1976-2022-house.csv"
	DefaultEVFile        = "Electric_Vehicle_Population_Data.csv"
	DefaultBorderFile    = "Border_Crossing_Entry_Data.csv"
)
