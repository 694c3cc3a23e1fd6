package types

import "time"

// FunctionStatus holds the live call statistics of one endpoint
type FunctionStatus struct {
	Endpoint            string     `json:"endpoint"`
	LastSuccessAt       *time.Time `json:"lastSuccessAt,omitempty"`
	LastFailureAt       *time.Time `json:"lastFailureAt,omitempty"`
	ConsecutiveFailures int        `json:"consecutiveFailures"`
	IsHealthy           bool       `json:"isHealthy"`
	AvgResponseTimeMs   float64    `json:"avgResponseTimeMs"`
	TotalCalls          int        `json:"totalCalls"`
	SuccessRate         float64    `json:"successRate"`
}

// HealthSummary is an aggregate snapshot across all tracked endpoints
type HealthSummary struct {
	TotalFunctions     int     `json:"totalFunctions"`
	HealthyFunctions   int     `json:"healthyFunctions"`
	UnhealthyFunctions int     `json:"unhealthyFunctions"`
	AvgResponseTimeMs  float64 `json:"avgResponseTimeMs"`
	OverallSuccessRate float64 `json:"overallSuccessRate"`
}
