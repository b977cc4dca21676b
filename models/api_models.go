package models

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// InitiateResponse is returned by the OAuth initiate endpoint.
type InitiateResponse struct {
	AuthURL string `json:"authUrl"`
}

// StatusResponse is returned by the public status endpoint.
type StatusResponse struct {
	Status      string  `json:"status"`
	Uptime      float64 `json:"uptime"`
	Timestamp   string  `json:"timestamp"`
	Environment string  `json:"environment"`
}

// EnvCheckResponse reports which required environment variables are present.
// Values are never included.
type EnvCheckResponse struct {
	Configured       bool     `json:"configured"`
	MissingVariables []string `json:"missingVariables"`
	TotalRequired    int      `json:"totalRequired"`
	TotalConfigured  int      `json:"totalConfigured"`
}
