package api

// loginResponse is POST /auth/login's success body.
type loginResponse struct {
	Token string `json:"token"`
}

// healthCheckResponse is GET /health's body, kept deliberately minimal and
// safe for unauthenticated access: only the core's aggregated overall
// status. That status covers every core probe, including the LLM circuit
// breaker, so an open breaker makes GET /health answer 503.
type healthCheckResponse struct {
	Status string `json:"status"`
}
