package api

// loginRequest is POST /auth/login's body.
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// processRequest is POST /api/v1/process's body (spec §6: process).
type processRequest struct {
	Input         string `json:"input" binding:"required"`
	Mode          string `json:"mode"`
	ApprovalToken string `json:"approvalToken"`
	Strategy      string `json:"strategy"`
}

// queryRequest is POST /api/v1/query's body (spec §6: queryKnowledge).
type queryRequest struct {
	Query      string `json:"query" binding:"required"`
	UseCache   bool   `json:"useCache"`
	Debug      bool   `json:"debug"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	K          int    `json:"k"`
}

// ingestRequest is POST /api/v1/ingest's body (spec §6: ingest).
type ingestRequest struct {
	DocPath string `json:"docPath" binding:"required"`
}

// startMissionRequest is POST /api/v1/learn-mode/missions's body.
type startMissionRequest struct {
	Topic string `json:"topic" binding:"required"`
}

// provideFeedbackRequest is POST .../feedback's body.
type provideFeedbackRequest struct {
	Input    string `json:"input"`
	Response string `json:"response"`
	Feedback string `json:"feedback" binding:"required"`
}
