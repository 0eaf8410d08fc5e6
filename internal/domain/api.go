package domain

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	StudentID string `json:"student_id"`
}

// ChatResponse is the success body of POST /api/chat.
type ChatResponse struct {
	Response  string   `json:"response"`
	Agent     string   `json:"agent"`
	Subject   string   `json:"subject"`
	ToolsUsed []string `json:"tools_used"`
	StudentID string   `json:"student_id,omitempty"`
	Error     *string  `json:"error,omitempty"`
}

// ErrorBody is the optional JSON body of a non-2xx response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// HealthyStatus is the only status value treated as online.
const HealthyStatus = "healthy"

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status  string   `json:"status"`
	Agents  []string `json:"agents,omitempty"`
	Message string   `json:"message,omitempty"`
}

// IsHealthy reports whether the backend declared itself healthy.
func (h HealthResponse) IsHealthy() bool {
	return h.Status == HealthyStatus
}

// AgentStatus is one entry of GET /api/agents/status.
type AgentStatus struct {
	Status string `json:"status"`
	Port   int    `json:"port"`
}

// SystemStatus is the binary indicator rendered after a health check.
type SystemStatus string

const (
	// StatusUnknown is shown before the first health check resolves.
	StatusUnknown SystemStatus = "unknown"
	// StatusOnline means the backend answered with status "healthy".
	StatusOnline SystemStatus = "online"
	// StatusOffline covers every other outcome.
	StatusOffline SystemStatus = "offline"
)
