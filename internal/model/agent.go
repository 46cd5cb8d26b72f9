package model

// AgentType selects which helper action the agent runs.
type AgentType string

const (
	AgentEmail   AgentType = "email"
	AgentAnalyze AgentType = "analyze"
	AgentSimilar AgentType = "similar"
)

// Valid reports whether t is one of the known agent actions.
func (t AgentType) Valid() bool {
	switch t {
	case AgentEmail, AgentAnalyze, AgentSimilar:
		return true
	}
	return false
}

// AgentRequest is the body of POST /api/agent-workflow.
type AgentRequest struct {
	Type      AgentType  `json:"type"`
	Developer *Developer `json:"developer"`
}

// AgentResponse carries the generated text.
type AgentResponse struct {
	Result string `json:"result"`
}
