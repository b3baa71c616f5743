package wellness

import "time"

// AgentLog is the append-only audit row written for every successful
// reasoning call.
type AgentLog struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	AgentType     string    `json:"agentType"`
	Action        string    `json:"action"`
	Input         string    `json:"input"`
	Reasoning     string    `json:"reasoning"`
	Output        string    `json:"output"`
	ExecutionTime int64     `json:"executionTime"`
	Timestamp     time.Time `json:"timestamp"`
}
