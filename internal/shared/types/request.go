package types

// LaunchRequest carries optional launch-time settings
type LaunchRequest struct {
	Params          string `json:"params"`
	DisplayAffinity *int   `json:"display_affinity,omitempty"`
}

// CallRequest is a diagnostic bridge call against an instance
type CallRequest struct {
	Method string   `json:"method" binding:"required"`
	Params []string `json:"params"`
}

// EvalRequest runs a script inside an inspectable instance
type EvalRequest struct {
	Script string `json:"script" binding:"required"`
}

// EvalResponse is the exported script result plus captured console lines
type EvalResponse struct {
	Result  interface{} `json:"result"`
	Console []string    `json:"console,omitempty"`
}
