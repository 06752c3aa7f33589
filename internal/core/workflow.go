package core

// workflow.go defines the persisted shape of a merge workflow: which
// datasets it expects, how their rows are keyed, the join algebra, and the
// output columns. The definition is plain data owned by the caller; the
// engine receives it per call and never mutates it.

import "encoding/json"

// DatasetRef identifies one dataset slot in a workflow definition. At run
// time the caller supplies a Dataset whose ID matches.
type DatasetRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// WorkflowConfig is a reusable merge workflow definition.
type WorkflowConfig struct {
	Datasets      []DatasetRef    `json:"datasets"`
	KeyColumns    KeyColumnConfig `json:"keyColumns"`
	Join          JoinSpec        `json:"join"`
	OutputColumns []OutputColumn  `json:"outputColumns"`
}

// DecodeWorkflowConfig parses a stored workflow definition, resolving the
// tagged column sources into their concrete variants.
func DecodeWorkflowConfig(data []byte) (*WorkflowConfig, error) {
	var cfg WorkflowConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Join.Type == "" {
		cfg.Join.Type = JoinLeft
	}
	return &cfg, nil
}

// Encode serializes the workflow definition for storage.
func (c *WorkflowConfig) Encode() ([]byte, error) {
	return json.Marshal(c)
}
