// Package tool defines the MCP tools the server exposes and drives
// their execution: the model plans a shell command, the policy vets it,
// the executor runs it, the model summarizes the output.
package tool

import "errors"

var ErrUnknownTool = errors.New("unknown tool")

const (
	RunDiagnosis           = "run_diagnosis"
	GetPCSettings          = "get_pc_settings"
	ExecuteTroubleshooting = "execute_troubleshooting"
)

// Descriptor is the MCP-facing tool description.
type Descriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

type definition struct {
	name        string
	description string
	goal        string
	readOnly    bool
}

var definitions = []definition{
	{
		name:        RunDiagnosis,
		description: "Run system diagnosis to find probable issues",
		goal:        "inspect the system and diagnose the described issue using read-only commands",
		readOnly:    true,
	},
	{
		name:        GetPCSettings,
		description: "Get PC settings like volume, WiFi, battery, etc.",
		goal:        "read the requested setting or information without changing anything",
		readOnly:    true,
	},
	{
		name:        ExecuteTroubleshooting,
		description: "Execute troubleshooting commands to fix system issues",
		goal:        "fix the described issue, commands may change system state",
		readOnly:    false,
	},
}

func inputTextSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"input_text": map[string]interface{}{
				"type":        "string",
				"description": "Description of the request in natural language",
			},
		},
		"required": []string{"input_text"},
	}
}

func (d definition) descriptor() Descriptor {
	return Descriptor{
		Name:        d.name,
		Description: d.description,
		InputSchema: inputTextSchema(),
	}
}
