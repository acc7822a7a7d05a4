package tool

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// defaultPlanPrompt asks the model for a single shell command as JSON.
// Per-tool overrides come from the tools section of the config file.
const defaultPlanPrompt = `You are a careful {{.OS}} system administrator operating the user's machine through a shell.
Your task: {{.Goal}}.
Host: {{.Hostname}}, architecture {{.Arch}}.
Respond with ONLY a JSON object, no prose and no markdown fences:
{"command": "<one {{.Shell}} command>", "explanation": "<one short sentence>"}
The command must be non-interactive and finish on its own.`

const summaryPrompt = `You are a helpful PC assistant. The user asked a question, a shell command was run on their machine, and you are given its output.
Answer the user's question in plain language based on the output. Be concise. If the output indicates failure, say what went wrong.`

type promptData struct {
	OS       string
	Arch     string
	Hostname string
	Shell    string
	Goal     string
}

func hostPromptData(goal string) promptData {
	hostname, _ := os.Hostname()
	return promptData{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		Hostname: hostname,
		Shell:    "sh",
		Goal:     goal,
	}
}

func parsePrompt(text string) (*template.Template, error) {
	return template.New("prompt").
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Parse(text)
}

func renderPrompt(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
