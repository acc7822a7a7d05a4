package tool

import (
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/Irene-123/talk-to-your-pc-mcp-server/config"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/llm"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/pcexec"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/pkg/log"

	"github.com/rs/zerolog"
)

// Event is emitted during streamed tool execution.
type Event struct {
	Status  string `json:"status"`
	Tool    string `json:"tool,omitempty"`
	Command string `json:"command,omitempty"`
	Line    string `json:"line,omitempty"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

type executor interface {
	Run(ctx context.Context, command string, onLine func(string)) (string, error)
}

type Options struct {
	Client         llm.Client
	CommandTimeout time.Duration
	Policy         config.PolicyConfig
	Overrides      config.ToolsConfig
}

type (
	Registry struct {
		tools  map[string]*runtimeTool
		order  []string
		client llm.Client
		exec   executor
		log    zerolog.Logger
	}
	runtimeTool struct {
		def    definition
		tmpl   *template.Template
		policy *pcexec.Policy
	}
)

func NewRegistry(opts Options) (*Registry, error) {
	base, err := pcexec.NewPolicy(opts.Policy.Allow, opts.Policy.Deny)
	if err != nil {
		return nil, fmt.Errorf("tool registry policy: %v", err)
	}
	readOnly, err := base.Extend(pcexec.ReadOnlyDeny)
	if err != nil {
		return nil, fmt.Errorf("tool registry read-only policy: %v", err)
	}

	timeout := opts.CommandTimeout
	if timeout == 0 {
		timeout = time.Second * 60
	}

	r := &Registry{
		tools:  make(map[string]*runtimeTool),
		client: opts.Client,
		exec:   pcexec.NewRunner(timeout),
		log:    log.New("tool registry"),
	}

	for _, def := range definitions {
		prompt := defaultPlanPrompt
		if override, ok := opts.Overrides[def.name]; ok && override.Prompt != "" {
			prompt = override.Prompt
		}
		tmpl, err := parsePrompt(prompt)
		if err != nil {
			return nil, fmt.Errorf("tool '%s' prompt: %v", def.name, err)
		}

		policy := base
		if def.readOnly {
			policy = readOnly
		}
		r.tools[def.name] = &runtimeTool{def: def, tmpl: tmpl, policy: policy}
		r.order = append(r.order, def.name)
	}
	return r, nil
}

// Descriptors returns MCP tool descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	descriptors := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		descriptors = append(descriptors, r.tools[name].def.descriptor())
	}
	return descriptors
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Query passes a raw prompt pair to the model, bypassing tools.
func (r *Registry) Query(ctx context.Context, system, user string) (string, error) {
	if r.client == nil {
		return "", llm.ErrNoClient
	}
	return r.client.Complete(ctx, system, user)
}

// Call executes the named tool and returns the summarized answer.
func (r *Registry) Call(ctx context.Context, name, input string) (string, error) {
	return r.run(ctx, name, input, nil)
}

// Stream executes the named tool, reporting each stage through emit.
func (r *Registry) Stream(ctx context.Context, name, input string, emit func(Event)) {
	emit(Event{Status: "started", Tool: name})
	result, err := r.run(ctx, name, input, emit)
	if err != nil {
		emit(Event{Status: "error", Tool: name, Error: err.Error()})
		return
	}
	emit(Event{Status: "completed", Tool: name, Result: result})
}

type plan struct {
	Command     string `json:"command"`
	Explanation string `json:"explanation"`
}

func (r *Registry) run(ctx context.Context, name, input string, emit func(Event)) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if r.client == nil {
		return "", llm.ErrNoClient
	}

	p, err := r.plan(ctx, t, input)
	if err != nil {
		return "", err
	}
	if err := t.policy.Vet(p.Command); err != nil {
		return "", err
	}
	if emit != nil {
		emit(Event{Status: "plan", Tool: name, Command: p.Command})
	}
	r.log.Info().Str("tool", name).Msgf("executing planned command: %s", p.Command)

	var onLine func(string)
	if emit != nil {
		onLine = func(line string) { emit(Event{Status: "log", Tool: name, Line: line}) }
	}
	output, execErr := r.exec.Run(ctx, p.Command, onLine)

	return r.summarize(ctx, input, p, output, execErr)
}

func (r *Registry) plan(ctx context.Context, t *runtimeTool, input string) (*plan, error) {
	system, err := renderPrompt(t.tmpl, hostPromptData(t.def.goal))
	if err != nil {
		return nil, err
	}

	answer, err := r.client.Complete(ctx, system, input)
	if err != nil {
		return nil, fmt.Errorf("planning failed: %w", err)
	}

	var p plan
	if err := llm.DecodeJSON(answer, &p); err != nil {
		return nil, fmt.Errorf("model returned an unusable plan: %v", err)
	}
	if p.Command == "" {
		return nil, fmt.Errorf("model returned an empty command")
	}
	return &p, nil
}

func (r *Registry) summarize(ctx context.Context, input string, p *plan, output string, execErr error) (string, error) {
	status := "succeeded"
	if execErr != nil {
		status = fmt.Sprintf("failed: %v", execErr)
	}
	user := fmt.Sprintf("Question: %s\nCommand: %s\nCommand status: %s\nOutput:\n%s",
		input, p.Command, status, output)

	summary, err := r.client.Complete(ctx, summaryPrompt, user)
	if err != nil {
		return "", fmt.Errorf("summarization failed: %w", err)
	}
	return summary, nil
}
