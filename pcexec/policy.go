package pcexec

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// ErrDenied is returned when a command fails the policy check.
var ErrDenied = errors.New("command denied by policy")

// ReadOnlyDeny is the built-in deny set applied on top of the configured
// policy for tools that must not change host state.
var ReadOnlyDeny = []string{
	"rm *",
	"rmdir *",
	"mv *",
	"dd *",
	"mkfs*",
	"shutdown*",
	"reboot*",
	"halt*",
	"poweroff*",
	"kill *",
	"killall *",
	"*> *",
	"*>> *",
	"chmod *",
	"chown *",
	"systemctl stop *",
	"systemctl restart *",
	"systemctl disable *",
}

// Policy vets shell commands against allow and deny glob lists.
// Deny wins; an empty allow list allows anything not denied.
type Policy struct {
	allow []compiled
	deny  []compiled
}

type compiled struct {
	pattern string
	g       glob.Glob
}

func NewPolicy(allow, deny []string) (*Policy, error) {
	p := &Policy{}
	for _, pattern := range allow {
		g, err := globStore(pattern)
		if err != nil {
			return nil, fmt.Errorf("policy allow pattern '%s': %v", pattern, err)
		}
		p.allow = append(p.allow, compiled{pattern: pattern, g: g})
	}
	for _, pattern := range deny {
		g, err := globStore(pattern)
		if err != nil {
			return nil, fmt.Errorf("policy deny pattern '%s': %v", pattern, err)
		}
		p.deny = append(p.deny, compiled{pattern: pattern, g: g})
	}
	return p, nil
}

// Extend returns a policy with additional deny patterns.
func (p *Policy) Extend(deny []string) (*Policy, error) {
	next := &Policy{allow: p.allow, deny: p.deny}
	for _, pattern := range deny {
		g, err := globStore(pattern)
		if err != nil {
			return nil, fmt.Errorf("policy deny pattern '%s': %v", pattern, err)
		}
		next.deny = append(next.deny, compiled{pattern: pattern, g: g})
	}
	return next, nil
}

func (p *Policy) Vet(command string) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return fmt.Errorf("%w: empty command", ErrDenied)
	}
	for _, d := range p.deny {
		if d.g.Match(command) {
			return fmt.Errorf("%w: '%s' matches deny pattern '%s'", ErrDenied, command, d.pattern)
		}
	}
	if len(p.allow) == 0 {
		return nil
	}
	for _, a := range p.allow {
		if a.g.Match(command) {
			return nil
		}
	}
	return fmt.Errorf("%w: '%s' matches no allow pattern", ErrDenied, command)
}

var globStore = func() func(pattern string) (glob.Glob, error) {
	var l sync.Mutex
	store := make(map[string]struct {
		g   glob.Glob
		err error
	})

	return func(pattern string) (glob.Glob, error) {
		if pattern == "" {
			return nil, errors.New("empty pattern")
		}
		l.Lock()
		defer l.Unlock()
		r, ok := store[pattern]
		if !ok {
			r.g, r.err = glob.Compile(pattern)
			store[pattern] = r
		}
		return r.g, r.err
	}
}()
