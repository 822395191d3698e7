// Package genaitest provides a scripted genai.Completer for tests.
package genaitest

import (
	"context"
	"strings"
	"sync"

	"cypher-catalog/internal/genai"
)

// Call is one completion request received by the fake.
type Call struct {
	System string
	User   string
	Opts   genai.Options
}

// Completer answers by matching the system message, falling back to Default.
type Completer struct {
	mu         sync.Mutex
	configured bool
	replies    map[string]reply
	Default    string
	calls      []Call
}

type reply struct {
	text string
	err  error
}

// New returns a configured fake with no scripted replies.
func New() *Completer {
	return &Completer{configured: true, replies: make(map[string]reply)}
}

// Unconfigured returns a fake that reports missing credentials.
func Unconfigured() *Completer {
	c := New()
	c.configured = false
	return c
}

// Reply scripts text for calls whose system message contains systemSubstr.
func (c *Completer) Reply(systemSubstr, text string) *Completer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[systemSubstr] = reply{text: text}
	return c
}

// Fail scripts err for calls whose system message contains systemSubstr.
func (c *Completer) Fail(systemSubstr string, err error) *Completer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[systemSubstr] = reply{err: err}
	return c
}

func (c *Completer) Configured() bool {
	return c.configured
}

func (c *Completer) Complete(ctx context.Context, system, user string, opts genai.Options) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{System: system, User: user, Opts: opts})

	if !c.configured {
		return "", genai.ErrCredentialsMissing
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for substr, r := range c.replies {
		if strings.Contains(system, substr) {
			return r.text, r.err
		}
	}
	return c.Default, nil
}

// Calls returns a copy of every request so far.
func (c *Completer) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

func (c *Completer) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

var _ genai.Completer = (*Completer)(nil)
