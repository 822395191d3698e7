// Package graphtest provides an in-memory database.GraphStore for tests.
package graphtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cypher-catalog/internal/common/database"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Call is one statement received by the store.
type Call struct {
	Mode   database.AccessMode
	Query  string
	Params map[string]any
}

// Responder produces the records for a statement.
type Responder func(query string, params map[string]any) ([]*neo4j.Record, error)

type route struct {
	contains string
	respond  Responder
}

// Store answers statements from routes matched by substring, first match wins. Each Run counts
// as one opened and one closed session.
type Store struct {
	mu       sync.Mutex
	routes   []route
	calls    []Call
	opened   int
	closed   int
	fallback Responder
}

func New() *Store {
	return &Store{
		fallback: func(string, map[string]any) ([]*neo4j.Record, error) { return nil, nil },
	}
}

// On registers fn for statements containing substr.
func (s *Store) On(substr string, fn Responder) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, route{contains: substr, respond: fn})
	return s
}

// OnRecords answers statements containing substr with recs.
func (s *Store) OnRecords(substr string, recs ...*neo4j.Record) *Store {
	return s.On(substr, func(string, map[string]any) ([]*neo4j.Record, error) { return recs, nil })
}

// OnError fails statements containing substr with err.
func (s *Store) OnError(substr string, err error) *Store {
	return s.On(substr, func(string, map[string]any) ([]*neo4j.Record, error) { return nil, err })
}

// FailAll makes every unmatched statement fail with err.
func (s *Store) FailAll(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = func(string, map[string]any) ([]*neo4j.Record, error) { return nil, err }
	return s
}

func (s *Store) Run(ctx context.Context, mode database.AccessMode, query string, params map[string]any) ([]*neo4j.Record, error) {
	s.mu.Lock()
	s.opened++
	s.calls = append(s.calls, Call{Mode: mode, Query: query, Params: params})
	respond := s.fallback
	for _, r := range s.routes {
		if strings.Contains(query, r.contains) {
			respond = r.respond
			break
		}
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.closed++
		s.mu.Unlock()
	}()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("session aborted: %w", err)
	}
	return respond(query, params)
}

// Calls returns a copy of every statement received so far.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Store) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Sessions returns how many sessions were opened and closed.
func (s *Store) Sessions() (opened, closed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened, s.closed
}

// Record builds a driver record.
func Record(keys []string, values ...any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}
