// internal/cypher/parser.go
package cypher

import (
	"strings"
	"unicode"

	"cypher-catalog/internal/models"
)

const (
	markerExplanation = "EXPLANATION:"
	markerCypher      = "CYPHER:"

	// FallbackExplanation is used when the reply had no explanation section.
	FallbackExplanation = "Generated Cypher query for your question."
)

// ReplyKind classifies how a model reply was understood.
type ReplyKind int

const (
	ReplyEmpty ReplyKind = iota
	ReplyStructured
	ReplyHeuristic
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyStructured:
		return "structured"
	case ReplyHeuristic:
		return "heuristic"
	default:
		return "empty"
	}
}

// ReadClauseKeywords are the clause keywords that start a line of query text in the
// heuristic scan.
var ReadClauseKeywords = []string{"MATCH", "OPTIONAL", "WITH", "UNWIND", "RETURN", "WHERE", "CALL"}

// Reply is the parsed form of a model reply.
type Reply struct {
	Kind        ReplyKind
	Explanation string
	Query       string
}

// Generated converts the reply into the pipeline's GeneratedQuery.
func (r Reply) Generated() models.GeneratedQuery {
	status := models.StatusGenerated
	if r.Kind != ReplyStructured {
		status = models.StatusParseFallback
	}
	return models.GeneratedQuery{
		Explanation: r.Explanation,
		QueryText:   r.Query,
		Status:      status,
	}
}

// Parse extracts an explanation and a query from free-form model text. It never fails: a
// reply with nothing recognizable yields ReplyEmpty with an empty query.
func Parse(raw string) Reply {
	if strings.Contains(raw, markerExplanation) && strings.Contains(raw, markerCypher) {
		return parseStructured(raw)
	}
	return parseHeuristic(raw)
}

func parseStructured(raw string) Reply {
	// Split on the first CYPHER: marker; anything after it, including further markers,
	// belongs to the query.
	parts := strings.SplitN(raw, markerCypher, 2)
	explanation := parts[0]
	if i := strings.Index(explanation, markerExplanation); i >= 0 {
		explanation = explanation[i+len(markerExplanation):]
	}

	query := stripFence(parts[1])
	reply := Reply{
		Kind:        ReplyStructured,
		Explanation: strings.TrimSpace(explanation),
		Query:       query,
	}
	if reply.Query == "" {
		reply.Kind = ReplyEmpty
	}
	return reply
}

func parseHeuristic(raw string) Reply {
	var lines []string
	collecting := false
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if !collecting {
			if startsWithReadClause(trimmed) {
				collecting = true
			} else {
				continue
			}
		}
		if isFenceLine(trimmed) {
			continue
		}
		lines = append(lines, trimmed)
	}

	query := strings.TrimSpace(strings.Join(lines, "\n"))
	if query == "" {
		return Reply{Kind: ReplyEmpty}
	}
	return Reply{
		Kind:        ReplyHeuristic,
		Explanation: FallbackExplanation,
		Query:       query,
	}
}

// startsWithReadClause checks the leading run of letters, so "MATCH(n)" and
// "match (n)" both count while "MATCHES" does not.
func startsWithReadClause(line string) bool {
	end := 0
	for end < len(line) && unicode.IsLetter(rune(line[end])) {
		end++
	}
	if end == 0 {
		return false
	}
	token := strings.ToUpper(line[:end])
	for _, kw := range ReadClauseKeywords {
		if token == kw {
			return true
		}
	}
	return false
}

func isFenceLine(line string) bool {
	return strings.HasPrefix(line, "```")
}

// stripFence removes a surrounding markdown code fence, with or without a language tag.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
