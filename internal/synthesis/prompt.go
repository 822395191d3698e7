// internal/synthesis/prompt.go
package synthesis

import (
	"fmt"
	"strings"

	"cypher-catalog/internal/models"
)

const cypherSystemMessage = "You are a Neo4j Cypher expert."

var (
	// DataLabels are the business node labels present in the graph.
	DataLabels = []string{
		"Client", "Bank_account", "Card_detail", "Card_transaction", "Loan_record",
		"Employee", "Branche", "Customer_support", "Online_transaction",
	}

	// MetadataLabels describe the catalog itself.
	MetadataLabels = []string{"Table", "Column", "CDE", "Region"}

	RelationshipTypes = []string{
		"HAS_ACCOUNT", "HAS_CARD", "HAS_LOAN", "HAS_TRANSACTION", "HAS_COLUMN",
		"IS_CDE_FOR", "BELONGS_TO_REGION", "LOADS_INTO", "JOINS",
	}
)

// FormatSchema renders one line per table: "- TABLE: col (TYPE), col (TYPE)".
func FormatSchema(schema models.SchemaContext) string {
	if len(schema) == 0 {
		return "(no catalog tables available)"
	}
	var sb strings.Builder
	for i, table := range schema {
		if i > 0 {
			sb.WriteString("\n")
		}
		cols := make([]string, 0, len(table.Columns))
		for _, c := range table.Columns {
			if c.DataType == "" {
				cols = append(cols, c.Name)
				continue
			}
			cols = append(cols, fmt.Sprintf("%s (%s)", c.Name, c.DataType))
		}
		fmt.Fprintf(&sb, "- %s: %s", table.Table, strings.Join(cols, ", "))
	}
	return sb.String()
}

// BuildPrompt assembles the user message sent to the model for question.
func BuildPrompt(question string, schema models.SchemaContext) string {
	return fmt.Sprintf(`You are a Cypher query expert for Neo4j databases.

Schema Context:
%s

User Question: %s

Generate a valid, read-only Cypher query to answer this question. The database contains:
- Data nodes: %s
- Metadata nodes: %s
- Relationships: %s

Provide:
1. A brief explanation of what the query does
2. The Cypher query itself

Format your response as:
EXPLANATION: <explanation>
CYPHER: <query>
`,
		FormatSchema(schema),
		question,
		strings.Join(DataLabels, ", "),
		strings.Join(MetadataLabels, ", "),
		strings.Join(RelationshipTypes, ", "),
	)
}
