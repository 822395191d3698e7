package synthesis

import (
	"context"
	"fmt"
	"strings"

	"cypher-catalog/internal/common/logger"
	"cypher-catalog/internal/common/metrics"
	"cypher-catalog/internal/genai"
)

const sqlSystemMessage = "You are a database expert converting Cypher to SQL. Return only valid SQL code."

// RelationalSchema is the relational layout of the bank data the graph was loaded from.
const RelationalSchema = `- clients (client_id, first_name, last_name, email_address, phone_number, date_of_birth, address, city, state, zip_code, country, account_opening_date)
- bank_accounts (account_id, client_id, account_no, balance_amount, account_category, account_opening_date, account_status)
- account_types (account_category, min_balance_req, interest_rate, monthly_fee)
- card_details (card_id, client_id, card_number, card_type, card_status, card_issue_date, card_expiry_date)
- card_transactions (transaction_id, card_id, merchant_name, transaction_amount, transaction_date, transaction_status)
- loan_records (loan_id, client_id, loan_amount, interest_rate, loan_status, loan_start_date, loan_end_date, monthly_payment)
- employees (employee_id, emp_first_name, emp_last_name, emp_role, emp_salary, emp_hire_date, branch_id)
- branches (branch_id, branch_name, branch_address, branch_city, branch_state, branch_zip, branch_phone)
- customer_support (ticket_id, client_id, issue_category, issue_description, ticket_status, ticket_created_date, ticket_resolved_date)
- online_transactions (online_txn_id, account_id, txn_amount, txn_date, txn_status, payment_method)

Relationships (for joins):
- clients.client_id -> bank_accounts.client_id
- clients.client_id -> card_details.client_id
- clients.client_id -> loan_records.client_id
- card_details.card_id -> card_transactions.card_id
- employees.branch_id -> branches.branch_id
- clients.client_id -> customer_support.client_id
- bank_accounts.account_id -> online_transactions.account_id
- bank_accounts.account_category -> account_types.account_category`

// Translator produces an equivalent SQL query so users can read the Cypher in familiar terms.
type Translator struct {
	model  genai.Completer
	logger logger.Logger
}

func NewTranslator(model genai.Completer, log logger.Logger) *Translator {
	return &Translator{
		model:  model,
		logger: logger.Component(log, "translator"),
	}
}

func (t *Translator) Configured() bool {
	return t.model != nil && t.model.Configured()
}

// Translate never fails; errors come back as a SQL comment.
func (t *Translator) Translate(ctx context.Context, cypherQuery, question string) string {
	if !t.Configured() {
		return ""
	}

	prompt := fmt.Sprintf(`You are a database expert. Convert this Neo4j Cypher query to an equivalent SQL query.

Original Question: %s

Cypher Query:
%s

Database Schema (assume relational):
%s

Convert the Cypher query to a valid SQL query (PostgreSQL/MySQL compatible).
Return ONLY the SQL query, no explanations.`, question, cypherQuery, RelationalSchema)

	reply, err := t.model.Complete(ctx, sqlSystemMessage, prompt, genai.Options{
		Temperature: 0.3,
		MaxTokens:   500,
	})
	metrics.ObserveModelCall("translate", err)
	if err != nil {
		t.logger.Warn("sql translation failed", map[string]interface{}{"error": err.Error()})
		return fmt.Sprintf("-- SQL generation failed: %v", err)
	}
	return StripSQLFence(reply)
}

// StripSQLFence removes a leading ```sql or ``` fence and any closing fence.
func StripSQLFence(s string) string {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "```sql"):
		s = strings.ReplaceAll(strings.ReplaceAll(s, "```sql", ""), "```", "")
	case strings.HasPrefix(s, "```"):
		s = strings.ReplaceAll(s, "```", "")
	}
	return strings.TrimSpace(s)
}
