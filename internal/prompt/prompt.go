package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/bookrag/bookrag/internal/llm"
)

const DefaultTopK = 5

const querySystemTemplate = `
Given an input question, create a syntactically correct {{.Dialect}} query to
run to help find the answer. Unless the user specifies in their question a
specific number of examples they wish to obtain, always limit your query to
at most {{.TopK}} results. You can order the results by a relevant column to
return the most interesting examples in the database.

Never query for all the columns from a specific table, only ask for the
few relevant columns given the question. Always use quotes around column names.

Pay attention to use only the column names that you can see in the schema
description. Be careful to not query for columns that do not exist. Also,
pay attention to which column is in which table.

Only use the following tables:
{{.TableInfo}}
`

const queryUserTemplate = `Question: {{.Question}}`

const answerTemplate = `You are a helpful assistant that answers users inquiries about the books available in different bookstores. ` +
	`Given the following user question, corresponding SQL query, database schema information ` +
	`and SQL {{if .Failed}}error{{else}}result{{end}} as context, answer the user question. ` +
	`If the information in the context is strictly not enough to answer the users question, give the user a reason why the information is not enough to answer the users question. ` +
	`The end user does not need to know about how the information was retrieved or how the query was generated. ` +
	`The user only needs to know the answer to their question or why it was not met.

Question: {{.Question}}
SQL Query: {{.Query}}
Database Schema Information: {{.TableInfo}}
{{if .Failed}}SQL Error: {{.Error}}{{else}}SQL Result: {{.Result}}{{end}}`

var (
	querySystem = template.Must(template.New("query_system").Parse(querySystemTemplate))
	queryUser   = template.Must(template.New("query_user").Parse(queryUserTemplate))
	answer      = template.Must(template.New("answer").Parse(answerTemplate))
)

type QueryInput struct {
	Question  string
	Dialect   string
	TopK      int
	TableInfo string
}

// QueryMessages renders the system and user messages for SQL synthesis.
func QueryMessages(in QueryInput) ([]llm.Message, error) {
	if in.TopK <= 0 {
		in.TopK = DefaultTopK
	}
	system, err := render(querySystem, in)
	if err != nil {
		return nil, err
	}
	user, err := render(queryUser, in)
	if err != nil {
		return nil, err
	}
	return []llm.Message{llm.System(system), llm.User(user)}, nil
}

// AnswerInput carries either a result or an execution error, never both.
type AnswerInput struct {
	Question  string
	Query     string
	TableInfo string
	Result    string
	Error     string
	Failed    bool
}

func AnswerMessages(in AnswerInput) ([]llm.Message, error) {
	text, err := render(answer, in)
	if err != nil {
		return nil, err
	}
	return []llm.Message{llm.User(text)}, nil
}

// SummaryMessages asks for a one-sentence book summary used by the data generator.
func SummaryMessages(title, author string) []llm.Message {
	return []llm.Message{llm.User(fmt.Sprintf("Provide a concise, one-sentence summary for the book '%s' by %s.", title, author))}
}

func render(tmpl *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return b.String(), nil
}
