package prompt

import (
	"strings"
	"testing"

	"github.com/bookrag/bookrag/internal/llm"
)

func TestQueryMessagesRendersTemplates(t *testing.T) {
	messages, err := QueryMessages(QueryInput{
		Question:  "Which book is the cheapest?",
		Dialect:   "postgresql",
		TableInfo: "CREATE TABLE book_store_one (\n\tprice DOUBLE PRECISION\n)",
	})
	if err != nil {
		t.Fatalf("QueryMessages() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len(messages) = %d", len(messages))
	}
	if messages[0].Role != llm.RoleSystem || messages[1].Role != llm.RoleUser {
		t.Fatalf("roles = %q/%q", messages[0].Role, messages[1].Role)
	}
	system := messages[0].Content
	for _, snippet := range []string{
		"syntactically correct postgresql query",
		"at most 5 results",
		"Always use quotes around column names.",
		"CREATE TABLE book_store_one",
	} {
		if !strings.Contains(system, snippet) {
			t.Fatalf("system prompt missing %q:\n%s", snippet, system)
		}
	}
	if messages[1].Content != "Question: Which book is the cheapest?" {
		t.Fatalf("user prompt = %q", messages[1].Content)
	}
}

func TestQueryMessagesHonoursTopK(t *testing.T) {
	messages, err := QueryMessages(QueryInput{Question: "q", Dialect: "duckdb", TopK: 12})
	if err != nil {
		t.Fatalf("QueryMessages() error = %v", err)
	}
	if !strings.Contains(messages[0].Content, "at most 12 results") {
		t.Fatalf("system prompt = %q", messages[0].Content)
	}
}

func TestQueryMessagesDoesNotEscapeSQL(t *testing.T) {
	messages, err := QueryMessages(QueryInput{Question: `books by "O'Brien" & co <new>`, Dialect: "postgresql"})
	if err != nil {
		t.Fatalf("QueryMessages() error = %v", err)
	}
	if messages[1].Content != `Question: books by "O'Brien" & co <new>` {
		t.Fatalf("user prompt = %q", messages[1].Content)
	}
}

func TestAnswerMessagesSeparatesResultAndError(t *testing.T) {
	ok, err := AnswerMessages(AnswerInput{
		Question: "How many books?",
		Query:    `SELECT COUNT(*) FROM book_store_one`,
		Result:   "[(42,)]",
	})
	if err != nil {
		t.Fatalf("AnswerMessages() error = %v", err)
	}
	if !strings.Contains(ok[0].Content, "SQL Result: [(42,)]") || strings.Contains(ok[0].Content, "SQL Error:") {
		t.Fatalf("success prompt = %q", ok[0].Content)
	}

	failed, err := AnswerMessages(AnswerInput{
		Question: "How many books?",
		Query:    `SELECT COUNT(*) FROM missing`,
		Error:    `relation "missing" does not exist`,
		Failed:   true,
	})
	if err != nil {
		t.Fatalf("AnswerMessages() error = %v", err)
	}
	content := failed[0].Content
	if !strings.Contains(content, `SQL Error: relation "missing" does not exist`) || strings.Contains(content, "SQL Result:") {
		t.Fatalf("failure prompt = %q", content)
	}
}

func TestJudgeMessages(t *testing.T) {
	correctness := CorrectnessMessages("q", "ref", "ans")
	if len(correctness) != 2 || !strings.Contains(correctness[1].Content, "GROUND TRUTH ANSWER: ref") {
		t.Fatalf("CorrectnessMessages() = %#v", correctness)
	}
	relevance := RelevanceMessages("q", "ans")
	if strings.Contains(relevance[1].Content, "GROUND TRUTH") {
		t.Fatalf("RelevanceMessages() = %#v", relevance)
	}
}

func TestSummaryMessages(t *testing.T) {
	messages := SummaryMessages("Dune", "Frank Herbert")
	if messages[0].Content != "Provide a concise, one-sentence summary for the book 'Dune' by Frank Herbert." {
		t.Fatalf("SummaryMessages() = %q", messages[0].Content)
	}
}
