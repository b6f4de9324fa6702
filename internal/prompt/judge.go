package prompt

import (
	"fmt"

	"github.com/bookrag/bookrag/internal/llm"
)

const correctnessInstructions = `You are a teacher grading a quiz.

You will be given a QUESTION, the GROUND TRUTH (correct) ANSWER, and the STUDENT ANSWER.

Here is the grade criteria to follow:
(1) Grade the student answers based ONLY on their factual accuracy relative to the ground truth answer.
(2) Ensure that the student answer does not contain any conflicting statements.
(3) It is OK if the student answer contains more information than the ground truth answer, as long as it is factually accurate relative to the ground truth answer.

Correctness:
A correctness value of True means that the student's answer meets all of the criteria.
A correctness value of False means that the student's answer does not meet all of the criteria.

Explain your reasoning in a step-by-step manner to ensure your reasoning and conclusion are correct.

Avoid simply stating the correct answer at the outset.`

const relevanceInstructions = `You are a teacher grading a quiz.

You will be given a QUESTION and a STUDENT ANSWER.

Here is the grade criteria to follow:
(1) Ensure the STUDENT ANSWER is concise and relevant to the QUESTION
(2) Ensure the STUDENT ANSWER helps to answer the QUESTION

Relevance:
A relevance value of True means that the student's answer meets all of the criteria.
A relevance value of False means that the student's answer does not meet all of the criteria.

Explain your reasoning in a step-by-step manner to ensure your reasoning and conclusion are correct.

Avoid simply stating the correct answer at the outset.`

func CorrectnessMessages(question, reference, answer string) []llm.Message {
	return []llm.Message{
		llm.System(correctnessInstructions),
		llm.User(fmt.Sprintf("QUESTION: %s\nGROUND TRUTH ANSWER: %s\nSTUDENT ANSWER: %s", question, reference, answer)),
	}
}

func RelevanceMessages(question, answer string) []llm.Message {
	return []llm.Message{
		llm.System(relevanceInstructions),
		llm.User(fmt.Sprintf("QUESTION: %s\nSTUDENT ANSWER: %s", question, answer)),
	}
}
