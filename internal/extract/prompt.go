package extract

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docthemes/internal/llm"
)

const SystemPrompt = `You are an expert document analyzer.
Extract the most relevant information from the document context that answers the query.
Include specific page numbers, paragraphs, or sections if possible. Passages are prefixed with
their location in square brackets, e.g. [Page 3] or [Methods > Sampling]; cite those.
If the document doesn't contain relevant information, state that clearly.

Rate the relevance of the document to the query on a scale of 1-10,
where 10 is perfectly relevant and 1 is not relevant at all.`

const RepairPrompt = `Your previous reply could not be used: %s

Reformat your previous reply as a single JSON object with exactly these fields and nothing else:
{"doc_id": string, "filename": string, "extracted_answer": string, "citation": string, "relevance": integer from 1 to 10}

Respond with ONLY the JSON object, no other text.`

// BuildUserPrompt renders the query, the document's joined context, and the
// required answer shape.
func BuildUserPrompt(query, contextText, documentID, filename string) string {
	var sb strings.Builder
	sb.WriteString("Query: ")
	sb.WriteString(query)
	sb.WriteString("\n\nDocument Context:\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\nReturn your answer as a single JSON object in the following format:\n")
	sb.WriteString("{\n")
	sb.WriteString(fmt.Sprintf("  \"doc_id\": %q,\n", documentID))
	sb.WriteString(fmt.Sprintf("  \"filename\": %q,\n", filename))
	sb.WriteString("  \"extracted_answer\": \"The relevant information from the document\",\n")
	sb.WriteString("  \"citation\": \"Specific location (page, paragraph, section)\",\n")
	sb.WriteString("  \"relevance\": relevance_score_1_to_10\n")
	sb.WriteString("}\n\nRespond with ONLY the JSON object, no other text.")
	return sb.String()
}

func initialRequest(query, contextText, documentID, filename string) llm.Request {
	return llm.UserRequest(llm.StageExtract, SystemPrompt, BuildUserPrompt(query, contextText, documentID, filename))
}

// repairRequest replays the first exchange and asks the model to reformat
// its own reply.
func repairRequest(first llm.Request, reply string, cause error) llm.Request {
	msgs := make([]llm.Message, 0, len(first.Messages)+2)
	msgs = append(msgs, first.Messages...)
	msgs = append(msgs,
		llm.Message{Role: llm.RoleAssistant, Content: reply},
		llm.Message{Role: llm.RoleUser, Content: fmt.Sprintf(RepairPrompt, llm.Truncate(cause.Error(), 300))},
	)
	return llm.Request{
		Stage:    llm.StageRepair,
		System:   first.System,
		Messages: msgs,
	}
}
