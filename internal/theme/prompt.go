package theme

import (
	"fmt"

	"github.com/dgallion1/docthemes/internal/extract"
	"github.com/dgallion1/docthemes/internal/llm"
)

const SystemPrompt = `You are an expert at identifying themes across documents.
Analyze the information from multiple documents and identify common themes that emerge.
For each theme, provide a clear name, description, and list of documents that support it.
Only use the document IDs that appear in the information you are given.
Rate your confidence in each theme on a scale of 1-10.`

const userPrompt = `Query: %s

Information from documents:
%s

Identify 2-5 common themes across these documents. Return your answer as a JSON list:
[
  {
    "theme_name": "Theme 1",
    "theme_description": "Description of theme 1",
    "supporting_documents": ["doc_id1", "doc_id2"],
    "confidence": confidence_score_1_to_10
  }
]

Respond with ONLY the JSON list, no other text.`

// BuildUserPrompt renders the query and the relevant answers.
func BuildUserPrompt(query string, relevant []extract.DocumentAnswer) string {
	return fmt.Sprintf(userPrompt, query, extract.ContextBlock(relevant))
}

func request(query string, relevant []extract.DocumentAnswer) llm.Request {
	return llm.UserRequest(llm.StageTheme, SystemPrompt, BuildUserPrompt(query, relevant))
}
