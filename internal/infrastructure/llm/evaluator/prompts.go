package evaluator

import (
	"fmt"
	"strings"

	"github.com/kirillkom/paper-checker/internal/core/domain"
)

const maxDocumentRunes = 4000

func documentBlock(doc domain.Document) string {
	abstract := []rune(strings.TrimSpace(doc.Abstract))
	if len(abstract) > maxDocumentRunes {
		abstract = abstract[:maxDocumentRunes]
	}
	return fmt.Sprintf("Title: %s\nAbstract: %s", strings.TrimSpace(doc.Title), string(abstract))
}

func buildRelevancePrompt(question string, doc domain.Document) string {
	return fmt.Sprintf(`You rate how well a medical document answers a research question.
Score from 1 to 5:
1 = unrelated, 2 = tangential, 3 = relevant evidence, 4 = strong evidence, 5 = direct and conclusive evidence.

Return strict JSON object:
{"score":1,"reasoning":"..."}
No markdown, no extra keys.

Question:
%s

Document:
%s`, question, documentBlock(doc))
}

func buildPassagePrompt(question string, doc domain.Document) string {
	return fmt.Sprintf(`Copy the single passage from the document that best answers the question.
The passage must be copied exactly from the abstract, one to three sentences.
If nothing in the abstract answers the question return an empty passage.
"relevance" is from 0 to 1.

Return strict JSON object:
{"passage":"...","relevance":0.0}
No markdown, no extra keys.

Question:
%s

Document:
%s`, question, documentBlock(doc))
}
