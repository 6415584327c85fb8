package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/xxxsen/docchat/internal/model"
	"github.com/xxxsen/docchat/internal/report"
)

const kbPromptTemplate = `You are an information extraction expert. Based on the following text from the document "%s", produce a list of frequently asked questions and their concise answers.
The goal is a knowledge base for answering readers quickly. Answers must be based only on the attached text, clear and well formatted.
Output ONLY a JSON array in this exact shape, with 5 to 20 entries:
[
    {"standard_question": "a common question from the text", "answer": "the answer to that question"}
]
--- begin reference text ---
%s
--- end reference text ---`

// KBGenerator builds a document's cached Q&A set from a bounded prefix of
// its text. This runs once per document, right after indexing.
type KBGenerator struct {
	orch        *Orchestrator
	sampleChars int
	reporter    report.Reporter
}

func NewKBGenerator(orch *Orchestrator, sampleChars int, reporter report.Reporter) *KBGenerator {
	if sampleChars <= 0 {
		sampleChars = 30000
	}
	if reporter == nil {
		reporter = report.NewNopReporter()
	}
	return &KBGenerator{orch: orch, sampleChars: sampleChars, reporter: reporter}
}

func (g *KBGenerator) Generate(ctx context.Context, doc model.DocumentRef, text string) ([]model.CachedAnswer, error) {
	sample := text
	if len(sample) > g.sampleChars {
		cut := g.sampleChars
		// Back off to a rune boundary so the sample stays valid UTF-8.
		for cut > 0 && !utf8.RuneStart(sample[cut]) {
			cut--
		}
		sample = sample[:cut]
	}
	prompt := fmt.Sprintf(kbPromptTemplate, doc.Name, sample)
	raw, err := g.orch.Generate(ctx, prompt, nil, "")
	if err != nil {
		g.reporter.Report(ctx, report.EventKBGenFailed, zap.String("document_id", doc.ID), zap.Error(err))
		return nil, fmt.Errorf("generate kb for %s: %w", doc.ID, err)
	}
	entries, err := parseKBEntries(raw, doc.ID)
	if err != nil {
		g.reporter.Report(ctx, report.EventKBGenFailed, zap.String("document_id", doc.ID), zap.Error(err))
		return nil, fmt.Errorf("parse kb for %s: %w", doc.ID, err)
	}
	g.reporter.Report(ctx, report.EventKBGenerated,
		zap.String("document_id", doc.ID),
		zap.Int("entries", len(entries)),
	)
	return entries, nil
}

// parseKBEntries tolerates fenced code blocks and stray prose around the
// JSON array, and drops entries with missing fields.
func parseKBEntries(output, documentID string) ([]model.CachedAnswer, error) {
	clean := strings.TrimSpace(output)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	start := strings.Index(clean, "[")
	end := strings.LastIndex(clean, "]")
	if start >= 0 && end > start {
		clean = clean[start : end+1]
	}

	var raw []struct {
		StandardQuestion string `json:"standard_question"`
		Answer           string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		return nil, fmt.Errorf("parse kb json: %w", err)
	}
	entries := make([]model.CachedAnswer, 0, len(raw))
	for _, item := range raw {
		question := strings.TrimSpace(item.StandardQuestion)
		answer := strings.TrimSpace(item.Answer)
		if question == "" || answer == "" {
			continue
		}
		entries = append(entries, model.CachedAnswer{
			DocumentID:       documentID,
			StandardQuestion: question,
			Answer:           answer,
		})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no usable kb entries")
	}
	return entries, nil
}
