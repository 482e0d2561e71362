package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/solresol/haruspex/internal/llm"
	"github.com/solresol/haruspex/internal/model"
)

const classificationPrompt = `You are an expert in analyzing scientific literature, particularly in astronomy and astrophysics. Your task is to classify the relationship between a citing paper and a cited paper based on their abstracts.

Classification categories:
- SUPPORTING: The citing paper agrees with, confirms, validates, builds upon, or extends the cited work's findings or conclusions.
- CONTRASTING: The citing paper disagrees with, challenges, questions, or presents alternative interpretations to the cited work. There is tension but not definitive refutation.
- REFUTING: The citing paper provides strong evidence that definitively rules out, disproves, or renders obsolete the cited work's hypothesis or conclusions. This includes statistical exclusions (e.g., "ruled out at 5 sigma"), experimental refutations, or clear demonstrations that a theory is no longer viable.
- CONTEXTUAL: The citing paper references the cited work for background, historical context, general statements, or as a review without taking a stance.
- METHODOLOGICAL: The citing paper references the cited work for its methods, data, tools, techniques, software, or observational data without commenting on its conclusions.
- NEUTRAL: Simple acknowledgment or citation without any clear stance or relationship.

Important distinctions:
- REFUTING is stronger than CONTRASTING. REFUTING means the hypothesis/theory is ruled out; CONTRASTING means there is disagreement but the matter is not settled.
- Be particularly careful to identify REFUTING cases, as these are critical for understanding scientific consensus.
- Look for statistical language like "excluded at X sigma", "ruled out", "refuted", "no longer viable".

Respond with a JSON object containing:
- "classification": One of the six categories above
- "confidence": A number between 0 and 1 indicating your confidence
- "reasoning": A brief explanation of why you chose this classification`

// LLMOracle asks a hosted model to judge each edge. A failed call is
// returned as an error so the caller can decide whether to fall back.
type LLMOracle struct {
	Client llm.Client
	Model  string
}

func NewLLMOracle(client llm.Client, modelName string) *LLMOracle {
	return &LLMOracle{Client: client, Model: modelName}
}

func (o *LLMOracle) Name() string {
	return "llm:" + o.Model
}

type llmVerdict struct {
	Classification string  `json:"classification"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
}

func (o *LLMOracle) Classify(ctx context.Context, p Pair) (Judgement, error) {
	prompt := buildPrompt(p)

	response, err := o.Client.Generate(ctx, prompt)
	if err != nil {
		return Judgement{}, fmt.Errorf("llm classification failed: %w", err)
	}

	verdict, err := parseJSON[llmVerdict](response)
	if err != nil {
		// Salvage a bare label from a non-JSON reply before giving up.
		if label, ok := scanLabel(response); ok {
			return Judgement{
				Label:      label,
				Confidence: 0.5,
				Reasoning:  fmt.Sprintf("extracted from non-JSON response: %.100s", response),
			}, nil
		}
		return Judgement{}, fmt.Errorf("unparseable llm response: %w", err)
	}

	label, err := model.ParseClassification(strings.ToUpper(strings.TrimSpace(verdict.Classification)))
	if err != nil {
		label = model.Neutral
		verdict.Confidence = 0.3
	}

	confidence := verdict.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 0.99 {
		confidence = 0.99
	}

	reasoning := verdict.Reasoning
	if reasoning == "" {
		reasoning = "llm classification"
	}

	return Judgement{Label: label, Confidence: confidence, Reasoning: reasoning}, nil
}

func buildPrompt(p Pair) string {
	citedTitle := p.CitedTitle
	if citedTitle == "" {
		citedTitle = "Unknown"
	}
	citedAbstract := p.CitedAbstract
	if citedAbstract == "" {
		citedAbstract = "No abstract available"
	}
	citingAbstract := p.CitingAbstract
	if citingAbstract == "" {
		citingAbstract = "No abstract available"
	}

	var b strings.Builder
	b.WriteString(classificationPrompt)
	b.WriteString("\n\nAnalyze the relationship between these two papers:\n\n")
	fmt.Fprintf(&b, "CITED PAPER:\nTitle: %s\nAbstract: %s\n\n", citedTitle, citedAbstract)
	fmt.Fprintf(&b, "CITING PAPER (the paper that cites the above):\nAbstract: %s\n", citingAbstract)
	if p.ContextText != "" {
		fmt.Fprintf(&b, "\nCITATION CONTEXT:\n%s\n", p.ContextText)
	}
	b.WriteString("\nBased on the citing paper's abstract, classify its relationship to the cited paper.")
	return b.String()
}

// scanLabel checks for label names in priority order, REFUTING first so a
// reply mentioning several labels resolves to the strongest one.
func scanLabel(response string) (model.Classification, bool) {
	upper := strings.ToUpper(response)
	for _, label := range []model.Classification{
		model.Refuting, model.Supporting, model.Contrasting,
		model.Methodological, model.Contextual, model.Neutral,
	} {
		if strings.Contains(upper, string(label)) {
			return label, true
		}
	}
	return model.Neutral, false
}
