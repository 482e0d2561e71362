package classify

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/solresol/haruspex/internal/model"
)

// KeywordOracle classifies edges from linguistic patterns in the citing
// abstract. It needs no network and no credentials, which makes it the
// default oracle and the fallback when a hosted model is unreachable.
type KeywordOracle struct{}

func NewKeywordOracle() *KeywordOracle { return &KeywordOracle{} }

func (o *KeywordOracle) Name() string { return "keyword" }

var supportPatterns = compilePatterns([]string{
	`\b(confirm|confirmed|confirms)\b`,
	`\b(agree|agreed|agrees|agreement)\b`,
	`\b(consistent|consistency)\s+with\b`,
	`\b(support|supported|supports|supporting)\b`,
	`\b(validate|validated|validates|validation)\b`,
	`\b(verify|verified|verifies|verification)\b`,
	`\b(in\s+line\s+with)\b`,
	`\b(corroborate|corroborated)\b`,
	`\b(extend|extended|extends|extending)\b`,
	`\b(build|built|builds)\s+(on|upon)\b`,
	`\b(reinforce|reinforced)\b`,
	`\b(demonstrate|demonstrated|demonstrates)\b.*\bsame\b`,
	`\bas\s+(shown|found|demonstrated|reported)\s+by\b`,
	`\b(similar\s+to|similar\s+results)\b`,
})

var contrastPatterns = compilePatterns([]string{
	`\b(disagree|disagreed|disagrees|disagreement)\b`,
	`\b(contradict|contradicted|contradicts|contradiction)\b`,
	`\b(inconsistent|inconsistency)\b`,
	`\b(challenge|challenged|challenges|challenging)\b`,
	`\b(question|questioned|questions)\b`,
	`\b(contrary|contrast)\s+to\b`,
	`\b(unlike|different\s+from)\b`,
	`\b(however|although|but|yet)\b.*\b(found|showed|reported)\b`,
	`\b(alternative|alternatively)\b`,
	`\b(revise|revised|revises|revision)\b`,
	`\b(tension|discrepancy)\b`,
	`\b(not\s+support|does\s+not\s+support|do\s+not\s+support)\b`,
	`\b(failed\s+to|fails\s+to)\s+(confirm|reproduce|replicate)\b`,
	`\b(overestimate|underestimate)\b`,
	`\b(at\s+odds\s+with)\b`,
})

var refutePatterns = compilePatterns([]string{
	`\b(rule[ds]?\s+out|ruled\s+out)\b`,
	`\b(exclude[ds]?|excluded)\b`,
	`\b(disprove[dns]?|disproven)\b`,
	`\b(refute[ds]?|refuted|refuting)\b`,
	`\b(reject[eds]?|rejected)\b`,
	`\bno\s+longer\s+(viable|tenable|valid)\b`,
	`\b(definitively|conclusively)\s+(shown|demonstrated|proved)\b`,
	`\b(incompatible|irreconcilable)\s+with\b`,
	`\b(inconsistent\s+at|excluded\s+at)\s+\d+\s*[σs]`,
	`>\s*\d+\s*[σs]\s+(exclusion|tension)`,
	`\b(firmly|strongly)\s+(excluded|ruled\s+out|rejected)\b`,
	`\b(abandoned|discarded|superseded)\b`,
	`\b(obsolete|outdated)\s+(model|theory|hypothesis)\b`,
	`\b(fatal|insurmountable)\s+(flaw|problem)\b`,
	`\b(cannot|could\s+not)\s+(explain|account\s+for)\b.*\bobserv`,
})

var methodPatterns = compilePatterns([]string{
	`\b(method|methods|methodology)\b.*\b(described|developed|introduced)\s+by\b`,
	`\b(technique|techniques)\b.*\bfrom\b`,
	`\b(code|software|pipeline|algorithm)\b.*\b(from|by)\b`,
	`\b(data|catalog|survey)\b.*\b(from|by)\b`,
	`\b(following|follow)\s+the\s+(method|approach|procedure)\b`,
	`\b(using|used|use)\s+the\s+(method|code|software)\b`,
	`\b(adopted|adopt|adopting)\s+(from|the\s+method)\b`,
	`\bas\s+(implemented|described)\s+in\b`,
})

var contextPatterns = compilePatterns([]string{
	`\b(see|e\.g\.|for\s+example|for\s+instance)\b`,
	`\b(review|reviews|reviewed)\s+(in|by)\b`,
	`\b(discovered|first\s+reported)\s+by\b`,
	`\b(originally|initially)\s+(proposed|suggested)\b`,
	`\b(well[\s-]known|well[\s-]established)\b`,
	`\b(theoretical\s+framework|model)\s+(of|from|by)\b`,
	`\b(history|historical|historically)\b`,
	`\b(seminal|pioneering|landmark)\b`,
})

func compilePatterns(raw []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(raw))
	for _, p := range raw {
		out = append(out, regexp.MustCompile(`(?i)`+p))
	}
	return out
}

func countMatches(patterns []*regexp.Regexp, text string) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(text) {
			n++
		}
	}
	return n
}

func (o *KeywordOracle) Classify(ctx context.Context, p Pair) (Judgement, error) {
	text := p.CitingAbstract
	if p.ContextText != "" {
		text = text + " " + p.ContextText
	}
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return Judgement{Label: model.Neutral, Confidence: 0.0, Reasoning: "no citing abstract available"}, nil
	}

	refuteMatches := countMatches(refutePatterns, text)

	// Refuting matches score double since the language is more definitive.
	scores := map[model.Classification]int{
		model.Supporting:     countMatches(supportPatterns, text),
		model.Contrasting:    countMatches(contrastPatterns, text),
		model.Refuting:       refuteMatches * 2,
		model.Methodological: countMatches(methodPatterns, text),
		model.Contextual:     countMatches(contextPatterns, text),
	}

	total := 0
	best := model.Neutral
	bestScore := 0
	for _, label := range []model.Classification{
		model.Supporting, model.Contrasting, model.Refuting,
		model.Methodological, model.Contextual,
	} {
		score := scores[label]
		total += score
		if score > bestScore {
			best, bestScore = label, score
		}
	}
	if bestScore == 0 {
		return Judgement{Label: model.Neutral, Confidence: 0.0, Reasoning: "no strong signals detected"}, nil
	}

	confidence := float64(bestScore) / float64(total)

	ranked := make([]int, 0, len(scores))
	for _, s := range scores {
		ranked = append(ranked, s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranked)))
	if ranked[1] > 0 && float64(ranked[1]) >= float64(bestScore)*0.7 {
		// Competing signals lower the certainty.
		confidence *= 0.6
	}

	if best == model.Refuting && refuteMatches >= 2 {
		confidence = confidence * 1.2
	}
	if confidence > 0.95 {
		confidence = 0.95
	}

	return Judgement{
		Label:      best,
		Confidence: confidence,
		Reasoning:  fmt.Sprintf("keyword analysis: %d %s signal(s) among %d total matches", bestScore, best, total),
	}, nil
}
