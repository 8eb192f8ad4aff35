package report

import (
	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/textnorm"
)

var stopwords = map[string]bool{
	"qual": true, "quais": true, "quando": true, "onde": true, "como": true,
	"para": true, "pela": true, "pelo": true, "sera": true, "serao": true,
	"esta": true, "este": true, "isso": true, "essa": true, "esse": true,
	"what": true, "when": true, "which": true, "where": true, "does": true,
	"with": true, "from": true, "that": true, "there": true, "have": true,
}

// answer cites the corpus line sharing the most words with the question.
// Ties go to the earliest line, which is the highest-priority document.
func answer(l *agents.Locator, question string) domain.QuestionAnswer {
	qa := domain.QuestionAnswer{Question: question, Answer: domain.NotFound[string]("answer")}

	terms := make(map[string]bool)
	for _, t := range textnorm.Tokens(question) {
		if len(t) > 3 && !stopwords[t] {
			terms[t] = true
		}
	}
	if len(terms) == 0 {
		return qa
	}

	best, bestScore := 0, 0
	for n := 1; n <= l.Lines(); n++ {
		seen := make(map[string]bool)
		score := 0
		for _, t := range textnorm.Tokens(l.Folded(n)) {
			if terms[t] && !seen[t] {
				seen[t] = true
				score++
			}
		}
		if score > bestScore {
			best, bestScore = n, score
		}
	}
	if bestScore == 0 {
		return qa
	}

	ev := l.LineEvidence("answer", best, float64(bestScore)/float64(len(terms)))
	qa.Answer = domain.Found(ev.LiteralExcerpt, ev)
	return qa
}
