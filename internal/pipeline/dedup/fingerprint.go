package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/textnorm"
)

// DefaultSampleTokens bounds the similarity sample.
const DefaultSampleTokens = 2000

// Fingerprint computes the content hash and similarity sample of a text.
// Identical normalised texts always produce identical fingerprints.
func Fingerprint(text string, sampleTokens int) domain.Fingerprint {
	if sampleTokens <= 0 {
		sampleTokens = DefaultSampleTokens
	}
	normalised := textnorm.Normalize(text)
	tokens := textnorm.Tokens(normalised)

	sample := tokens
	if len(sample) > sampleTokens {
		sample = sample[:sampleTokens]
	}
	sampleText := strings.Join(sample, " ")

	return domain.Fingerprint{
		ContentHash:      digest(normalised),
		SimilaritySketch: digest(sampleText),
		SampleText:       sampleText,
		Length:           utf8.RuneCountInString(normalised),
		WordCount:        len(tokens),
	}
}

// CosineSimilarity compares two token samples as bag-of-words frequency vectors.
func CosineSimilarity(a, b string) float64 {
	fa := frequencies(a)
	fb := frequencies(b)
	if len(fa) == 0 || len(fb) == 0 {
		return 0
	}

	var dot, na, nb float64
	for w, ca := range fa {
		na += ca * ca
		if cb, ok := fb[w]; ok {
			dot += ca * cb
		}
	}
	for _, cb := range fb {
		nb += cb * cb
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// LengthRatio returns min(a,b)/max(a,b), or 1 when both are zero.
func LengthRatio(a, b int) float64 {
	if a == 0 && b == 0 {
		return 1
	}
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return float64(lo) / float64(hi)
}

func frequencies(sample string) map[string]float64 {
	f := make(map[string]float64)
	for _, w := range strings.Fields(sample) {
		f[w]++
	}
	return f
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
