// Package dedup groups duplicate and near-duplicate documents and keeps
// the best version of each group.
package dedup

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/textnorm"
)

// Defaults for probable-duplicate detection.
const (
	DefaultSimilarityThreshold  = 0.95
	DefaultLengthRatioThreshold = 0.90
)

// Quality score weights.
const (
	weightOCR          = 0.40
	weightCompleteness = 0.30
	weightFreshness    = 0.20
	weightRecency      = 0.10
)

// Options configures duplicate detection.
type Options struct {
	SimilarityThreshold  float64
	LengthRatioThreshold float64
}

// DefaultOptions returns the default thresholds.
func DefaultOptions() Options {
	return Options{
		SimilarityThreshold:  DefaultSimilarityThreshold,
		LengthRatioThreshold: DefaultLengthRatioThreshold,
	}
}

// Result is the outcome of deduplication.
type Result struct {
	// Kept holds one document per group plus every ungrouped document, in input order.
	Kept []*domain.ProcessedDocument

	Removed []domain.RemovedDocument

	// Groups lists the document IDs of each duplicate group (size >= 2), kept document first.
	Groups [][]string
}

// Deduplicate groups duplicates among docs and keeps the highest-quality
// member of each group. Documents whose extraction failed are never grouped:
// their NO DATA FOUND stubs would otherwise all hash alike.
func Deduplicate(docs []*domain.ProcessedDocument, opts Options) Result {
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if opts.LengthRatioThreshold <= 0 {
		opts.LengthRatioThreshold = DefaultLengthRatioThreshold
	}

	n := len(docs)
	uf := newUnionFind(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if _, dup := compare(docs[i], docs[j], opts); dup {
				uf.union(i, j)
			}
		}
	}

	members := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := uf.find(i)
		members[root] = append(members[root], i)
	}

	var res Result
	keep := make([]bool, n)
	roots := make([]int, 0, len(members))
	for root := range members {
		roots = append(roots, root)
	}
	sort.Ints(roots)

	for _, root := range roots {
		group := members[root]
		if len(group) == 1 {
			keep[group[0]] = true
			continue
		}

		best := pickBest(docs, group)
		keep[best] = true
		ids := []string{docs[best].ID}

		for _, idx := range group {
			if idx == best {
				continue
			}
			ids = append(ids, docs[idx].ID)
			sim, _ := compare(docs[idx], docs[best], opts)
			res.Removed = append(res.Removed, domain.RemovedDocument{
				DocumentID:     docs[idx].ID,
				Filename:       docs[idx].Filename,
				KeptDocumentID: docs[best].ID,
				KeptFilename:   docs[best].Filename,
				Similarity:     round(sim.similarity),
				Reason:         sim.reason(docs[best].Filename),
			})
		}
		res.Groups = append(res.Groups, ids)
	}

	for i, d := range docs {
		if keep[i] {
			res.Kept = append(res.Kept, d)
		}
	}
	return res
}

type similarity struct {
	exact       bool
	similarity  float64
	lengthRatio float64
}

func (s similarity) reason(keptName string) string {
	if s.exact {
		return fmt.Sprintf("exact duplicate of %s (identical content hash)", keptName)
	}
	return fmt.Sprintf("probable duplicate of %s (similarity %.3f, length ratio %.3f)",
		keptName, s.similarity, s.lengthRatio)
}

func compare(a, b *domain.ProcessedDocument, opts Options) (similarity, bool) {
	if a.ExtractionFailed() || b.ExtractionFailed() {
		return similarity{}, false
	}
	fa, fb := a.Fingerprint, b.Fingerprint
	if fa.ContentHash != "" && fa.ContentHash == fb.ContentHash {
		return similarity{exact: true, similarity: 1, lengthRatio: 1}, true
	}
	s := similarity{
		lengthRatio: LengthRatio(fa.Length, fb.Length),
		similarity:  CosineSimilarity(fa.SampleText, fb.SampleText),
	}
	dup := s.lengthRatio >= opts.LengthRatioThreshold && s.similarity >= opts.SimilarityThreshold
	return s, dup
}

// pickBest returns the index of the group member with the highest quality score.
// Ties go to the earliest upload order.
func pickBest(docs []*domain.ProcessedDocument, group []int) int {
	maxPages, maxLines := 0, 0
	minT, maxT := docs[group[0]].UploadedAt, docs[group[0]].UploadedAt
	for _, idx := range group {
		d := docs[idx]
		maxPages = max(maxPages, len(d.Index.Pages))
		maxLines = max(maxLines, len(d.Index.Lines))
		if d.UploadedAt.Before(minT) {
			minT = d.UploadedAt
		}
		if d.UploadedAt.After(maxT) {
			maxT = d.UploadedAt
		}
	}
	span := maxT.Sub(minT)

	best := -1
	bestScore := -1.0
	for _, idx := range group {
		d := docs[idx]
		completeness := (ratio(len(d.Index.Pages), maxPages) + ratio(len(d.Index.Lines), maxLines)) / 2
		recency := 1.0
		if span > 0 {
			recency = float64(d.UploadedAt.Sub(minT)) / float64(span)
		}
		score := weightOCR*(d.OCRQuality()/100) +
			weightCompleteness*completeness +
			weightFreshness*Freshness(d.Filename) +
			weightRecency*recency

		switch {
		case best < 0, score > bestScore+1e-9:
			best, bestScore = idx, score
		case math.Abs(score-bestScore) <= 1e-9 && d.Order < docs[best].Order:
			best = idx
		}
	}
	return best
}

var (
	versionRe = regexp.MustCompile(`(^|[^a-z0-9])v[2-9]([^0-9]|$)`)

	freshBoosts = map[string]float64{
		"final":     0.3,
		"revisad":   0.2,
		"revised":   0.2,
		"atualizad": 0.2,
	}
	stalePenalties = map[string]float64{
		"rascunho":   0.3,
		"draft":      0.3,
		"preliminar": 0.2,
		"minuta":     0.1,
	}
)

// Freshness scores filename signals around a neutral 0.5, clamped to [0,1].
func Freshness(filename string) float64 {
	name := textnorm.Fold(filename)
	score := 0.5
	for word, w := range freshBoosts {
		if strings.Contains(name, word) {
			score += w
		}
	}
	if versionRe.MatchString(name) {
		score += 0.2
	}
	for word, w := range stalePenalties {
		if strings.Contains(name, word) {
			score -= w
		}
	}
	return math.Max(0, math.Min(1, score))
}

func ratio(v, maxV int) float64 {
	if maxV == 0 {
		return 1
	}
	return float64(v) / float64(maxV)
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// union keeps the smaller index as root so group order is deterministic.
func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}
