package genre

import (
	"fmt"
	"sort"
	"strings"

	"github.com/versebound/musemcp/internal/wiki"
)

// Match source markers recorded in matching_reasons so callers and tests can
// tell which data path produced a result.
const (
	sourceWiki     = "wiki data"
	sourceExpanded = "semantic expansion"
	sourceFallback = "fallback table"
)

// Match is one ranked genre result.
type Match struct {
	Genre           wiki.Genre `json:"genre"`
	Confidence      float64    `json:"confidence"`
	MatchingTraits  []string   `json:"matching_traits"`
	MatchingReasons []string   `json:"matching_reasons"`
}

// Component weights for the blended confidence score.
const (
	wContent      = 0.55
	wStructural   = 0.25
	wHierarchical = 0.20

	// Partial-match weights inside the content similarity.
	exactWeight    = 1.0
	stemWeight     = 0.7
	semanticWeight = 0.4

	// hierarchyBonus is added to c3 when a subgenre or parent also matches.
	hierarchyBonus = 0.5

	confidenceFloor = 0.2
)

// Options tune a mapping call.
type Options struct {
	MaxResults      int  // default 5
	UseHierarchical bool // the zero value turns the hierarchy boost off; the tools pass true by default
}

// Mapper ranks genres against trait bags. Genres come from the knowledge
// snapshot captured at request start, so results are deterministic for a
// fixed snapshot.
type Mapper struct {
	genres []wiki.Genre
}

// NewMapper builds a mapper over the given genre set.
func NewMapper(genres []wiki.Genre) *Mapper {
	return &Mapper{genres: genres}
}

// Map ranks genres for the trait list. When no genre clears the confidence
// floor it retries once with semantically expanded traits, and as a last
// resort serves the hardcoded trait table. Every match's reasons carry a
// source marker naming the path that produced it.
func (m *Mapper) Map(traits []string, opts Options) []Match {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}
	traits = normalizeTraits(traits)
	if len(traits) == 0 {
		return []Match{}
	}

	matches := m.scoreAll(traits, opts, sourceWiki)
	if len(matches) == 0 {
		// Semantic expansion: widen each trait through its group, once.
		expanded := expandTraits(traits)
		if len(expanded) > len(traits) {
			matches = m.scoreAll(expanded, opts, sourceExpanded)
		}
	}
	if len(matches) == 0 {
		matches = fallbackMatches(traits, opts.MaxResults)
	}

	if len(matches) > opts.MaxResults {
		matches = matches[:opts.MaxResults]
	}
	return matches
}

// FindSimilar ranks genres similar to the named one, using its own
// characteristics and moods as the trait bag and excluding it from results.
func (m *Mapper) FindSimilar(name string, opts Options) ([]Match, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = 5
	}
	target := m.lookup(name)
	if target == nil {
		return nil, fmt.Errorf("unknown genre %q", name)
	}
	traits := append(append([]string{}, target.Characteristics...), target.MoodAssociations...)

	all := m.Map(traits, Options{MaxResults: opts.MaxResults + 1, UseHierarchical: opts.UseHierarchical})
	out := make([]Match, 0, len(all))
	for _, match := range all {
		if strings.EqualFold(match.Genre.Name, target.Name) {
			continue
		}
		out = append(out, match)
	}
	if opts.MaxResults > 0 && len(out) > opts.MaxResults {
		out = out[:opts.MaxResults]
	}
	return out, nil
}

func (m *Mapper) lookup(name string) *wiki.Genre {
	for i := range m.genres {
		if strings.EqualFold(m.genres[i].Name, name) {
			return &m.genres[i]
		}
	}
	return nil
}

// scoreAll runs the three-component scorer over every genre and keeps those
// above the confidence floor, ranked.
func (m *Mapper) scoreAll(traits []string, opts Options, source string) []Match {
	var matches []Match
	for _, g := range m.genres {
		match, ok := m.scoreGenre(g, traits, opts)
		if !ok {
			continue
		}
		marker := source
		if g.SourceURL == wiki.FallbackSourceURL {
			// Built-in genres served through the manager's fallback path.
			marker = sourceFallback
		}
		match.MatchingReasons = append(match.MatchingReasons, "source: "+marker)
		matches = append(matches, match)
	}

	contentOf := func(g wiki.Genre) float64 {
		c, _, _ := contentScore(traits, append(append([]string{}, g.Characteristics...), g.MoodAssociations...))
		return c
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		// Tie-break on content similarity, then name.
		if ci, cj := contentOf(matches[i].Genre), contentOf(matches[j].Genre); ci != cj {
			return ci > cj
		}
		return matches[i].Genre.Name < matches[j].Genre.Name
	})
	return matches
}

func (m *Mapper) scoreGenre(g wiki.Genre, traits []string, opts Options) (Match, bool) {
	vocab := append(append([]string{}, g.Characteristics...), g.MoodAssociations...)
	c1, matchedTraits, pairings := contentScore(traits, vocab)
	c2 := structuralScore(traits, g)

	var c3 float64
	if opts.UseHierarchical {
		c3 = m.hierarchicalScore(g, traits)
	}

	confidence := clamp01(wContent*c1 + wStructural*c2 + wHierarchical*c3)
	if confidence < confidenceFloor {
		return Match{}, false
	}

	reasons := make([]string, 0, len(pairings)+1)
	// At least three contributing pairings when available.
	limit := len(pairings)
	if limit > 5 {
		limit = 5
	}
	reasons = append(reasons, pairings[:limit]...)
	if c3 > 0 {
		reasons = append(reasons, fmt.Sprintf("hierarchy: related genres of %s also match", g.Name))
	}
	if matchedTraits == nil {
		matchedTraits = []string{}
	}

	return Match{
		Genre:           g,
		Confidence:      round3(confidence),
		MatchingTraits:  matchedTraits,
		MatchingReasons: reasons,
	}, true
}

// contentScore computes weighted Jaccard similarity between the trait bag and
// the genre vocabulary, returning the matched traits and human-readable
// trait-to-field pairings.
func contentScore(traits, vocab []string) (float64, []string, []string) {
	if len(traits) == 0 || len(vocab) == 0 {
		return 0, nil, nil
	}
	vocabNorm := normalizeTraits(vocab)

	var weight float64
	var matched []string
	var pairings []string
	for _, trait := range traits {
		best := 0.0
		var bestTerm string
		var kind string
		for _, term := range vocabNorm {
			switch {
			case trait == term:
				if exactWeight > best {
					best, bestTerm, kind = exactWeight, term, "exact"
				}
			case stem(trait) == stem(term):
				if stemWeight > best {
					best, bestTerm, kind = stemWeight, term, "stemmed"
				}
			case semanticOverlap(trait, term):
				if semanticWeight > best {
					best, bestTerm, kind = semanticWeight, term, "semantic group"
				}
			default:
				// Phrase traits match through any of their words.
				for _, word := range strings.Fields(trait) {
					if len(word) < 4 {
						continue
					}
					if word == term || stem(word) == stem(term) {
						if stemWeight > best {
							best, bestTerm, kind = stemWeight, term, "stemmed"
						}
						break
					}
				}
			}
		}
		if best > 0 {
			weight += best
			matched = append(matched, trait)
			pairings = append(pairings, fmt.Sprintf("trait %q matches %q (%s)", trait, bestTerm, kind))
		}
	}
	union := float64(len(traits) + len(vocabNorm) - len(matched))
	if union <= 0 {
		union = 1
	}
	return weight / union * 2, matched, pairings
}

// structuralScore measures token overlap between traits and the genre's name
// and description. Both sides are stemmed so "improvisation" still meets
// "improvisational".
func structuralScore(traits []string, g wiki.Genre) float64 {
	tokens := map[string]bool{}
	for _, t := range strings.Fields(strings.ToLower(g.Name + " " + g.Description)) {
		t = strings.Trim(t, ".,;:")
		tokens[t] = true
		tokens[stem(t)] = true
	}
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, trait := range traits {
		for _, word := range strings.Fields(trait) {
			if tokens[word] || tokens[stem(word)] {
				hits++
				break
			}
		}
	}
	return clamp01(float64(hits) / float64(len(traits)))
}

// hierarchicalScore adds the documented bonus when a subgenre of g also
// matches the traits, or when g is a subgenre whose parent matches.
func (m *Mapper) hierarchicalScore(g wiki.Genre, traits []string) float64 {
	for _, sub := range g.Subgenres {
		if other := m.lookup(sub); other != nil {
			vocab := append(append([]string{}, other.Characteristics...), other.MoodAssociations...)
			if c, _, _ := contentScore(traits, vocab); c > 0 {
				return hierarchyBonus
			}
		}
	}
	for _, parent := range m.parentsOf(g.Name) {
		if other := m.lookup(parent); other != nil {
			vocab := append(append([]string{}, other.Characteristics...), other.MoodAssociations...)
			if c, _, _ := contentScore(traits, vocab); c > 0 {
				return hierarchyBonus
			}
		}
	}
	return 0
}

// expandTraits widens each trait through its semantic group, keeping the
// originals first and deduplicating.
func expandTraits(traits []string) []string {
	out := append([]string{}, traits...)
	seen := map[string]bool{}
	for _, t := range traits {
		seen[t] = true
	}
	for _, t := range traits {
		for _, concrete := range ExpandTrait(t) {
			if !seen[concrete] {
				seen[concrete] = true
				out = append(out, concrete)
			}
		}
	}
	return out
}

// fallbackMatches serves the hardcoded trait table. Genres are synthesized
// from the fallback set so every match still carries full genre data.
func fallbackMatches(traits []string, maxResults int) []Match {
	votes := map[string][]string{} // genre name -> contributing traits
	var order []string
	for _, trait := range traits {
		for _, genreName := range wiki.FallbackTraitGenres[trait] {
			if _, ok := votes[genreName]; !ok {
				order = append(order, genreName)
			}
			votes[genreName] = append(votes[genreName], trait)
		}
	}
	if len(votes) == 0 {
		// Nothing in the table either: vote through semantic groups.
		for _, trait := range traits {
			for group := range semanticGroups {
				if semanticOverlap(trait, group) {
					for _, genreName := range wiki.FallbackTraitGenres[group] {
						if _, ok := votes[genreName]; !ok {
							order = append(order, genreName)
						}
						votes[genreName] = append(votes[genreName], trait)
					}
				}
			}
		}
	}

	byName := map[string]wiki.Genre{}
	for _, g := range wiki.FallbackGenres() {
		byName[g.Name] = g
	}

	var matches []Match
	for _, name := range order {
		g, ok := byName[name]
		if !ok {
			g = wiki.Genre{Name: name, SourceURL: wiki.FallbackSourceURL}
		}
		contributing := votes[name]
		confidence := clamp01(0.3 + 0.15*float64(len(contributing)))
		reasons := make([]string, 0, len(contributing)+1)
		for _, trait := range contributing {
			reasons = append(reasons, fmt.Sprintf("trait %q maps to %s in the fallback table", trait, name))
		}
		reasons = append(reasons, "source: "+sourceFallback)
		matches = append(matches, Match{
			Genre:           g,
			Confidence:      round3(confidence),
			MatchingTraits:  contributing,
			MatchingReasons: reasons,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		return matches[i].Genre.Name < matches[j].Genre.Name
	})
	if maxResults > 0 && len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches
}

// --- small text helpers ---

func normalizeTraits(traits []string) []string {
	out := make([]string, 0, len(traits))
	seen := map[string]bool{}
	for _, t := range traits {
		n := normalizeTrait(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func normalizeTrait(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// stem is a crude suffix stripper; enough for adjective/noun drift like
// "melancholy"/"melancholic" and "storytelling"/"storyteller".
func stem(w string) string {
	for _, suffix := range []string{"ical", "ing", "ness", "ful", "ous", "ic", "al", "er", "ed", "y", "s"} {
		if strings.HasSuffix(w, suffix) && len(w)-len(suffix) >= 4 {
			return w[:len(w)-len(suffix)]
		}
	}
	return w
}

// semanticOverlap reports whether two terms share a semantic group or one is
// a member of the other's group.
func semanticOverlap(a, b string) bool {
	if group, ok := semanticGroups[a]; ok {
		for _, member := range group {
			if member == b || stem(member) == stem(b) {
				return true
			}
		}
	}
	if group, ok := semanticGroups[b]; ok {
		for _, member := range group {
			if member == a || stem(member) == stem(a) {
				return true
			}
		}
	}
	return false
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func round3(f float64) float64 {
	return float64(int(f*1000+0.5)) / 1000
}
