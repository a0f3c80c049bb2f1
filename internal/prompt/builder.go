// Package prompt turns personas and their source characters into scored
// prompt-string variants for the external music generator. The system only
// emits prompt text; it never calls the generator.
package prompt

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/versebound/musemcp/internal/genre"
	"github.com/versebound/musemcp/internal/persona"
	"github.com/versebound/musemcp/internal/profile"
	"github.com/versebound/musemcp/internal/wiki"
)

// Command is one prompt variant with its effectiveness score and a
// derivation trace.
type Command struct {
	Text               string   `json:"text"`
	Format             string   `json:"format"` // simple | structured | tagged
	MetaTagsUsed       []string `json:"meta_tags_used"`
	EffectivenessScore float64  `json:"effectiveness_score"`
	Rationale          string   `json:"rationale"`
}

// Effectiveness weights: coverage of mood+genre+vocal+theme, specificity of
// the wording, and validity of any meta tags against the persona's genre.
const (
	wCoverage    = 0.5
	wSpecificity = 0.3
	wTagValidity = 0.2

	minScore    = 0.5
	minVariants = 3
)

// genericWords is the stoplist that reduces specificity: prompts made of
// these words say nothing the generator can use.
var genericWords = map[string]bool{
	"nice": true, "good": true, "great": true, "beautiful": true,
	"amazing": true, "cool": true, "interesting": true, "song": true,
	"music": true, "track": true, "sound": true, "some": true, "very": true,
	"really": true, "thing": true, "stuff": true,
}

// Builder produces prompt command variants from a persona and its source
// character, using the meta tags of the request's knowledge snapshot.
type Builder struct {
	metaTags []wiki.MetaTag
}

// NewBuilder creates a builder over the snapshot's meta tags.
func NewBuilder(metaTags []wiki.MetaTag) *Builder {
	return &Builder{metaTags: metaTags}
}

// Build produces the variant set for one persona. Variants under the score
// floor are discarded unless that leaves fewer than three, in which case the
// top three survive regardless.
func (b *Builder) Build(p persona.ArtistPersona, c *profile.Character, matches []genre.Match) []Command {
	var commands []Command
	commands = append(commands, b.simple(p, c, matches))
	commands = append(commands, b.structured(p, c, matches))
	if tagged, ok := b.tagged(p, c, matches); ok {
		commands = append(commands, tagged)
	}

	sort.SliceStable(commands, func(i, j int) bool {
		return commands[i].EffectivenessScore > commands[j].EffectivenessScore
	})

	kept := commands[:0]
	for _, cmd := range commands {
		if cmd.EffectivenessScore >= minScore {
			kept = append(kept, cmd)
		}
	}
	if len(kept) < minVariants {
		limit := minVariants
		if limit > len(commands) {
			limit = len(commands)
		}
		kept = commands[:limit]
	}
	return kept
}

// simple is a single natural-language sentence: genre, mood, one key theme,
// vocal style.
func (b *Builder) simple(p persona.ArtistPersona, c *profile.Character, matches []genre.Match) Command {
	mood := primaryMood(matches)
	theme := primaryTheme(p)
	vocals := strings.Join(firstN(p.VocalCharacteristics, 2), ", ")

	var sb strings.Builder
	if mood != "" {
		sb.WriteString(mood)
		sb.WriteString(" ")
	}
	sb.WriteString(strings.ToLower(orDefault(p.Genre, "singer-songwriter")))
	if inst := primaryInstrument(matches); inst != "" {
		sb.WriteString(" with ")
		sb.WriteString(inst)
	}
	if vocals != "" {
		sb.WriteString(", ")
		sb.WriteString(vocals)
		sb.WriteString(" vocals")
	}
	if theme != "" {
		sb.WriteString(", about ")
		sb.WriteString(theme)
	}
	text := sb.String()

	return b.scored(Command{
		Text:      text,
		Format:    "simple",
		Rationale: rationale(p, c, matches, "a single descriptive sentence"),
	}, p, matches, nil)
}

// structured is a labeled-fields block.
func (b *Builder) structured(p persona.ArtistPersona, c *profile.Character, matches []genre.Match) Command {
	mood := primaryMood(matches)
	var fields []string
	fields = append(fields, "style: "+orDefault(p.Genre, "unclassified"))
	if mood != "" {
		fields = append(fields, "mood: "+mood)
	}
	if inst := instrumentList(matches); inst != "" {
		fields = append(fields, "instruments: "+inst)
	}
	if len(p.VocalCharacteristics) > 0 {
		fields = append(fields, "vocals: "+strings.Join(firstN(p.VocalCharacteristics, 3), ", "))
	}
	fields = append(fields, "tempo: "+tempoFor(mood))
	fields = append(fields, "structure: verse-chorus with a contrasting bridge")

	return b.scored(Command{
		Text:      strings.Join(fields, "\n"),
		Format:    "structured",
		Rationale: rationale(p, c, matches, "a labeled-fields block"),
	}, p, matches, nil)
}

// tagged uses bracketed meta-tag tokens, constrained to tags compatible with
// the persona's primary genre. It is skipped entirely when no usable tags
// exist (e.g. wiki disabled with fallbacks off).
func (b *Builder) tagged(p persona.ArtistPersona, c *profile.Character, matches []genre.Match) (Command, bool) {
	compatible := b.compatibleTags(p.Genre)
	if len(compatible) == 0 {
		return Command{}, false
	}

	var tags []string
	pick := func(category string, limit int) {
		n := 0
		for _, t := range compatible {
			if t.Category == category && n < limit {
				tags = append(tags, t.Tag)
				n++
			}
		}
	}
	pick("structural", 2)
	pick("emotional", 1)
	pick("vocal", 1)
	pick("instrumental", 1)
	if len(tags) == 0 {
		for i, t := range compatible {
			if i >= 3 {
				break
			}
			tags = append(tags, t.Tag)
		}
	}

	var sb strings.Builder
	for _, tag := range tags {
		sb.WriteString("[")
		sb.WriteString(tag)
		sb.WriteString("] ")
	}
	sb.WriteString(strings.ToLower(orDefault(p.Genre, "singer-songwriter")))
	if theme := primaryTheme(p); theme != "" {
		sb.WriteString(", ")
		sb.WriteString(theme)
	}

	return b.scored(Command{
		Text:         strings.TrimSpace(sb.String()),
		Format:       "tagged",
		MetaTagsUsed: tags,
		Rationale:    rationale(p, c, matches, "bracketed meta-tag notation"),
	}, p, matches, tags), true
}

// compatibleTags filters the snapshot's tags to those listing the persona's
// genre as compatible. Tags without any compatibility list are treated as
// universal.
func (b *Builder) compatibleTags(genreName string) []wiki.MetaTag {
	var out []wiki.MetaTag
	for _, t := range b.metaTags {
		if len(t.CompatibleGenres) == 0 {
			out = append(out, t)
			continue
		}
		for _, g := range t.CompatibleGenres {
			if strings.EqualFold(g, genreName) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// scored fills in the effectiveness score for a variant.
func (b *Builder) scored(cmd Command, p persona.ArtistPersona, matches []genre.Match, tags []string) Command {
	coverage := coverageScore(cmd.Text, p, matches)
	specificity := specificityScore(cmd.Text)
	tagValidity := b.tagValidityScore(tags, p.Genre)

	cmd.EffectivenessScore = round3(clamp01(wCoverage*coverage + wSpecificity*specificity + wTagValidity*tagValidity))
	if cmd.MetaTagsUsed == nil {
		cmd.MetaTagsUsed = []string{}
	}
	return cmd
}

// coverageScore rewards presence of mood, genre, vocal, and theme content.
func coverageScore(text string, p persona.ArtistPersona, matches []genre.Match) float64 {
	lower := strings.ToLower(text)
	var hits, total float64

	total++
	if p.Genre != "" && strings.Contains(lower, strings.ToLower(p.Genre)) {
		hits++
	}
	total++
	if mood := primaryMood(matches); mood != "" && strings.Contains(lower, strings.ToLower(mood)) {
		hits++
	}
	total++
	for _, v := range p.VocalCharacteristics {
		if strings.Contains(lower, strings.ToLower(v)) {
			hits++
			break
		}
	}
	total++
	for _, t := range p.LyricalThemes {
		if strings.Contains(lower, strings.ToLower(firstWords(t, 3))) {
			hits++
			break
		}
	}
	return hits / total
}

// specificityScore penalizes generic filler words.
func specificityScore(text string) float64 {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}
	generic := 0
	for _, w := range words {
		if genericWords[strings.Trim(w, ".,:;[]")] {
			generic++
		}
	}
	return clamp01(1 - 2*float64(generic)/float64(len(words)))
}

// tagValidityScore rewards tags whose compatibility lists include the
// persona's genre. Variants without tags score the neutral midpoint so the
// component doesn't punish untagged formats.
func (b *Builder) tagValidityScore(tags []string, genreName string) float64 {
	if len(tags) == 0 {
		return 0.5
	}
	valid := 0
	for _, tag := range tags {
		for _, t := range b.metaTags {
			if !strings.EqualFold(t.Tag, tag) {
				continue
			}
			for _, g := range t.CompatibleGenres {
				if strings.EqualFold(g, genreName) {
					valid++
				}
			}
			break
		}
	}
	return float64(valid) / float64(len(tags))
}

// rationale writes the one-paragraph derivation trace citing character
// traits and genre-match reasons.
func rationale(p persona.ArtistPersona, c *profile.Character, matches []genre.Match, formatNote string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Derived from %s as %s. ", c.Name, formatNote)

	traits := firstN(append(append([]string{}, c.PersonalityDrivers...), c.BehavioralTraits...), 3)
	if len(traits) > 0 {
		fmt.Fprintf(&sb, "Character traits used: %s. ", strings.Join(traits, "; "))
	}
	if len(c.Fears) > 0 {
		fmt.Fprintf(&sb, "The emotional center draws on the fear of %s. ", c.Fears[0])
	}
	if len(matches) > 0 {
		reasons := firstN(matches[0].MatchingReasons, 2)
		fmt.Fprintf(&sb, "Genre %s was selected because: %s.", matches[0].Genre.Name, strings.Join(reasons, "; "))
	}
	return strings.TrimSpace(sb.String())
}

// --- small helpers ---

func primaryMood(matches []genre.Match) string {
	if len(matches) > 0 && len(matches[0].Genre.MoodAssociations) > 0 {
		return matches[0].Genre.MoodAssociations[0]
	}
	return ""
}

func primaryInstrument(matches []genre.Match) string {
	if len(matches) > 0 && len(matches[0].Genre.TypicalInstruments) > 0 {
		return matches[0].Genre.TypicalInstruments[0]
	}
	return ""
}

func instrumentList(matches []genre.Match) string {
	if len(matches) == 0 {
		return ""
	}
	return strings.Join(firstN(matches[0].Genre.TypicalInstruments, 3), ", ")
}

func primaryTheme(p persona.ArtistPersona) string {
	if len(p.LyricalThemes) > 0 {
		return p.LyricalThemes[0]
	}
	return ""
}

func tempoFor(mood string) string {
	switch mood {
	case "energetic", "euphoric", "defiant", "upbeat":
		return "driving"
	case "melancholic", "contemplative", "serene", "nostalgic", "world-weary":
		return "slow to mid"
	default:
		return "mid-tempo"
	}
}

func firstN(ss []string, n int) []string {
	if len(ss) <= n {
		return ss
	}
	return ss[:n]
}

func firstWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
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
	return math.Round(f*1000) / 1000
}
