// Package analysis turns free-form narrative prose into ranked canonical
// character profiles plus whole-text signals (themes, emotional arc). The
// extractor is cue-pattern based and deterministic for a fixed input.
package analysis

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/versebound/musemcp/internal/profile"
)

// Arc labels the emotional trajectory across the three thirds of the text.
type Arc struct {
	Beginning string `json:"beginning"`
	Middle    string `json:"middle"`
	End       string `json:"end"`
}

// Result is the extractor's output.
type Result struct {
	Characters      []*profile.Character `json:"characters"`
	NarrativeThemes []string             `json:"narrative_themes"`
	EmotionalArc    Arc                  `json:"emotional_arc"`
	Warnings        []string             `json:"warnings,omitempty"`
}

// Scoring weights. Three populated layers plus three distinct references
// land at sigmoid(2.2) ≈ 0.90, comfortably above the 0.7 floor the scorer
// guarantees for fully-evidenced characters.
const (
	wObservable = 1.0
	wBackground = 1.0
	wPsychology = 1.2
	wReferences = 0.4
	scoreBias   = 2.2

	// Characters with no psychology evidence cap at 0.5.
	noPsychologyCap = 0.5

	minConfidence = 0.25
	minReferences = 2
)

// Analyze extracts ranked character profiles from a narrative. It never
// synthesizes characters: when nothing survives filtering the result carries
// empty sequences and a warning.
func Analyze(text string) *Result {
	res := &Result{
		Characters:      []*profile.Character{},
		NarrativeThemes: []string{},
		EmotionalArc:    Arc{Beginning: neutralLabel, Middle: neutralLabel, End: neutralLabel},
	}
	if strings.TrimSpace(text) == "" {
		return res
	}

	passages := Segment(text)
	clusters := identifyClusters(passages)

	for _, cl := range clusters {
		accumulate(cl, passages)
	}

	maxRefs := 0
	for _, cl := range clusters {
		if n := len(cl.mentions); n > maxRefs {
			maxRefs = n
		}
	}

	var kept []*cluster
	for _, cl := range clusters {
		cl.score(len(text), maxRefs)
		if cl.confidence < minConfidence && len(cl.mentions) < minReferences {
			continue
		}
		kept = append(kept, cl)
	}

	// Rank by importance, stable tie-break by first appearance.
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].importance != kept[j].importance {
			return kept[i].importance > kept[j].importance
		}
		return kept[i].firstPos < kept[j].firstPos
	})

	for _, cl := range kept {
		res.Characters = append(res.Characters, cl.toProfile())
	}
	if len(res.Characters) == 0 {
		res.Warnings = append(res.Warnings, "no characters detected; the text may be too short or purely descriptive")
	}

	res.NarrativeThemes = extractThemes(text)
	res.EmotionalArc = emotionalArc(text)
	return res
}

// --- candidate identification and clustering ---

type mention struct {
	passage int
	start   int // byte offsets into the original text
	end     int
}

type cluster struct {
	name     string
	aliases  []string
	surfaces map[string]bool // lowercased alias set, includes name
	mentions []mention
	firstPos int

	observable struct {
		physical   []string
		mannerisms []string
		speech     []string
		traits     []string
	}
	background struct {
		backstory  []string
		relations  []string
		formative  []string
		social     []string
	}
	psychology struct {
		motivations []string
		fears       []string
		desires     []string
		conflicts   []string
		drivers     []string
	}
	refs []profile.TextReference

	confidence float64
	importance float64
}

// identifyClusters finds candidate names and groups surface variants into one
// entity per cluster.
func identifyClusters(passages []Passage) []*cluster {
	type rawMention struct {
		surface string
		mention mention
	}
	var raw []rawMention
	surfaceCount := map[string]int{}
	anchored := map[string]bool{} // surfaces legitimized by an honorific

	for _, p := range passages {
		for _, m := range honorificRe.FindAllStringSubmatchIndex(p.Text, -1) {
			full := p.Text[m[0]:m[1]]
			raw = append(raw, rawMention{
				surface: full,
				mention: mention{passage: p.Index, start: p.Start + m[0], end: p.Start + m[1]},
			})
			surfaceCount[full]++
			anchored[full] = true
		}
		for _, m := range properNameRe.FindAllStringSubmatchIndex(p.Text, -1) {
			surface := p.Text[m[2]:m[3]]
			tokens := strings.Fields(surface)
			start := m[2]
			// Strip leading stopword tokens ("When Emma" keeps "Emma") and
			// trailing ones ("Elena When" from run-ons).
			for len(tokens) > 0 && nameStopwords[tokens[0]] {
				start += len(tokens[0]) + 1
				tokens = tokens[1:]
			}
			for len(tokens) > 1 && nameStopwords[tokens[len(tokens)-1]] {
				tokens = tokens[:len(tokens)-1]
			}
			if len(tokens) == 0 {
				continue
			}
			// Place names ("Dalton Street") are not characters.
			if placeSuffixes[tokens[len(tokens)-1]] {
				continue
			}
			surface = strings.Join(tokens, " ")
			raw = append(raw, rawMention{
				surface: surface,
				mention: mention{passage: p.Index, start: p.Start + start, end: p.Start + start + len(surface)},
			})
			surfaceCount[surface]++
		}
		for _, m := range descriptorNounRe.FindAllStringSubmatchIndex(p.Text, -1) {
			surface := p.Text[m[0]:m[1]]
			raw = append(raw, rawMention{
				surface: surface,
				mention: mention{passage: p.Index, start: p.Start + m[0], end: p.Start + m[1]},
			})
			surfaceCount[surface]++
		}
	}

	// Single-token names need a second mention or an honorific anchor;
	// otherwise sentence-initial words flood the candidate set.
	valid := func(surface string) bool {
		if strings.HasPrefix(strings.ToLower(surface), "the ") {
			return surfaceCount[surface] >= 2
		}
		if len(strings.Fields(surface)) == 1 {
			return surfaceCount[surface] >= 2 || anchored[surface]
		}
		return true
	}

	// Longest surfaces first so "Elena Rodriguez" becomes the canonical name
	// and "Elena" its alias.
	surfaces := make([]string, 0, len(surfaceCount))
	for s := range surfaceCount {
		if valid(s) {
			surfaces = append(surfaces, s)
		}
	}
	sort.SliceStable(surfaces, func(i, j int) bool {
		ti, tj := len(strings.Fields(surfaces[i])), len(strings.Fields(surfaces[j]))
		if ti != tj {
			return ti > tj
		}
		return surfaces[i] < surfaces[j]
	})

	var clusters []*cluster
	surfaceOwner := map[string]*cluster{}
	for _, s := range surfaces {
		if owner := findOwner(clusters, s); owner != nil {
			owner.aliases = append(owner.aliases, s)
			owner.surfaces[strings.ToLower(s)] = true
			surfaceOwner[s] = owner
			continue
		}
		cl := &cluster{
			name:     strings.TrimPrefix(s, "the "),
			surfaces: map[string]bool{strings.ToLower(s): true},
			firstPos: math.MaxInt,
		}
		clusters = append(clusters, cl)
		surfaceOwner[s] = cl
	}

	// The honorific and proper-name passes can both hit the same span;
	// dedupe by start offset so reference counts stay honest.
	seenStart := map[int]bool{}
	for _, rm := range raw {
		owner := surfaceOwner[rm.surface]
		if owner == nil {
			continue
		}
		if seenStart[rm.mention.start] {
			continue
		}
		seenStart[rm.mention.start] = true
		owner.mentions = append(owner.mentions, rm.mention)
		if rm.mention.start < owner.firstPos {
			owner.firstPos = rm.mention.start
		}
	}

	// Descriptor clusters that share every passage with a name cluster fold
	// into it ("Old Tom" + "the lighthouse keeper").
	clusters = foldDescriptors(clusters)

	// Drop clusters that collected no mentions after validation.
	out := clusters[:0]
	for _, cl := range clusters {
		if len(cl.mentions) > 0 {
			out = append(out, cl)
		}
	}
	return out
}

// findOwner returns an existing cluster whose name contains every token of
// surface (the token-subset similarity rule).
func findOwner(clusters []*cluster, surface string) *cluster {
	sTokens := strings.Fields(strings.ToLower(strings.TrimPrefix(surface, "the ")))
	for _, cl := range clusters {
		nTokens := strings.Fields(strings.ToLower(cl.name))
		if containsAll(nTokens, sTokens) {
			return cl
		}
	}
	return nil
}

func containsAll(haystack, needles []string) bool {
	set := make(map[string]bool, len(haystack))
	for _, t := range haystack {
		set[t] = true
	}
	for _, n := range needles {
		if !set[n] {
			return false
		}
	}
	return true
}

// foldDescriptors merges a role-phrase cluster into a named cluster when the
// role phrase only ever appears in passages where that name also appears.
func foldDescriptors(clusters []*cluster) []*cluster {
	passagesOf := func(cl *cluster) map[int]bool {
		set := map[int]bool{}
		for _, m := range cl.mentions {
			set[m.passage] = true
		}
		return set
	}

	var out []*cluster
	for _, cl := range clusters {
		if !strings.Contains(cl.name, " ") || !isRolePhrase(cl.name) {
			out = append(out, cl)
			continue
		}
		rolePassages := passagesOf(cl)
		var host *cluster
		for _, other := range clusters {
			if other == cl || isRolePhrase(other.name) {
				continue
			}
			otherPassages := passagesOf(other)
			shared := true
			for p := range rolePassages {
				if !otherPassages[p] {
					shared = false
					break
				}
			}
			if shared {
				host = other
				break
			}
		}
		if host == nil {
			out = append(out, cl)
			continue
		}
		host.aliases = append(host.aliases, "the "+cl.name)
		for s := range cl.surfaces {
			host.surfaces[s] = true
		}
		host.mentions = append(host.mentions, cl.mentions...)
		if cl.firstPos < host.firstPos {
			host.firstPos = cl.firstPos
		}
	}
	return out
}

func isRolePhrase(name string) bool {
	return descriptorNounRe.MatchString("the " + strings.ToLower(name))
}

// --- three-layer accumulation ---

// accumulate scans every passage where the cluster appears and populates the
// observable, background, and psychology layers from cue matches. Sentences
// led by a pronoun attribute to the cluster only when it was the most recent
// mention in the passage; unresolved pronouns are ignored.
func accumulate(cl *cluster, passages []Passage) {
	mentioned := map[int]bool{}
	for _, m := range cl.mentions {
		mentioned[m.passage] = true
	}

	for _, p := range passages {
		if !mentioned[p.Index] {
			continue
		}
		cl.refs = append(cl.refs, profile.TextReference{
			Passage: p.Index,
			Start:   p.Start,
			End:     p.End,
		})

		attributed := false
		for _, sentence := range sentences(p.Text) {
			direct := cl.mentionsSentence(sentence)
			switch {
			case direct:
				attributed = true
			case mentionsOtherName(sentence, cl):
				// Another character takes over; later pronouns are theirs.
				attributed = false
				continue
			case attributed && pronounRe.MatchString(sentence):
				// Pronoun continuation of the previous attributed sentence.
			default:
				continue
			}
			cl.harvest(sentence)
		}
	}
}

func (cl *cluster) mentionsSentence(sentence string) bool {
	lower := strings.ToLower(sentence)
	for s := range cl.surfaces {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// mentionsOtherName detects another capitalized name, which breaks pronoun
// attribution.
func mentionsOtherName(sentence string, cl *cluster) bool {
	for _, m := range properNameRe.FindAllString(sentence, -1) {
		tokens := strings.Fields(m)
		if nameStopwords[tokens[0]] {
			continue
		}
		if !cl.surfaces[strings.ToLower(m)] && !containsAll(strings.Fields(strings.ToLower(cl.name)), strings.Fields(strings.ToLower(m))) {
			return true
		}
	}
	return false
}

// harvest applies every cue table to one attributed sentence.
func (cl *cluster) harvest(sentence string) {
	grab := func(re *regexp.Regexp, dst *[]string) {
		for _, m := range re.FindAllStringSubmatch(sentence, -1) {
			capture := strings.TrimSpace(m[len(m)-1])
			if capture != "" {
				*dst = appendDistinct(*dst, capture)
			}
		}
	}

	grab(fearRe, &cl.psychology.fears)
	grab(motivationRe, &cl.psychology.motivations)
	grab(desireRe, &cl.psychology.desires)
	grab(conflictRe, &cl.psychology.conflicts)
	grab(driverRe, &cl.psychology.drivers)

	grab(formativeRe, &cl.background.formative)
	grab(backstoryRe, &cl.background.backstory)
	grab(relationRe, &cl.background.relations)
	grab(originRe, &cl.background.social)

	grab(mannerismRe, &cl.observable.mannerisms)
	grab(speechRe, &cl.observable.speech)
	grab(physicalRe, &cl.observable.physical)

	for _, m := range traitAdjRe.FindAllStringSubmatch(sentence, -1) {
		adj := strings.TrimSpace(m[1])
		head := strings.Fields(adj)[0]
		if traitStopAdjectives[strings.ToLower(head)] {
			continue
		}
		cl.observable.traits = appendDistinct(cl.observable.traits, adj)
	}
}

func appendDistinct(dst []string, s string) []string {
	for _, existing := range dst {
		if strings.EqualFold(existing, s) {
			return dst
		}
	}
	return append(dst, s)
}

// --- scoring ---

func (cl *cluster) layerCounts() (observable, background, psychology int) {
	o := cl.observable
	b := cl.background
	p := cl.psychology
	observable = len(o.physical) + len(o.mannerisms) + len(o.speech) + len(o.traits)
	background = len(b.backstory) + len(b.relations) + len(b.formative) + len(b.social)
	psychology = len(p.motivations) + len(p.fears) + len(p.desires) + len(p.conflicts) + len(p.drivers)
	return
}

func (cl *cluster) score(textLen, maxRefs int) {
	obs, bg, psych := cl.layerCounts()

	layer := func(n int) float64 {
		if n > 0 {
			return 1
		}
		return 0
	}
	refs := float64(len(cl.mentions))
	if refs > 6 {
		refs = 6
	}

	x := wObservable*layer(obs) + wBackground*layer(bg) + wPsychology*layer(psych) + wReferences*refs - scoreBias
	cl.confidence = sigmoid(x)
	if psych == 0 && cl.confidence > noPsychologyCap {
		cl.confidence = noPsychologyCap
	}

	if maxRefs > 0 {
		cl.importance = 0.8 * float64(len(cl.mentions)) / float64(maxRefs)
	}
	if cl.appearsInFirstAndLastThird(textLen) {
		cl.importance += 0.2
	}
	if cl.importance > 1 {
		cl.importance = 1
	}
}

func (cl *cluster) appearsInFirstAndLastThird(textLen int) bool {
	if textLen == 0 {
		return false
	}
	third := textLen / 3
	var first, last bool
	for _, m := range cl.mentions {
		if m.start < third {
			first = true
		}
		if m.start >= 2*third {
			last = true
		}
	}
	return first && last
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// toProfile freezes the cluster into a canonical character.
func (cl *cluster) toProfile() *profile.Character {
	aliases := make([]string, 0, len(cl.aliases))
	for _, a := range cl.aliases {
		if !strings.EqualFold(a, cl.name) {
			aliases = appendDistinct(aliases, a)
		}
	}

	firstPassage := 0
	if len(cl.refs) > 0 {
		firstPassage = cl.refs[0].Passage
	}

	// Sequence fields serialize as empty arrays, never null.
	return &profile.Character{
		Name:                 cl.name,
		Aliases:              aliases,
		PhysicalDescription:  strings.Join(cl.observable.physical, "; "),
		Mannerisms:           orEmpty(cl.observable.mannerisms),
		SpeechPatterns:       orEmpty(cl.observable.speech),
		BehavioralTraits:     orEmpty(cl.observable.traits),
		Backstory:            strings.Join(cl.background.backstory, "; "),
		Relationships:        orEmpty(cl.background.relations),
		FormativeExperiences: orEmpty(cl.background.formative),
		SocialConnections:    orEmpty(cl.background.social),
		Motivations:          orEmpty(cl.psychology.motivations),
		Fears:                orEmpty(cl.psychology.fears),
		Desires:              orEmpty(cl.psychology.desires),
		Conflicts:            orEmpty(cl.psychology.conflicts),
		PersonalityDrivers:   orEmpty(cl.psychology.drivers),
		ConfidenceScore:      round3(cl.confidence),
		ImportanceScore:      round3(cl.importance),
		TextReferences:       cl.refs,
		FirstAppearance:      fmt.Sprintf("passage %d", firstPassage+1),
	}
}

func orEmpty(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// --- whole-text signals ---

// extractThemes returns deduplicated theme labels with at least two cue hits,
// in declaration order.
func extractThemes(text string) []string {
	themes := []string{}
	for _, tc := range themeCues {
		if len(tc.re.FindAllString(text, -1)) >= 2 {
			themes = append(themes, tc.label)
		}
	}
	return themes
}

// emotionalArc labels each third of the text by majority of emotion-cue hits.
func emotionalArc(text string) Arc {
	third := len(text) / 3
	if third == 0 {
		return Arc{Beginning: neutralLabel, Middle: neutralLabel, End: neutralLabel}
	}
	return Arc{
		Beginning: dominantEmotion(text[:third]),
		Middle:    dominantEmotion(text[third : 2*third]),
		End:       dominantEmotion(text[2*third:]),
	}
}

func dominantEmotion(segment string) string {
	best := neutralLabel
	bestCount := 0
	for _, entry := range arcVocabulary {
		n := len(entry.re.FindAllString(segment, -1))
		if n > bestCount {
			best = entry.label
			bestCount = n
		}
	}
	return best
}
