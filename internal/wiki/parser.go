package wiki

import (
	"bytes"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// The parsers in this file are strictly pure: bytes in, typed records out.
// Malformed markup never aborts a parse; unextractable sections are skipped
// and counted so callers can surface a warning when a whole page yields
// nothing.

// ParseStats counts what a parse pass saw.
type ParseStats struct {
	Sections int `json:"sections"`
	Skipped  int `json:"skipped"`
}

// section is a heading-anchored slice of the document.
type section struct {
	title string
	nodes []*html.Node
}

// --- Genre parsing ---

// ParseGenres extracts Genre records from a wiki page. A section yields a
// genre when it has an identifiable name and at least one of: description
// prose, enumerated characteristics, or listed subgenres.
func ParseGenres(data []byte, sourceURL string, fetchedAt time.Time) ([]Genre, ParseStats) {
	var stats ParseStats
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		// html.Parse recovers from almost anything; treat a hard failure as
		// an empty page.
		return nil, stats
	}

	var genres []Genre
	for _, sec := range headingSections(doc) {
		stats.Sections++
		name := cleanGenreName(sec.title)
		if name == "" {
			stats.Skipped++
			continue
		}

		desc := firstParagraph(sec.nodes)
		items := listItems(sec.nodes)
		subs, chars, instruments, moods := classifyGenreItems(items)

		if desc == "" && len(chars) == 0 && len(subs) == 0 {
			stats.Skipped++
			continue
		}

		g := Genre{
			Name:               name,
			Description:        desc,
			Subgenres:          subs,
			Characteristics:    chars,
			TypicalInstruments: instruments,
			MoodAssociations:   moods,
			SourceURL:          sourceURL,
			FetchedAt:          fetchedAt,
			ConfidenceScore:    genreConfidence(desc, chars, subs),
		}
		genres = append(genres, g)
	}
	return genres, stats
}

func cleanGenreName(title string) string {
	title = strings.TrimSpace(title)
	// Strip wiki boilerplate headings.
	lower := strings.ToLower(title)
	for _, skip := range []string{"contents", "references", "see also", "external links", "navigation", "overview", "introduction"} {
		if lower == skip {
			return ""
		}
	}
	if len(title) > 60 {
		return ""
	}
	return title
}

func genreConfidence(desc string, chars, subs []string) float64 {
	score := 0.4
	if desc != "" {
		score += 0.2
	}
	if len(chars) > 0 {
		score += 0.2
	}
	if len(subs) > 0 {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}
	return score
}

// classifyGenreItems routes bullet items under a genre heading into the
// subgenre / characteristic / instrument / mood buckets by lead-in label,
// falling back to characteristics.
func classifyGenreItems(items []string) (subs, chars, instruments, moods []string) {
	for _, item := range items {
		label, rest := splitLabel(item)
		switch {
		case strings.Contains(label, "subgenre"):
			subs = append(subs, splitInline(rest)...)
		case strings.Contains(label, "instrument"):
			instruments = append(instruments, splitInline(rest)...)
		case strings.Contains(label, "mood") || strings.Contains(label, "feel") || strings.Contains(label, "emotion"):
			moods = append(moods, splitInline(rest)...)
		case label != "":
			chars = append(chars, rest)
		default:
			chars = append(chars, item)
		}
	}
	return
}

// splitLabel splits "Label: value" bullets; the label comes back lowercased.
func splitLabel(item string) (label, rest string) {
	for _, sep := range []string{":", " — ", " – ", " - "} {
		if idx := strings.Index(item, sep); idx > 0 && idx < 40 {
			return strings.ToLower(strings.TrimSpace(item[:idx])), strings.TrimSpace(item[idx+len(sep):])
		}
	}
	return "", item
}

func splitInline(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// --- MetaTag parsing ---

var (
	bracketTagRe = regexp.MustCompile(`^\[([^\[\]]{1,40})\]\s*[:—–-]?\s*(.*)$`)
	dashTagRe    = regexp.MustCompile(`^([A-Za-z][\w\s/&'-]{0,40}?)\s+[—–-]{1,2}\s+(.+)$`)
)

// metaTagCategories maps category names to the cue words that vote for them.
// The category with the most matches wins; ties break in declaration order.
var metaTagCategories = []struct {
	name string
	re   *regexp.Regexp
}{
	{"structural", regexp.MustCompile(`(?i)\b(intro|outro|verse|chorus|bridge|hook|break|drop|section|structure|interlude|pre-chorus)\b`)},
	{"emotional", regexp.MustCompile(`(?i)\b(sad|happy|melanchol|angry|euphoric|mood|emotion|dark|upbeat|somber|joy)\b`)},
	{"vocal", regexp.MustCompile(`(?i)\b(vocal|voice|sing|rap|spoken|harmony|choir|falsetto|whisper|scream)\b`)},
	{"instrumental", regexp.MustCompile(`(?i)\b(guitar|piano|drum|bass|synth|strings|instrumental|orchestra|brass|horn)\b`)},
	{"effect", regexp.MustCompile(`(?i)\b(reverb|echo|distortion|filter|fade|effect|lo-fi|lofi|glitch|chop)\b`)},
}

// ParseMetaTags extracts MetaTag records. Accepted shapes: bulleted
// "[tag] gloss" entries and "tag — description" lines.
func ParseMetaTags(data []byte, sourceURL string, fetchedAt time.Time) ([]MetaTag, ParseStats) {
	var stats ParseStats
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, stats
	}

	var tags []MetaTag
	seen := make(map[string]bool)
	for _, sec := range headingSections(doc) {
		stats.Sections++
		items := listItems(sec.nodes)
		if len(items) == 0 {
			// Fall back to prose lines that look like tag definitions.
			items = proseLines(sec.nodes)
		}
		matched := 0
		for _, item := range items {
			tag, desc, ok := matchTagLine(item)
			if !ok {
				continue
			}
			key := strings.ToLower(tag)
			if seen[key] {
				continue
			}
			seen[key] = true
			matched++
			tags = append(tags, MetaTag{
				Tag:         tag,
				Category:    classifyTag(tag + " " + desc),
				Description: desc,
				SourceURL:   sourceURL,
				FetchedAt:   fetchedAt,
			})
		}
		if matched == 0 {
			stats.Skipped++
		}
	}
	return tags, stats
}

func matchTagLine(line string) (tag, desc string, ok bool) {
	line = strings.TrimSpace(line)
	if m := bracketTagRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	if m := dashTagRe.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

func classifyTag(text string) string {
	best := "other"
	bestCount := 0
	for _, cat := range metaTagCategories {
		n := len(cat.re.FindAllString(text, -1))
		if n > bestCount {
			best = cat.name
			bestCount = n
		}
	}
	return best
}

// --- Technique parsing ---

// techniqueTypes is the regex-group classifier for technique records. The
// group with the most matches wins; ties break in declaration order.
var techniqueTypes = []struct {
	name string
	re   *regexp.Regexp
}{
	{"prompt_structure", regexp.MustCompile(`(?i)\b(prompt|tag|bracket|format|structure|order|syntax|keyword)\b`)},
	{"vocal_style", regexp.MustCompile(`(?i)\b(vocal|voice|sing|harmony|rap|spoken|falsetto)\b`)},
	{"production", regexp.MustCompile(`(?i)\b(mix|master|produc|eq|compress|reverb|arrangement|tempo|bpm)\b`)},
	{"lyrics", regexp.MustCompile(`(?i)\b(lyric|verse|rhyme|wordplay|chorus line|storytell)\b`)},
}

// ParseTechniques extracts Technique records. A section must carry a name
// plus at least one example or applicable-scenario clause.
func ParseTechniques(data []byte, sourceURL string, fetchedAt time.Time) ([]Technique, ParseStats) {
	var stats ParseStats
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, stats
	}

	var techniques []Technique
	for _, sec := range headingSections(doc) {
		stats.Sections++
		name := strings.TrimSpace(sec.title)
		if name == "" || cleanGenreName(name) == "" {
			stats.Skipped++
			continue
		}

		desc := firstParagraph(sec.nodes)
		var examples, scenarios []string
		for _, item := range listItems(sec.nodes) {
			label, rest := splitLabel(item)
			switch {
			case strings.Contains(label, "example") || strings.HasPrefix(item, "\"") || strings.HasPrefix(item, "["):
				examples = append(examples, rest)
			case strings.Contains(label, "when") || strings.Contains(label, "use") || strings.Contains(label, "scenario"):
				scenarios = append(scenarios, rest)
			default:
				// Quoted or bracketed bullets read as examples, the rest as
				// applicability notes.
				if strings.ContainsAny(item, "\"[") {
					examples = append(examples, item)
				} else {
					scenarios = append(scenarios, item)
				}
			}
		}

		if len(examples) == 0 && len(scenarios) == 0 {
			stats.Skipped++
			continue
		}

		techniques = append(techniques, Technique{
			Name:                name,
			Description:         desc,
			TechniqueType:       classifyTechnique(name + " " + desc),
			Examples:            examples,
			ApplicableScenarios: scenarios,
			SourceURL:           sourceURL,
			FetchedAt:           fetchedAt,
		})
	}
	return techniques, stats
}

func classifyTechnique(text string) string {
	best := "other"
	bestCount := 0
	for _, tt := range techniqueTypes {
		n := len(tt.re.FindAllString(text, -1))
		if n > bestCount {
			best = tt.name
			bestCount = n
		}
	}
	return best
}

// --- DOM helpers ---

// headingSections slices the document into heading-anchored sections. Nodes
// before the first heading belong to no section.
func headingSections(doc *html.Node) []section {
	body := findNode(doc, "body")
	if body == nil {
		body = doc
	}

	var sections []section
	var current *section
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && isHeading(c.Data) {
				if current != nil {
					sections = append(sections, *current)
				}
				current = &section{title: nodeText(c)}
				continue
			}
			if current != nil && c.Type == html.ElementNode {
				current.nodes = append(current.nodes, c)
				continue
			}
			// Containers (div, main, article) before any heading: descend.
			if c.Type == html.ElementNode {
				walk(c)
			}
		}
	}
	walk(body)
	if current != nil {
		sections = append(sections, *current)
	}

	// Strong-styled lead tokens inside definition lists also identify
	// entries on pages without headings.
	if len(sections) == 0 {
		sections = strongLeadSections(body)
	}
	return sections
}

// strongLeadSections treats <dt>/<strong>-led blocks as pseudo-sections for
// pages that define entries without headings.
func strongLeadSections(root *html.Node) []section {
	var sections []section
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "dt" || c.Data == "strong" || c.Data == "b") {
				title := nodeText(c)
				if title != "" && c.Parent != nil {
					sections = append(sections, section{title: title, nodes: []*html.Node{c.Parent}})
				}
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return sections
}

func isHeading(tag string) bool {
	switch tag {
	case "h1", "h2", "h3", "h4":
		return true
	}
	return false
}

func findNode(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// nodeText flattens the text content of a node.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// firstParagraph returns the first non-empty <p> text among the nodes.
func firstParagraph(nodes []*html.Node) string {
	for _, n := range nodes {
		if p := findNode(n, "p"); p != nil {
			if text := nodeText(p); text != "" {
				return text
			}
		}
	}
	return ""
}

// listItems collects <li> and <dd> texts, and table rows joined by rowText,
// from the nodes in document order.
func listItems(nodes []*html.Node) []string {
	var items []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "li", "dd":
				if text := nodeText(n); text != "" {
					items = append(items, text)
				}
				return
			case "tr":
				if text := rowText(n); text != "" {
					items = append(items, text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return items
}

// rowText joins a table row's cells with an em-dash so rows parse like
// "name — description" lines. Header rows are skipped.
func rowText(tr *html.Node) string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			switch c.Data {
			case "th":
				return ""
			case "td":
				if text := nodeText(c); text != "" {
					cells = append(cells, text)
				}
			}
		}
	}
	if len(cells) < 2 {
		return ""
	}
	return cells[0] + " — " + strings.Join(cells[1:], " ")
}

// proseLines splits paragraph text into lines for pages that define tags in
// running prose instead of lists.
func proseLines(nodes []*html.Node) []string {
	var lines []string
	for _, n := range nodes {
		var walk func(n *html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.ElementNode && n.Data == "p" {
				for _, line := range strings.Split(nodeText(n), ". ") {
					if line = strings.TrimSpace(line); line != "" {
						lines = append(lines, line)
					}
				}
				return
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(n)
	}
	return lines
}
