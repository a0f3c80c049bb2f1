package analysis

import "strings"

// Passage is one segment of the input narrative with its byte offsets, so
// text references always point back into the original text.
type Passage struct {
	Index int    `json:"index"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"-"`
}

// Segment splits a narrative into passages: paragraphs first, then very long
// paragraphs into sentence runs. Offsets are byte positions in the input.
// The whole passage list is returned at once and the extractor keeps it in
// memory for the full analysis; passages are not streamed.
func Segment(text string) []Passage {
	var passages []Passage
	offset := 0
	idx := 0
	for _, para := range strings.Split(text, "\n\n") {
		start := offset
		offset += len(para) + 2

		trimmed := strings.TrimSpace(para)
		if trimmed == "" {
			continue
		}
		lead := strings.Index(para, trimmed)

		if len(trimmed) <= maxPassageBytes {
			passages = append(passages, Passage{
				Index: idx,
				Start: start + lead,
				End:   start + lead + len(trimmed),
				Text:  trimmed,
			})
			idx++
			continue
		}

		// Oversized paragraph: break on sentence boundaries.
		for _, span := range sentenceRuns(trimmed) {
			passages = append(passages, Passage{
				Index: idx,
				Start: start + lead + span.start,
				End:   start + lead + span.end,
				Text:  trimmed[span.start:span.end],
			})
			idx++
		}
	}
	return passages
}

const maxPassageBytes = 2000

type span struct{ start, end int }

// sentenceRuns groups consecutive sentences into runs under maxPassageBytes.
func sentenceRuns(text string) []span {
	var runs []span
	runStart := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		end := i + 1
		if end-runStart >= maxPassageBytes {
			runs = append(runs, span{runStart, end})
			runStart = end
			for runStart < len(text) && text[runStart] == ' ' {
				runStart++
			}
		}
	}
	if runStart < len(text) {
		runs = append(runs, span{runStart, len(text)})
	}
	return runs
}

// sentences splits a passage into sentences for cue matching.
func sentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '.' || c == '!' || c == '?' {
			// Keep abbreviations like "Dr." glued to their sentence.
			if c == '.' && isHonorificTail(text[start:i+1]) {
				continue
			}
			s := strings.TrimSpace(text[start : i+1])
			if s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isHonorificTail(s string) bool {
	for _, h := range []string{"Dr.", "Mr.", "Mrs.", "Ms.", "St.", "Jr.", "Sr."} {
		if strings.HasSuffix(s, h) {
			return true
		}
	}
	return false
}
