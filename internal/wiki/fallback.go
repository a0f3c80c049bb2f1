package wiki

// Hardcoded defaults served when the parsed cache is empty and
// fallback_to_hardcoded is enabled. They sit behind the same typed interface
// as wiki data; results derived from them are tagged with their source so
// callers can tell which path fired.

// FallbackSourceURL marks records that came from the built-in tables rather
// than a fetched page.
const FallbackSourceURL = "builtin:fallback"

// FallbackGenres returns the built-in genre table.
func FallbackGenres() []Genre {
	return []Genre{
		{
			Name:               "Folk",
			Description:        "Acoustic storytelling music rooted in oral tradition.",
			Subgenres:          []string{"Indie Folk", "Folk Rock", "Americana"},
			Characteristics:    []string{"acoustic", "storytelling", "intimate", "organic", "narrative"},
			TypicalInstruments: []string{"acoustic guitar", "banjo", "fiddle", "harmonica"},
			MoodAssociations:   []string{"melancholic", "nostalgic", "warm", "reflective"},
			SourceURL:          FallbackSourceURL,
			ConfidenceScore:    0.9,
		},
		{
			Name:               "Jazz",
			Description:        "Improvisational music built on swing, blue notes, and complex harmony.",
			Subgenres:          []string{"Contemporary Jazz", "Jazz Fusion", "Bebop", "Cool Jazz"},
			Characteristics:    []string{"improvisational", "sophisticated", "swing", "complex harmony", "expressive"},
			TypicalInstruments: []string{"piano", "saxophone", "trumpet", "double bass", "drums"},
			MoodAssociations:   []string{"smooth", "contemplative", "late-night", "playful"},
			SourceURL:          FallbackSourceURL,
			ConfidenceScore:    0.9,
		},
		{
			Name:               "Hip Hop",
			Description:        "Rhythm-driven music centered on rapped vocals and sampled or programmed beats.",
			Subgenres:          []string{"Boom Bap", "Trap", "Conscious Hip Hop", "Lo-fi Hip Hop"},
			Characteristics:    []string{"rhythmic", "urban", "confident", "wordplay", "beat-driven"},
			TypicalInstruments: []string{"drum machine", "sampler", "synth bass", "turntables"},
			MoodAssociations:   []string{"energetic", "defiant", "gritty", "ambitious"},
			SourceURL:          FallbackSourceURL,
			ConfidenceScore:    0.9,
		},
		{
			Name:               "Electronic",
			Description:        "Synthesizer and computer-produced music across club and ambient traditions.",
			Subgenres:          []string{"House", "Techno", "Ambient", "Drum and Bass"},
			Characteristics:    []string{"synthetic", "pulsing", "layered", "danceable", "futuristic"},
			TypicalInstruments: []string{"synthesizer", "drum machine", "sequencer"},
			MoodAssociations:   []string{"euphoric", "hypnotic", "dark", "energetic"},
			SourceURL:          FallbackSourceURL,
			ConfidenceScore:    0.9,
		},
		{
			Name:               "Rock",
			Description:        "Guitar-driven band music spanning raw garage energy to stadium anthems.",
			Subgenres:          []string{"Indie Rock", "Hard Rock", "Folk Rock", "Alternative Rock"},
			Characteristics:    []string{"driving", "guitar-driven", "rebellious", "anthemic", "raw"},
			TypicalInstruments: []string{"electric guitar", "bass guitar", "drums"},
			MoodAssociations:   []string{"rebellious", "energetic", "defiant", "cathartic"},
			SourceURL:          FallbackSourceURL,
			ConfidenceScore:    0.9,
		},
		{
			Name:               "Classical",
			Description:        "Orchestral and chamber music in the western art tradition.",
			Subgenres:          []string{"Baroque", "Romantic", "Minimalism", "Contemporary Classical"},
			Characteristics:    []string{"orchestral", "dynamic", "structured", "dramatic", "refined"},
			TypicalInstruments: []string{"strings", "piano", "woodwinds", "brass"},
			MoodAssociations:   []string{"majestic", "serene", "tense", "triumphant"},
			SourceURL:          FallbackSourceURL,
			ConfidenceScore:    0.9,
		},
		{
			Name:               "Blues",
			Description:        "Twelve-bar laments and shuffles built on call and response.",
			Subgenres:          []string{"Delta Blues", "Chicago Blues", "Blues Rock"},
			Characteristics:    []string{"soulful", "raw", "call and response", "expressive", "weathered"},
			TypicalInstruments: []string{"electric guitar", "harmonica", "piano"},
			MoodAssociations:   []string{"melancholic", "world-weary", "resilient", "smoky"},
			SourceURL:          FallbackSourceURL,
			ConfidenceScore:    0.9,
		},
		{
			Name:               "Pop",
			Description:        "Hook-centered songcraft engineered for broad appeal.",
			Subgenres:          []string{"Synth Pop", "Indie Pop", "Dream Pop"},
			Characteristics:    []string{"catchy", "polished", "hook-driven", "accessible", "bright"},
			TypicalInstruments: []string{"synthesizer", "guitar", "programmed drums"},
			MoodAssociations:   []string{"upbeat", "joyful", "bittersweet", "romantic"},
			SourceURL:          FallbackSourceURL,
			ConfidenceScore:    0.9,
		},
		{
			Name:               "Country",
			Description:        "Story songs from the American south built on twang and plainspoken verses.",
			Subgenres:          []string{"Outlaw Country", "Bluegrass", "Country Folk"},
			Characteristics:    []string{"storytelling", "twangy", "plainspoken", "heartfelt"},
			TypicalInstruments: []string{"acoustic guitar", "pedal steel", "banjo", "fiddle"},
			MoodAssociations:   []string{"nostalgic", "heartbroken", "proud", "homesick"},
			SourceURL:          FallbackSourceURL,
			ConfidenceScore:    0.9,
		},
		{
			Name:               "Ambient",
			Description:        "Texture-first music that privileges atmosphere over rhythm and melody.",
			Subgenres:          []string{"Dark Ambient", "Drone", "New Age"},
			Characteristics:    []string{"atmospheric", "textural", "slow", "immersive", "spacious"},
			TypicalInstruments: []string{"synthesizer", "processed guitar", "field recordings"},
			MoodAssociations:   []string{"serene", "contemplative", "mysterious", "weightless"},
			SourceURL:          FallbackSourceURL,
			ConfidenceScore:    0.9,
		},
	}
}

// FallbackMetaTags returns the built-in meta tag table.
func FallbackMetaTags() []MetaTag {
	return []MetaTag{
		{Tag: "intro", Category: "structural", Description: "Opens the track before the first verse.", CompatibleGenres: []string{"Folk", "Jazz", "Hip Hop", "Electronic", "Rock", "Pop", "Country", "Blues", "Classical", "Ambient"}, SourceURL: FallbackSourceURL},
		{Tag: "verse", Category: "structural", Description: "Narrative section carrying the story forward.", CompatibleGenres: []string{"Folk", "Jazz", "Hip Hop", "Rock", "Pop", "Country", "Blues"}, SourceURL: FallbackSourceURL},
		{Tag: "chorus", Category: "structural", Description: "Repeated hook section.", CompatibleGenres: []string{"Folk", "Hip Hop", "Rock", "Pop", "Country"}, SourceURL: FallbackSourceURL},
		{Tag: "bridge", Category: "structural", Description: "Contrasting section before the final chorus.", CompatibleGenres: []string{"Folk", "Rock", "Pop", "Country", "Jazz"}, SourceURL: FallbackSourceURL},
		{Tag: "outro", Category: "structural", Description: "Closes the track, often fading.", CompatibleGenres: []string{"Folk", "Jazz", "Hip Hop", "Electronic", "Rock", "Pop", "Ambient"}, SourceURL: FallbackSourceURL},
		{Tag: "melancholic", Category: "emotional", Description: "Wistful, sorrowful color.", CompatibleGenres: []string{"Folk", "Blues", "Ambient", "Classical", "Jazz"}, SourceURL: FallbackSourceURL},
		{Tag: "uplifting", Category: "emotional", Description: "Bright, hopeful color.", CompatibleGenres: []string{"Pop", "Electronic", "Rock", "Country"}, SourceURL: FallbackSourceURL},
		{Tag: "female vocals", Category: "vocal", Description: "Female lead vocal.", CompatibleGenres: []string{"Folk", "Jazz", "Pop", "Electronic", "Country", "Blues"}, SourceURL: FallbackSourceURL},
		{Tag: "male vocals", Category: "vocal", Description: "Male lead vocal.", CompatibleGenres: []string{"Folk", "Jazz", "Hip Hop", "Rock", "Country", "Blues"}, SourceURL: FallbackSourceURL},
		{Tag: "spoken word", Category: "vocal", Description: "Spoken rather than sung delivery.", CompatibleGenres: []string{"Hip Hop", "Jazz", "Ambient"}, SourceURL: FallbackSourceURL},
		{Tag: "acoustic guitar", Category: "instrumental", Description: "Foregrounded acoustic guitar.", CompatibleGenres: []string{"Folk", "Country", "Blues", "Pop"}, SourceURL: FallbackSourceURL},
		{Tag: "piano", Category: "instrumental", Description: "Foregrounded piano.", CompatibleGenres: []string{"Jazz", "Classical", "Pop", "Blues", "Ambient"}, SourceURL: FallbackSourceURL},
		{Tag: "heavy bass", Category: "instrumental", Description: "Prominent low end.", CompatibleGenres: []string{"Hip Hop", "Electronic"}, SourceURL: FallbackSourceURL},
		{Tag: "reverb", Category: "effect", Description: "Spacious wet mix.", CompatibleGenres: []string{"Ambient", "Electronic", "Rock", "Pop"}, SourceURL: FallbackSourceURL},
		{Tag: "lo-fi", Category: "effect", Description: "Degraded, tape-warm production.", CompatibleGenres: []string{"Hip Hop", "Ambient", "Electronic"}, SourceURL: FallbackSourceURL},
	}
}

// FallbackTechniques returns the built-in technique table.
func FallbackTechniques() []Technique {
	return []Technique{
		{
			Name:                "Genre-first prompt ordering",
			Description:         "Lead the prompt with the genre, then mood, then arrangement details.",
			TechniqueType:       "prompt_structure",
			Examples:            []string{"melancholic folk, fingerpicked acoustic guitar, warm female vocals"},
			ApplicableScenarios: []string{"any prompt where genre identity matters most"},
			SourceURL:           FallbackSourceURL,
		},
		{
			Name:                "Bracketed section tags",
			Description:         "Use square-bracket tags to pin song structure.",
			TechniqueType:       "prompt_structure",
			Examples:            []string{"[intro] [verse] [chorus] [outro]"},
			ApplicableScenarios: []string{"structured prompts that need predictable form"},
			SourceURL:           FallbackSourceURL,
		},
		{
			Name:                "Vocal texture descriptors",
			Description:         "Describe the voice with two or three concrete adjectives instead of a singer's name.",
			TechniqueType:       "vocal_style",
			Examples:            []string{"weathered baritone, close-mic, conversational"},
			ApplicableScenarios: []string{"character-driven vocal casting"},
			SourceURL:           FallbackSourceURL,
		},
		{
			Name:                "Mood before instrumentation",
			Description:         "State the emotional target before listing instruments so the mix serves the mood.",
			TechniqueType:       "production",
			Examples:            []string{"tense and restless; muted trumpet over brushed drums"},
			ApplicableScenarios: []string{"scores and narrative pieces"},
			SourceURL:           FallbackSourceURL,
		},
		{
			Name:                "Concrete imagery in lyric slots",
			Description:         "Fill lyric themes with specific images drawn from the story rather than abstractions.",
			TechniqueType:       "lyrics",
			Examples:            []string{"the lighthouse lamp, salt on the railing, a late train"},
			ApplicableScenarios: []string{"templated lyric scaffolds"},
			SourceURL:           FallbackSourceURL,
		},
	}
}

// FallbackTraitGenres is the hardcoded trait → genre table used as the last
// mapping fallback when neither wiki data nor semantic expansion produced a
// match.
var FallbackTraitGenres = map[string][]string{
	"melancholic":   {"Folk", "Blues", "Ambient"},
	"nostalgic":     {"Folk", "Country"},
	"rebellious":    {"Rock", "Hip Hop"},
	"confident":     {"Hip Hop", "Pop"},
	"introspective": {"Folk", "Ambient", "Jazz"},
	"energetic":     {"Electronic", "Rock", "Pop"},
	"sophisticated": {"Jazz", "Classical"},
	"playful":       {"Pop", "Jazz"},
	"dark":          {"Electronic", "Ambient", "Rock"},
	"romantic":      {"Pop", "Classical", "Jazz"},
	"resilient":     {"Blues", "Country", "Rock"},
	"dreamy":        {"Ambient", "Pop"},
}
