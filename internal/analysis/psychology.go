package analysis

import "github.com/versebound/musemcp/internal/profile"

// PsychologyView restructures a character's psychology group with small
// derived labels for the psychology analysis tool.
type PsychologyView struct {
	Character          string   `json:"character"`
	Motivations        []string `json:"motivations"`
	Fears              []string `json:"fears"`
	Desires            []string `json:"desires"`
	Conflicts          []string `json:"conflicts"`
	PersonalityDrivers []string `json:"personality_drivers"`

	DominantDrive       string   `json:"dominant_drive"`
	CoreVulnerability   string   `json:"core_vulnerability"`
	InnerTension        string   `json:"inner_tension"`
	MusicalImplications []string `json:"musical_implications"`
}

// PsychologyOf derives the psychology view from a canonical profile.
func PsychologyOf(c *profile.Character) PsychologyView {
	v := PsychologyView{
		Character:          c.Name,
		Motivations:        orEmpty(c.Motivations),
		Fears:              orEmpty(c.Fears),
		Desires:            orEmpty(c.Desires),
		Conflicts:          orEmpty(c.Conflicts),
		PersonalityDrivers: orEmpty(c.PersonalityDrivers),
	}

	switch {
	case len(c.PersonalityDrivers) > 0:
		v.DominantDrive = c.PersonalityDrivers[0]
	case len(c.Motivations) > 0:
		v.DominantDrive = c.Motivations[0]
	case len(c.Desires) > 0:
		v.DominantDrive = c.Desires[0]
	}
	if len(c.Fears) > 0 {
		v.CoreVulnerability = c.Fears[0]
	}
	if len(c.Conflicts) > 0 {
		v.InnerTension = c.Conflicts[0]
	}

	v.MusicalImplications = []string{}
	if len(c.Fears) > 0 {
		v.MusicalImplications = append(v.MusicalImplications,
			"minor tonality or unresolved cadences can carry the character's fear")
	}
	if len(c.Desires) > 0 || len(c.Motivations) > 0 {
		v.MusicalImplications = append(v.MusicalImplications,
			"a rising melodic line suits the character's forward drive")
	}
	if len(c.Conflicts) > 0 {
		v.MusicalImplications = append(v.MusicalImplications,
			"contrasting sections can stage the character's inner tension")
	}
	if len(c.FormativeExperiences) > 0 {
		v.MusicalImplications = append(v.MusicalImplications,
			"lyrical callbacks to formative scenes ground the song in the backstory")
	}
	return v
}

