package services

import "fmt"

// Fixed prompt fragments for the design flow. The image stage composes
// these with the free-form user prompt into one structured prompt.

var materialPrompts = map[string]string{
	"pbt":           "PBT plastic with matte, slightly grainy textured surface, no shine, durable look",
	"abs":           "ABS plastic with smooth glossy surface, slight reflectivity, vibrant colors",
	"resin":         "transparent clear resin, glass-like with subtle internal reflections, depth",
	"metal":         "polished metal with brushed metallic finish and reflective highlights, machined look",
	"wood":          "natural wood grain texture, warm organic tones, matte finish",
	"rubber":        "soft-touch silicone rubber, matte finish, non-reflective",
	"pom":           "POM plastic, ultra-smooth semi-glossy surface, milky diffusion",
	"polycarbonate": "polycarbonate plastic, frosted translucent look, light diffusion",
}

var profilePrompts = map[string]string{
	"cherry":  "Cherry profile keycap (9.4mm height), low sculpted with subtle cylindrical top curve, sharp edges",
	"oem":     "OEM profile keycap (11.9mm height), medium height with cylindrical sculpted top, standard mechanical look",
	"sa":      "SA profile keycap (16.5mm tall), high spherical sculpted top, retro typewriter aesthetic, thick walls",
	"dsa":     "DSA profile keycap (7.6mm height), flat uniform top surface, low profile, minimalist",
	"xda":     "XDA profile keycap (9.1mm height), wide flat top surface, modern aesthetic, rounded corners",
	"artisan": "Artisan sculptural keycap, artistic 3D design breaking traditional shape rules",
}

var keyTypePrompts = map[string]string{
	"1u":       "Standard 1u square keycap (19.05mm x 19.05mm)",
	"spacebar": "Long horizontal 6.25u spacebar keycap, elongated form",
	"enter":    "Rectangular 2.25u Enter keycap, landscape orientation",
	"shift":    "Rectangular 2.25u Shift keycap, landscape orientation",
}

var techniquePrompts = map[string]string{
	"standard":   "standard surface printing",
	"doubleshot": "double-shot injection molding, crisp high-contrast legends",
	"resin_cast": "encapsulated resin casting, internal objects embedded inside clear resin",
}

const (
	defaultProfilePrompt = "Cherry profile keycap"
	defaultKeyTypePrompt = "Standard 1u keycap"
)

// composeDesignPrompt builds the structured prompt:
// [Shape/Dimensions] + [Profile] + [Material] + [Technique] +
// [View/Background] + [User Design]. Missing fields fall back to the
// lowest/most standard option.
func composeDesignPrompt(prompt, material, profile, keyType, technique string) string {
	profilePart := defaultProfilePrompt
	if profile != "" {
		profilePart = profilePrompts[profile]
	}
	materialPart := ""
	if material != "" {
		materialPart = materialPrompts[material]
	}
	keyTypePart := defaultKeyTypePrompt
	if keyType != "" {
		if p, ok := keyTypePrompts[keyType]; ok {
			keyTypePart = p
		}
	}
	techniquePart := ""
	if technique != "" {
		techniquePart = techniquePrompts[technique]
	}

	systemContext := fmt.Sprintf(
		"A close-up 3D render of a single mechanical keyboard keycap. Shape/Dimensions: %s, %s. Material: %s. Technique: %s. View: Isometric view showing top and side surfaces clearly. Background: Neutral studio lighting, solid background.",
		keyTypePart, profilePart, materialPart, techniquePart,
	)
	return fmt.Sprintf("%s Design Description: %s", systemContext, prompt)
}
