package assembler

import (
	"fmt"
	mathrand "math/rand"
	"unicode/utf8"
)

// NodeNameMaxLength is the exclusive upper bound on generated node names.
const NodeNameMaxLength = 32

var nameAdjectives = []string{
	"amber", "ancient", "autumn", "bold", "brave", "bright", "calm", "cheerful",
	"clever", "cold", "crimson", "curious", "damp", "dark", "dawn", "delicate",
	"distant", "dry", "eager", "early", "electric", "elegant", "empty", "faint",
	"fancy", "flat", "floral", "fragrant", "frosty", "gentle", "glorious", "golden",
	"grand", "green", "hidden", "holy", "icy", "jolly", "late", "lingering",
	"little", "lively", "long", "loud", "lucky", "misty", "morning", "muddy",
	"nameless", "noble", "old", "patient", "polished", "proud", "purple", "quiet",
	"rapid", "restless", "rough", "round", "royal", "shiny", "shrill", "shy",
	"silent", "small", "snowy", "soft", "solitary", "sparkling", "spring", "square",
	"steep", "still", "summer", "super", "sweet", "swift", "thundering", "tight",
	"tiny", "twilight", "wandering", "weathered", "white", "wild", "winter", "wispy",
	"withered", "yellow", "young", "zealous",
}

var nameNouns = []string{
	"art", "band", "bar", "base", "bird", "block", "boat", "bonus", "bread",
	"breeze", "brook", "bush", "butterfly", "cake", "cell", "cherry", "cloud",
	"credit", "darkness", "dawn", "dew", "disk", "dream", "dust", "feather",
	"field", "fire", "firefly", "flower", "fog", "forest", "frog", "frost",
	"glade", "glitter", "grass", "hall", "hat", "haze", "heart", "hill",
	"king", "lab", "lake", "leaf", "limit", "math", "meadow", "mode", "moon",
	"morning", "mountain", "mouse", "mud", "night", "paper", "pine", "poetry",
	"pond", "queen", "rain", "recipe", "resonance", "rice", "river", "salad",
	"scene", "sea", "shadow", "shape", "silence", "sky", "smoke", "snow",
	"snowflake", "sound", "star", "sun", "sunset", "surf", "term", "thunder",
	"tooth", "tree", "truth", "union", "unit", "violet", "voice", "water",
	"waterfall", "wave", "wildflower", "wind", "wood",
}

// GenerateNodeName returns a random "adjective-noun-NNNN" name.
func GenerateNodeName() string {
	adj := nameAdjectives[mathrand.Intn(len(nameAdjectives))]
	noun := nameNouns[mathrand.Intn(len(nameNouns))]
	return fmt.Sprintf("%s-%s-%04d", adj, noun, mathrand.Intn(10000))
}

// boundedName draws from gen until the name is shorter than NodeNameMaxLength
// characters.
func boundedName(gen func() string) string {
	for {
		if name := gen(); utf8.RuneCountInString(name) < NodeNameMaxLength {
			return name
		}
	}
}
