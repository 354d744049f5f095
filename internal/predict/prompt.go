package predict

import (
	"fmt"
	"strings"

	"github.com/rakhic/spot-the-op/internal/game"
)

// DefaultPromptPrefix is the prefix used when the player doesn't supply one.
const DefaultPromptPrefix = "Predict the next event based on these coordinates:"

// instruction pins the model to the exact sentence template the parser
// expects. Changing the wording here breaks ParseResponse compatibility.
const instruction = `Please generate the possible 3 locations in latitude and longitude format where the following person is most likely to show up at this time frame. Return them as an array in the format: "{person} is most likely right now to show up at your location {lat} {long}". No explanation, just the list.`

// BuildPrompt serializes the sighting history into the generation prompt.
// An empty history still produces a well-formed (if degenerate) prompt.
func BuildPrompt(history []game.Sighting, prefix string) string {
	if prefix == "" {
		prefix = DefaultPromptPrefix
	}

	lines := make([]string, len(history))
	for i, s := range history {
		lines[i] = fmt.Sprintf("Lat: %v, Long: %v, Time: %s, Description: %s",
			s.Latitude, s.Longitude, s.Timestamp.Format("2006-01-02 15:04:05"), s.PersonSpotted)
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString("\n\nGiven the following observations:\n\nCoordinates:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
	b.WriteString(instruction)
	return b.String()
}
