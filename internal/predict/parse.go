package predict

import (
	"regexp"
	"strconv"
	"strings"
)

// coordPair matches two decimal numbers separated by whitespace, read as
// (latitude, longitude) in that order.
var coordPair = regexp.MustCompile(`([-+]?\d+\.\d+)\s+([-+]?\d+\.\d+)`)

// ParseOutcome classifies how much of a model response survived parsing.
type ParseOutcome int

const (
	ParseEmpty   ParseOutcome = iota // no line yielded a prediction
	ParsePartial                     // some lines dropped
	ParseFull                        // every non-empty line parsed
)

func (o ParseOutcome) String() string {
	switch o {
	case ParseFull:
		return "full"
	case ParsePartial:
		return "partial"
	}
	return "empty"
}

// ParseResponse extracts (person, latitude, longitude) triples from the
// model's free-text response, one prediction per line. The person is the
// first whitespace-delimited word of the line. Lines without a coordinate
// pair are dropped silently; the model's output is free text and a
// best-effort parse is all this can be.
func ParseResponse(text string) ([]Prediction, ParseOutcome) {
	var preds []Prediction
	nonEmpty := 0

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		nonEmpty++

		m := coordPair.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lat, err1 := strconv.ParseFloat(m[1], 64)
		lng, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil {
			continue
		}

		fields := strings.Fields(line)
		preds = append(preds, Prediction{
			Person:    fields[0],
			Latitude:  lat,
			Longitude: lng,
		})
	}

	switch {
	case len(preds) == 0:
		return nil, ParseEmpty
	case len(preds) < nonEmpty:
		return preds, ParsePartial
	default:
		return preds, ParseFull
	}
}
