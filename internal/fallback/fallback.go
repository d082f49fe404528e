// Package fallback provides the rule-based responder used when no
// generative model is configured or the model call fails. Classification
// is pure keyword matching, so the same message and tier always produce
// the same text.
package fallback

import "strings"

// Topic identifies the advisory category a message is routed to.
type Topic string

// Topics, in classification priority order.
const (
	TopicDisease    Topic = "disease"
	TopicPest       Topic = "pest"
	TopicFertilizer Topic = "fertilizer"
	TopicWeather    Topic = "weather"
	TopicMarket     Topic = "market"
	TopicWater      Topic = "water"
	TopicSoil       Topic = "soil"
	TopicGeneral    Topic = "general"
)

// topicOrder pins the priority: the first topic whose keyword list matches
// wins, so a message mentioning both pests and prices is a pest query.
var topicOrder = []Topic{
	TopicDisease,
	TopicPest,
	TopicFertilizer,
	TopicWeather,
	TopicMarket,
	TopicWater,
	TopicSoil,
}

var topicKeywords = map[Topic][]string{
	TopicDisease:    {"disease", "spot", "leaf", "rot", "blight", "mildew", "fungus"},
	TopicPest:       {"pest", "insect", "bug", "caterpillar", "aphid"},
	TopicFertilizer: {"fertilizer", "fertiliser", "nutrition", "npk", "compost", "manure"},
	TopicWeather:    {"weather", "rain", "temperature", "climate", "forecast"},
	TopicMarket:     {"price", "market", "sell", "cost"},
	TopicWater:      {"water", "irrigation", "drought"},
	TopicSoil:       {"soil", "ph", "acidity"},
}

// Order returns the pinned classification priority.
func Order() []Topic {
	out := make([]Topic, len(topicOrder))
	copy(out, topicOrder)
	return out
}

// Classify routes a message to a topic. An uploaded image with no keyword
// match is treated as a disease/diagnosis query; no match at all yields
// TopicGeneral.
func Classify(message string, hasImage bool) Topic {
	lower := strings.ToLower(message)

	for _, topic := range topicOrder {
		for _, kw := range topicKeywords[topic] {
			if strings.Contains(lower, kw) {
				return topic
			}
		}
	}

	if hasImage {
		return TopicDisease
	}
	return TopicGeneral
}

// Options adjusts the advisory variant.
type Options struct {
	HasImage bool
	Paid     bool
}

// Respond classifies the message and returns the canned advisory for it.
func Respond(message string, opts Options) string {
	return ResponseFor(Classify(message, opts.HasImage), opts)
}

// ResponseFor returns the advisory text for a topic. Only the disease topic
// is tier-variant: free-tier users get the abbreviated text plus an upsell
// notice.
func ResponseFor(topic Topic, opts Options) string {
	switch topic {
	case TopicDisease:
		text := diseaseShortText + "\n\n" + diseaseUpsellNotice
		if opts.Paid {
			text = diseaseFullText
		}
		if opts.HasImage {
			text += "\n\n" + diseaseImageTip
		}
		return text
	case TopicPest:
		return pestText
	case TopicFertilizer:
		return fertilizerText
	case TopicWeather:
		return weatherText
	case TopicMarket:
		return marketText
	case TopicWater:
		return waterText
	case TopicSoil:
		return soilText
	default:
		return generalText
	}
}
