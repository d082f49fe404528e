package fallback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		hasImage bool
		want     Topic
	}{
		{"disease keyword", "my tomato has brown spots on leaves", false, TopicDisease},
		{"pest keyword", "aphids are eating my beans", false, TopicPest},
		{"fertilizer keyword", "which NPK ratio for paddy", false, TopicFertilizer},
		{"weather keyword", "will it rain this week", false, TopicWeather},
		{"market keyword", "what is the onion price today", false, TopicMarket},
		{"water keyword", "irrigation schedule for dry season", false, TopicWater},
		{"soil keyword", "my soil is too acidic", false, TopicSoil},
		{"no match", "random unrelated text", false, TopicGeneral},
		{"image with no keywords", "what is this", true, TopicDisease},
		{"image with keyword keeps keyword topic", "weather today", true, TopicWeather},
		{"case insensitive", "MY LEAF HAS MILDEW", false, TopicDisease},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.message, tt.hasImage))
		})
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	// Pest is declared before market, so a message matching both routes to pest.
	assert.Equal(t, TopicPest, Classify("pest control price", false))
	// Disease outranks everything.
	assert.Equal(t, TopicDisease, Classify("leaf spot and soil ph and weather", false))

	want := []Topic{
		TopicDisease, TopicPest, TopicFertilizer,
		TopicWeather, TopicMarket, TopicWater, TopicSoil,
	}
	assert.Equal(t, want, Order())
}

func TestRespondIsDeterministic(t *testing.T) {
	opts := Options{}
	first := Respond("my tomato has brown spots", opts)
	for range 5 {
		assert.Equal(t, first, Respond("my tomato has brown spots", opts))
	}
}

func TestDiseaseTierVariants(t *testing.T) {
	free := ResponseFor(TopicDisease, Options{})
	paid := ResponseFor(TopicDisease, Options{Paid: true})

	assert.Contains(t, free, "Leaf Spot Disease")
	assert.Contains(t, free, diseaseUpsellNotice)
	assert.NotContains(t, free, "Powdery Mildew")

	assert.Contains(t, paid, "Leaf Spot Disease")
	assert.Contains(t, paid, "Root Rot")
	assert.Contains(t, paid, "Powdery Mildew")
	assert.NotContains(t, paid, diseaseUpsellNotice)
}

func TestDiseaseImageTip(t *testing.T) {
	withImage := ResponseFor(TopicDisease, Options{HasImage: true, Paid: true})
	without := ResponseFor(TopicDisease, Options{Paid: true})

	require.True(t, strings.HasSuffix(withImage, diseaseImageTip))
	assert.NotContains(t, without, diseaseImageTip)
}

func TestNonDiseaseTopicsIgnoreTier(t *testing.T) {
	for _, topic := range []Topic{
		TopicPest, TopicFertilizer, TopicWeather,
		TopicMarket, TopicWater, TopicSoil, TopicGeneral,
	} {
		free := ResponseFor(topic, Options{})
		paid := ResponseFor(topic, Options{Paid: true})
		assert.Equal(t, free, paid, "topic %s", topic)
		assert.NotEmpty(t, free)
	}
}

func TestGeneralResponseListsCapabilities(t *testing.T) {
	text := Respond("hello there", Options{})
	assert.Contains(t, text, "Yaung Chi")
	assert.Contains(t, text, "Crop Diseases")
	assert.Contains(t, text, "Market Prices")
}
