package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	s, err := ParseStrategy("generative")
	require.NoError(t, err)
	assert.Equal(t, StrategyGenerative, s)

	_, err = ParseStrategy("abstractive")
	assert.Error(t, err)
}

func TestOptions_WithDefaults(t *testing.T) {
	t.Parallel()

	o := Options{Lambda: 0.5}.withDefaults()
	assert.Equal(t, StrategyExtractive, o.Strategy)
	assert.Equal(t, DefaultK, o.K)
	assert.Equal(t, 0.5, o.Lambda)
	assert.Equal(t, 0.0, o.TagBoost)
	assert.Equal(t, DefaultChunkChars, o.ChunkChars)
	assert.Equal(t, DefaultTTL, o.TTL)
	assert.Contains(t, o.ChunkInstructions, "SECURITY:")
	require.NoError(t, o.Validate())
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"bad strategy", func(o *Options) { o.Strategy = "x" }},
		{"negative k", func(o *Options) { o.K = -1 }},
		{"lambda above one", func(o *Options) { o.Lambda = 1.5 }},
		{"negative tag boost", func(o *Options) { o.TagBoost = -0.1 }},
		{"inverted unit bounds", func(o *Options) { o.MinUnitChars, o.MaxUnitChars = 300, 100 }},
		{"negative ttl", func(o *Options) { o.TTL = -1 }},
		{"negative concurrency", func(o *Options) { o.Concurrency = -2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := DefaultOptions()
			tt.mutate(&o)
			assert.Error(t, o.Validate())
		})
	}

	assert.NoError(t, DefaultOptions().Validate())
}

func TestComposeChunkInstructions(t *testing.T) {
	t.Parallel()

	got := ComposeChunkInstructions("custom header")
	assert.True(t, len(got) > len("custom header"))
	assert.Equal(t, "custom header", got[:len("custom header")])
	assert.Contains(t, got, "\n\nSECURITY:\n")
	assert.Contains(t, got, "Return only JSON matching the schema.")

	assert.Equal(t, ComposeChunkInstructions(DefaultChunkPromptHeader), ComposeChunkInstructions("   "))
}

func TestChunkSummarySchema_IsStrict(t *testing.T) {
	t.Parallel()

	assert.Equal(t, false, chunkSummarySchema["additionalProperties"])
	required, ok := chunkSummarySchema["required"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"cons", "pros", "quotes", "stats"}, required)

	props := chunkSummarySchema["properties"].(map[string]any)
	stats := props["stats"].(map[string]any)
	assert.Equal(t, false, stats["additionalProperties"])
	assert.Equal(t, []string{"negative", "neutral", "positive", "total"}, stats["required"])
}

type scheduleItem struct {
	Title string `json:"title"`
	At    string `json:"at"`
}

type schedule struct {
	Name  string         `json:"name"`
	Items []scheduleItem `json:"items"`
}

func TestGenerateSchema_StrictAndStable(t *testing.T) {
	t.Parallel()

	first := GenerateSchema[schedule]()
	assert.Equal(t, first, GenerateSchema[schedule]())
	assert.Equal(t, []string{"items", "name"}, first["required"])

	items := first["properties"].(map[string]any)["items"].(map[string]any)
	elem := items["items"].(map[string]any)
	assert.Equal(t, false, elem["additionalProperties"])
	assert.Equal(t, []string{"at", "title"}, elem["required"])
}
