package utils

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferRole(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"CFO", "finance"},
		{"VP of Finance", "finance"},
		{"Senior Software Engineer", "engineering"},
		{"CTO & Co-founder", "engineering"},
		{"Head of Sales", "sales"},
		{"Account Executive", "sales"},
		{"CEO", "executive"},
		{"Managing Director", "executive"},
		{"Gardener", "all"},
		{"", "all"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferRole(tt.title), "title=%q", tt.title)
	}
}

func TestFilterCTAs(t *testing.T) {
	finance := FilterCTAs("finance")
	require.NotEmpty(t, finance)
	for _, cta := range finance {
		assert.Contains(t, []string{"all", "finance"}, cta.Tag)
	}

	// An unknown role still gets the generic pool
	generic := FilterCTAs("unknown")
	require.NotEmpty(t, generic)
	for _, cta := range generic {
		assert.Equal(t, "all", cta.Tag)
	}

	// Role-specific pools are strictly larger than the generic pool
	assert.Greater(t, len(finance), len(generic))
}

func TestPickCTAIsEligible(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	eligible := map[string]bool{}
	for _, cta := range FilterCTAs("engineering") {
		eligible[cta.Text] = true
	}

	for i := 0; i < 50; i++ {
		assert.True(t, eligible[PickCTA(rng, "engineering")])
	}
}

func TestBuildPromptSubstitutesCTA(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	prompt, err := BuildPrompt(TemplateFirstEmailIntro, true, "finance", rng)
	require.NoError(t, err)
	assert.Contains(t, prompt, "[contact_first_name]")
	assert.Contains(t, prompt, "call to action")

	// Disabled CTA leaves the base prompt untouched
	plain, err := BuildPrompt(TemplateFirstEmailIntro, false, "finance", rng)
	require.NoError(t, err)
	assert.NotContains(t, plain, "call to action")
}

func TestBuildPromptNonCTATemplateIgnoresFlag(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	prompt, err := BuildPrompt(TemplateBreakupEmail, true, "sales", rng)
	require.NoError(t, err)
	assert.NotContains(t, prompt, "call to action")
}

func TestBuildPromptUnknownTemplate(t *testing.T) {
	_, err := BuildPrompt("no-such-template", false, "all", rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestTemplateCatalogue(t *testing.T) {
	names := TemplateNames()
	assert.Len(t, names, 11)

	seen := map[string]bool{}
	for _, name := range names {
		assert.True(t, HasTemplate(name), name)
		assert.False(t, seen[name], "duplicate %s", name)
		seen[name] = true
		assert.False(t, strings.Contains(name, " "))
	}
	assert.False(t, HasTemplate("bogus"))
}
