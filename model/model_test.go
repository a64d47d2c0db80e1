package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	testCases := []struct {
		name     string
		wrapping PromptWrapping
		pos      int
		prompt   string
		want     string
	}{
		{"it first turn", GemmaIT, 0, "Hello!",
			"<start_of_turn>user\nHello!<end_of_turn>\n<start_of_turn>model\n"},
		{"it continuation", GemmaIT, 17, "And then?",
			"<end_of_turn>\n<start_of_turn>user\nAnd then?<end_of_turn>\n<start_of_turn>model\n"},
		{"pretrained is identity", GemmaPT, 0, "Once upon a time", "Once upon a time"},
		{"pretrained continuation is identity", GemmaPT, 42, "Once upon a time", "Once upon a time"},
		{"paligemma is identity", PaliGemma, 0, "caption en", "caption en"},
		{"vlm is identity", GemmaVLM, 0, "What is in this image?", "What is in this image?"},
	}
	for _, tc := range testCases {
		got := Wrap(Info{Name: "test", Wrapping: tc.wrapping}, tc.pos, tc.prompt)
		fmt.Printf("\t%s: %q\n", tc.name, got)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestWrapInvalidWrappingPanics(t *testing.T) {
	assert.Panics(t, func() {
		Wrap(Info{Wrapping: sentinelWrapping}, 0, "boom")
	})
}

func TestParseSpec(t *testing.T) {
	testCases := []struct {
		spec string
		want PromptWrapping
	}{
		{"gemma2-2b-it", GemmaIT},
		{"Gemma2-9B-IT", GemmaIT},
		{"gemma2-2b-pt", GemmaPT},
		{"gemma-7b-pt", GemmaPT},
		{"paligemma-3b-mix-224", PaliGemma},
		{"paligemma2-10b-448", PaliGemma},
		{"gemma3-4b", GemmaVLM},
		{"gemma3-12b", GemmaVLM},
		{"gemma3-27b", GemmaVLM},
		{"gemma-3-27b", GemmaVLM},
		{"gemma3-1b-it", GemmaIT},
		{"gemma3-1b-pt", GemmaPT},
		{"custom-2b-vlm", GemmaVLM},
	}
	for _, tc := range testCases {
		info, err := ParseSpec(tc.spec)
		require.NoErrorf(t, err, "ParseSpec(%q)", tc.spec)
		fmt.Printf("\t%q -> %s\n", tc.spec, info.Wrapping)
		assert.Equal(t, tc.want, info.Wrapping, tc.spec)
	}

	for _, bad := range []string{"", "gemma2-2b", "llama-7b"} {
		_, err := ParseSpec(bad)
		assert.Errorf(t, err, "ParseSpec(%q) should fail", bad)
	}
}

func TestPromptWrappingValid(t *testing.T) {
	for _, w := range []PromptWrapping{GemmaPT, GemmaIT, PaliGemma, GemmaVLM} {
		assert.True(t, w.Valid(), w.String())
	}
	assert.False(t, PromptWrapping(-1).Valid())
	assert.False(t, sentinelWrapping.Valid())
}

func TestPromptWrappingVision(t *testing.T) {
	assert.False(t, GemmaPT.Vision())
	assert.False(t, GemmaIT.Vision())
	assert.True(t, PaliGemma.Vision())
	assert.True(t, GemmaVLM.Vision())
}

func TestPromptWrappingString(t *testing.T) {
	assert.Equal(t, "gemma_it", GemmaIT.String())
	assert.Equal(t, "paligemma", PaliGemma.String())
	assert.Equal(t, "PromptWrapping(99)", PromptWrapping(99).String())
}
