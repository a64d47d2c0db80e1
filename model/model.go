// Package model describes the Gemma model families this library knows how to build prompts
// for: which prompt wrapping a model expects, the ids of the special tokens shared by all
// Gemma vocabularies and the turn template used by instruction-tuned variants.
package model

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// PromptWrapping selects how a raw prompt is decorated before tokenization.
type PromptWrapping int

const (
	// GemmaPT is used by pretrained (base) models: prompts are tokenized as-is.
	GemmaPT PromptWrapping = iota

	// GemmaIT is used by instruction-tuned models, which are trained to expect
	// the "<start_of_turn>"/"<end_of_turn>" control tokens around each turn.
	GemmaIT

	// PaliGemma is used by PaliGemma image+text models: the text prompt is kept
	// as-is and a newline separator is appended after tokenization.
	PaliGemma

	// GemmaVLM is used by the Gemma vision-language models, which interleave
	// image token blocks with the text prompt.
	GemmaVLM

	sentinelWrapping
)

// Special token ids shared by all Gemma SentencePiece vocabularies.
const (
	PadID = 0
	EosID = 1
	BosID = 2
	UnkID = 3

	// EndOfTurnID is the id of "<end_of_turn>", the secondary end-of-sequence
	// token emitted by instruction-tuned models.
	EndOfTurnID = 107
)

// Turn template pieces for instruction-tuned models.
const (
	startOfTurnUser  = "<start_of_turn>user\n"
	startOfTurnModel = "<start_of_turn>model\n"
	endOfTurn        = "<end_of_turn>\n"
)

// Valid reports whether w is one of the known wrapping modes.
func (w PromptWrapping) Valid() bool {
	return w >= GemmaPT && w < sentinelWrapping
}

// Vision reports whether w belongs to a model that consumes images.
func (w PromptWrapping) Vision() bool {
	return w == PaliGemma || w == GemmaVLM
}

// String implements fmt.Stringer.
func (w PromptWrapping) String() string {
	switch w {
	case GemmaPT:
		return "gemma_pt"
	case GemmaIT:
		return "gemma_it"
	case PaliGemma:
		return "paligemma"
	case GemmaVLM:
		return "gemma_vlm"
	}
	return fmt.Sprintf("PromptWrapping(%d)", int(w))
}

// Info is the model metadata consumed when building prompts.
// Prompt construction only looks at Wrapping; Name is carried for logging.
type Info struct {
	Name     string
	Wrapping PromptWrapping
}

// Wrap decorates the raw prompt text according to the model's wrapping mode.
//
// Only instruction-tuned models get a decorated prompt: the current user turn is
// bracketed with the turn control tokens, and when pos > 0 the previous model turn
// is first closed with "<end_of_turn>". All other modes return the prompt
// unchanged; in particular the vision modes must stay undecorated, since their
// image token blocks are built from wrapped literals.
func Wrap(info Info, pos int, prompt string) string {
	switch info.Wrapping {
	case GemmaIT:
		start := startOfTurnUser
		if pos > 0 {
			start = endOfTurn + startOfTurnUser
		}
		return start + prompt + endOfTurn + startOfTurnModel
	case GemmaPT, PaliGemma, GemmaVLM:
		return prompt
	}
	panic(fmt.Sprintf("model.Wrap: invalid prompt wrapping %d", int(info.Wrapping)))
}

// ParseSpec parses a model specification string like "gemma2-2b-it",
// "paligemma-3b-mix-224" or "gemma3-4b" into an Info with the wrapping mode the
// model expects.
//
// The rules follow the model naming scheme: "paligemma" anywhere in the name
// selects the PaliGemma wrapping; the multimodal Gemma 3 sizes (4b and up)
// select the vision-language wrapping; everything else is resolved by the
// "-it" / "-pt" / "-vlm" suffix.
func ParseSpec(name string) (Info, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return Info{}, errors.New("empty model specification")
	}
	info := Info{Name: lower}

	if strings.Contains(lower, "paligemma") {
		info.Wrapping = PaliGemma
		return info, nil
	}
	if isMultimodalGemma3(lower) {
		info.Wrapping = GemmaVLM
		return info, nil
	}
	switch {
	case strings.HasSuffix(lower, "-it"):
		info.Wrapping = GemmaIT
	case strings.HasSuffix(lower, "-pt"):
		info.Wrapping = GemmaPT
	case strings.HasSuffix(lower, "-vlm"):
		info.Wrapping = GemmaVLM
	default:
		return Info{}, errors.Errorf("model %q: cannot infer prompt wrapping, expected a -it, -pt or -vlm suffix", name)
	}
	return info, nil
}

// isMultimodalGemma3 reports whether the name denotes one of the Gemma 3 sizes
// trained with vision support. The 1b variant is text-only.
func isMultimodalGemma3(name string) bool {
	if !strings.HasPrefix(name, "gemma3-") && !strings.HasPrefix(name, "gemma-3-") {
		return false
	}
	for _, size := range []string{"4b", "12b", "27b"} {
		if strings.Contains(name, "-"+size) {
			return true
		}
	}
	return false
}
