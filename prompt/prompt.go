// Package prompt builds the token sequences fed to Gemma models: it applies the
// model's prompt wrapping, tokenizes, prepends BOS at the start of a sequence and
// assembles the image token blocks consumed by the vision-language models.
package prompt

import (
	"github.com/pkg/errors"

	"github.com/gomlx/go-gemma/model"
)

// ImagePlaceholderID marks a position in a token sequence to be replaced by an
// image embedding. It is not a vocabulary id and must never be decoded.
const ImagePlaceholderID = -2

// Literals bracketing each image block in vision-language prompts.
const (
	beginImagePrompt = "\n\n<start_of_image>"
	endImagePrompt   = "<end_of_image>\n\n"
)

// Encoder is the subset of a tokenizer needed to build prompts. All tokenizer
// implementations of this library satisfy it.
type Encoder interface {
	Encode(text string) ([]int, error)
}

// panicf panics with an error constructed with the given format and args.
func panicf(format string, args ...any) {
	panic(errors.Errorf(format, args...))
}

// WrapAndTokenize converts a text prompt at sequence position pos into the token
// sequence to feed the model: the prompt is wrapped according to info, encoded,
// and BOS is prepended when pos == 0 (the tokenizer itself never adds it).
// PaliGemma models additionally expect a separator after the prompt.
//
// Encoding only fails for a tokenizer that was not loaded properly, which is a
// programming error at this point, so failures panic instead of returning.
func WrapAndTokenize(enc Encoder, info model.Info, pos int, text string) []int {
	if pos < 0 {
		panicf("prompt: negative sequence position %d", pos)
	}
	wrapped := model.Wrap(info, pos, text)
	tokens, err := enc.Encode(wrapped)
	if err != nil {
		panicf("prompt: encoding prompt %q: %v", wrapped, err)
	}
	if pos == 0 {
		tokens = append([]int{model.BosID}, tokens...)
	}

	// PaliGemma separator. The SEP token "\n" is always tokenized on its own,
	// never merged into the prompt tokens.
	if info.Wrapping == model.PaliGemma {
		sep, err := enc.Encode("\n")
		if err != nil {
			panicf("prompt: encoding separator: %v", err)
		}
		tokens = append(tokens, sep...)
	}
	return tokens
}

// WrapVLM prepends image token blocks to an already tokenized prompt for a
// vision-language model. Images are fed in batches of at most maxImageBatchSize,
// so ceil(imageBatchSize/maxImageBatchSize) blocks are produced; each block holds
// the begin-image group, imageBatchSize placeholder tokens (ImagePlaceholderID)
// and the end-image group. The result is a fresh slice ending with tokens, which
// is left unmodified.
//
// The begin and end groups are built with WrapAndTokenize at the same position
// pos, so at the start of a sequence each group carries the BOS prefix.
//
// WrapVLM panics if info is not a vision-language model or if
// maxImageBatchSize is not positive.
func WrapVLM(enc Encoder, info model.Info, pos int, tokens []int,
	imageBatchSize, maxImageBatchSize int) []int {
	if info.Wrapping != model.GemmaVLM {
		panicf("prompt: WrapVLM requires a vision-language model, got wrapping %s", info.Wrapping)
	}
	if maxImageBatchSize <= 0 {
		panicf("prompt: maxImageBatchSize must be positive, got %d", maxImageBatchSize)
	}
	if imageBatchSize < 0 {
		panicf("prompt: negative imageBatchSize %d", imageBatchSize)
	}
	numImages := ceilDiv(imageBatchSize, maxImageBatchSize)
	beginImageTokens := WrapAndTokenize(enc, info, pos, beginImagePrompt)
	endImageTokens := WrapAndTokenize(enc, info, pos, endImagePrompt)

	blockLen := len(beginImageTokens) + imageBatchSize + len(endImageTokens)
	out := make([]int, 0, numImages*blockLen+len(tokens))
	for i := 0; i < numImages; i++ {
		out = append(out, beginImageTokens...)
		for j := 0; j < imageBatchSize; j++ {
			out = append(out, ImagePlaceholderID)
		}
		out = append(out, endImageTokens...)
	}
	return append(out, tokens...)
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
