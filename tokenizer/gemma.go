package tokenizer

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	esentencepiece "github.com/eliben/go-sentencepiece"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/gomlx/go-gemma/hub"
	"github.com/gomlx/go-gemma/model"
)

var tracer = otel.Tracer("github.com/gomlx/go-gemma/tokenizer")

// ShowTokenization enables logging of every token produced by GemmaTokenizer.
// Useful when debugging prompt construction.
var ShowTokenization = false

// ErrNotLoaded is returned by all GemmaTokenizer methods when no model was loaded.
var ErrNotLoaded = errors.New("tokenizer model not loaded")

// GemmaTokenizer implements the Tokenizer interface based on the SentencePiece
// tokenizer by Google, used by the whole Gemma family of models.
//
// The zero value is an unloaded tokenizer whose methods fail with ErrNotLoaded;
// create one with NewGemmaFromPath, NewGemmaFromBytes or, via HuggingFace Hub,
// with New.
type GemmaTokenizer struct {
	proc  *esentencepiece.Processor
	info  *esentencepiece.ModelInfo
	proto []byte
}

// Compile time assert that GemmaTokenizer implements the Tokenizer interface.
var _ Tokenizer = &GemmaTokenizer{}

// NewGemma creates a GemmaTokenizer from the repo's "tokenizer.model" file, which
// must be a SentencePiece model proto.
//
// It implements the Constructor function signature and is registered for the
// "GemmaTokenizer" class.
func NewGemma(config *Config, repo *hub.Repo) (Tokenizer, error) {
	if !repo.HasFile("tokenizer.model") {
		return nil, errors.Errorf("\"tokenizer.model\" file not found in repo %q", repo.ID)
	}
	tokenizerFile, err := repo.DownloadFile("tokenizer.model")
	if err != nil {
		return nil, errors.Wrapf(err, "can't download tokenizer.model file")
	}
	return NewGemmaFromPath(tokenizerFile)
}

// NewGemmaFromPath creates a GemmaTokenizer from a local SentencePiece model file.
func NewGemmaFromPath(path string) (*GemmaTokenizer, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read tokenizer model from %q", path)
	}
	t, err := NewGemmaFromBytes(blob)
	if err != nil {
		return nil, errors.WithMessagef(err, "loading tokenizer model from %q", path)
	}
	return t, nil
}

// NewGemmaFromBytes creates a GemmaTokenizer from the bytes of a SentencePiece
// model proto, e.g. previously returned by GemmaTokenizer.Serialize.
func NewGemmaFromBytes(blob []byte) (*GemmaTokenizer, error) {
	_, span := tracer.Start(context.Background(), "startup.tokenizer")
	defer span.End()

	proc, err := esentencepiece.NewProcessor(bytes.NewReader(blob))
	if err != nil {
		return nil, errors.Wrapf(err, "can't create sentencepiece processor")
	}
	return &GemmaTokenizer{
		proc:  proc,
		info:  proc.ModelInfo(),
		proto: bytes.Clone(blob),
	}, nil
}

// Encode returns the text encoded into a sequence of ids.
//
// The Gemma tokenizer never inserts BOS or EOS, those are managed during prompt
// construction (see the prompt package).
func (t *GemmaTokenizer) Encode(text string) ([]int, error) {
	if t == nil || t.proc == nil {
		return nil, ErrNotLoaded
	}
	tokens := t.proc.Encode(text)
	if ShowTokenization {
		logTokens("Encode", tokens)
	}
	return sliceMap(tokens, func(tok esentencepiece.Token) int { return tok.ID }), nil
}

// EncodePieces returns the text split into the textual sub-word pieces of the
// vocabulary, in the same order Encode assigns ids.
func (t *GemmaTokenizer) EncodePieces(text string) ([]string, error) {
	if t == nil || t.proc == nil {
		return nil, ErrNotLoaded
	}
	tokens := t.proc.Encode(text)
	return sliceMap(tokens, func(tok esentencepiece.Token) string { return tok.Text }), nil
}

// Decode returns the text from a sequence of ids.
//
// Negative ids, like the image placeholder used in vision-language prompts, are
// not part of the vocabulary and fail with an error.
func (t *GemmaTokenizer) Decode(ids []int) (string, error) {
	if t == nil || t.proc == nil {
		return "", ErrNotLoaded
	}
	for _, id := range ids {
		if id < 0 {
			return "", errors.Errorf("cannot decode invalid token id %d", id)
		}
	}
	if ShowTokenization {
		log.Printf("Decode(%v)", ids)
	}
	return t.proc.Decode(ids), nil
}

// SpecialTokenID returns the id for the given special token, or an error if not known.
func (t *GemmaTokenizer) SpecialTokenID(token SpecialToken) (int, error) {
	if t == nil || t.info == nil {
		return 0, ErrNotLoaded
	}
	switch token {
	case TokUnknown:
		return t.info.UnknownID, nil
	case TokPad:
		return t.info.PadID, nil
	case TokBeginningOfSentence:
		return t.info.BeginningOfSentenceID, nil
	case TokEndOfSentence:
		return t.info.EndOfSentenceID, nil
	case TokEndOfTurn:
		// Fixed id in the Gemma vocabularies, not exposed by the model proto metadata.
		return model.EndOfTurnID, nil
	}
	return 0, errors.Errorf("unknown special token: %s (%d)", token, token)
}

// Serialize returns the SentencePiece model proto the tokenizer was loaded from,
// so it can be stored alongside exported model weights.
func (t *GemmaTokenizer) Serialize() []byte {
	if t == nil {
		return nil
	}
	return bytes.Clone(t.proto)
}

func logTokens(op string, tokens []esentencepiece.Token) {
	var b strings.Builder
	for _, tok := range tokens {
		fmt.Fprintf(&b, " %d:%q", tok.ID, tok.Text)
	}
	log.Printf("%s:%s", op, b.String())
}

// sliceMap executes the given function sequentially for every element on in, and returns a mapped slice.
func sliceMap[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}
