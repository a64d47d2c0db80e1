// Package tokenizer creates the SentencePiece tokenizers used by Gemma models.
//
// Tokenizers can be loaded from a local "tokenizer.model" file (or its raw bytes)
// or from a HuggingFace repository (see hub.New to create one), in which case the
// repo's "tokenizer_config.json" selects the tokenizer class to instantiate.
package tokenizer

import (
	"github.com/pkg/errors"

	"github.com/gomlx/go-gemma/hub"
)

// Tokenizer interface allows one to convert text to "tokens" (integer ids) and back.
//
// It also allows mapping of special tokens: tokens with a common semantic (like
// padding) but that may map to different ids (int) for different vocabularies.
//
// All methods fail with an error when the tokenizer model was not loaded.
type Tokenizer interface {
	Encode(text string) ([]int, error)
	EncodePieces(text string) ([]string, error)
	Decode(ids []int) (string, error)

	// SpecialTokenID returns the id for the given special token if registered,
	// or an error if not.
	SpecialTokenID(token SpecialToken) (int, error)
}

// SpecialToken is an enum of commonly used special tokens.
type SpecialToken int

const (
	TokBeginningOfSentence SpecialToken = iota
	TokEndOfSentence
	TokUnknown
	TokPad
	TokEndOfTurn
	TokSpecialTokensCount
)

// String implements fmt.Stringer.
func (s SpecialToken) String() string {
	switch s {
	case TokBeginningOfSentence:
		return "beginning_of_sentence"
	case TokEndOfSentence:
		return "end_of_sentence"
	case TokUnknown:
		return "unknown"
	case TokPad:
		return "pad"
	case TokEndOfTurn:
		return "end_of_turn"
	}
	return "invalid_special_token"
}

// Constructor is used by Tokenizer implementations to provide implementations for
// different tokenizer classes ("tokenizer_class" in tokenizer_config.json).
type Constructor func(config *Config, repo *hub.Repo) (Tokenizer, error)

var registerOfClasses = make(map[string]Constructor)

// Register a constructor for the given tokenizer class name.
// Used by Tokenizer implementations.
func Register(className string, constructor Constructor) {
	registerOfClasses[className] = constructor
}

func init() {
	Register("GemmaTokenizer", NewGemma)
}

// New creates a new Tokenizer from the given HuggingFace repo (see hub.New).
//
// It downloads the repo's "tokenizer_config.json" to find the tokenizer class and
// dispatches to the registered constructor, which downloads whatever model files
// it needs. If the files cannot be fetched, or the class is unknown, it returns
// an error.
func New(repo *hub.Repo) (Tokenizer, error) {
	if err := repo.DownloadInfo(false); err != nil {
		return nil, err
	}
	config, err := GetConfig(repo)
	if err != nil {
		return nil, err
	}
	constructor, found := registerOfClasses[config.TokenizerClass]
	if !found {
		return nil, errors.Errorf("unknown tokenizer class %q in %q", config.TokenizerClass, repo.ID)
	}
	return constructor(config, repo)
}

// GetConfig returns the parsed "tokenizer_config.json" Config object for the repo.
func GetConfig(repo *hub.Repo) (*Config, error) {
	if err := repo.DownloadInfo(false); err != nil {
		return nil, err
	}
	localConfigFile, err := repo.DownloadFile("tokenizer_config.json")
	if err != nil {
		return nil, err
	}
	return ParseConfigFile(localConfigFile)
}
