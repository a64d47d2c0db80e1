package tokenizer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomlx/go-gemma/hub"
	"github.com/gomlx/go-gemma/model"
)

// Abridged from google/gemma-2-2b-it.
const sampleConfig = `{
  "add_bos_token": true,
  "add_eos_token": false,
  "added_tokens_decoder": {
    "0": {"content": "<pad>", "lstrip": false, "normalized": false, "rstrip": false, "single_word": false, "special": true},
    "1": {"content": "<eos>", "lstrip": false, "normalized": false, "rstrip": false, "single_word": false, "special": true},
    "2": {"content": "<bos>", "lstrip": false, "normalized": false, "rstrip": false, "single_word": false, "special": true},
    "106": {"content": "<start_of_turn>", "lstrip": false, "normalized": false, "rstrip": false, "single_word": false, "special": true},
    "107": {"content": "<end_of_turn>", "lstrip": false, "normalized": false, "rstrip": false, "single_word": false, "special": true}
  },
  "additional_special_tokens": ["<start_of_turn>", "<end_of_turn>"],
  "bos_token": "<bos>",
  "clean_up_tokenization_spaces": false,
  "eos_token": "<eos>",
  "model_max_length": 8192,
  "pad_token": "<pad>",
  "sp_model_kwargs": {},
  "spaces_between_special_tokens": false,
  "tokenizer_class": "GemmaTokenizer",
  "unk_token": "<unk>"
}`

func TestParseConfigContent(t *testing.T) {
	config, err := ParseConfigContent([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "GemmaTokenizer", config.TokenizerClass)
	assert.Equal(t, "<bos>", config.BosToken)
	assert.Equal(t, "<eos>", config.EosToken)
	assert.Equal(t, "<pad>", config.PadToken)
	assert.Equal(t, "<unk>", config.UnkToken)
	assert.True(t, config.AddBosToken)
	assert.False(t, config.AddEosToken)
	assert.Equal(t, float64(8192), config.ModelMaxLength)
	assert.Equal(t, []string{"<start_of_turn>", "<end_of_turn>"}, config.AdditionalSpecialTokens)
	assert.Equal(t, "<end_of_turn>", config.AddedTokensDecoder[model.EndOfTurnID].Content)

	_, err = ParseConfigContent([]byte("not json"))
	assert.Error(t, err)
}

func TestParseConfigFile(t *testing.T) {
	configFile := fmt.Sprintf("%s/tokenizer_config.json", t.TempDir())
	require.NoError(t, os.WriteFile(configFile, []byte(sampleConfig), 0644))

	config, err := ParseConfigFile(configFile)
	require.NoError(t, err)
	assert.Equal(t, configFile, config.ConfigFile)
	assert.Equal(t, "GemmaTokenizer", config.TokenizerClass)

	_, err = ParseConfigFile(configFile + ".missing")
	assert.Error(t, err)
}

func TestGemmaClassIsRegistered(t *testing.T) {
	_, found := registerOfClasses["GemmaTokenizer"]
	assert.True(t, found)
}

func TestUnloadedTokenizer(t *testing.T) {
	var unloaded *GemmaTokenizer
	for _, tok := range []*GemmaTokenizer{unloaded, {}} {
		_, err := tok.Encode("hello")
		assert.ErrorIs(t, err, ErrNotLoaded)
		_, err = tok.EncodePieces("hello")
		assert.ErrorIs(t, err, ErrNotLoaded)
		_, err = tok.Decode([]int{2, 3})
		assert.ErrorIs(t, err, ErrNotLoaded)
		_, err = tok.SpecialTokenID(TokBeginningOfSentence)
		assert.ErrorIs(t, err, ErrNotLoaded)
	}
	assert.Nil(t, unloaded.Serialize())
}

func TestNewGemmaFromBytesRejectsGarbage(t *testing.T) {
	_, err := NewGemmaFromBytes([]byte("this is not a sentencepiece model"))
	assert.Error(t, err)
}

func TestNewGemmaFromPathMissingFile(t *testing.T) {
	_, err := NewGemmaFromPath("/does/not/exist/tokenizer.model")
	assert.Error(t, err)
}

func TestSpecialTokenString(t *testing.T) {
	assert.Equal(t, "beginning_of_sentence", TokBeginningOfSentence.String())
	assert.Equal(t, "end_of_turn", TokEndOfTurn.String())
	assert.Equal(t, "invalid_special_token", TokSpecialTokensCount.String())
}

// seedRepo creates a Repo backed by a pre-populated local cache, so the hub
// loading path runs without touching the network.
func seedRepo(t *testing.T, repoID, commitHash string, repoFiles map[string]string) *hub.Repo {
	t.Helper()
	cacheDir := t.TempDir()
	repo := hub.New(repoID).WithCacheDir(cacheDir).WithVerbosity(0)

	flat := "models--" + strings.ReplaceAll(repoID, "/", "--")
	infoDir := filepath.Join(cacheDir, flat, "info")
	require.NoError(t, os.MkdirAll(infoDir, 0755))
	siblings := make([]string, 0, len(repoFiles))
	for name := range repoFiles {
		siblings = append(siblings, fmt.Sprintf(`{"rfilename": %q}`, name))
	}
	infoJson := fmt.Sprintf(`{"id": %q, "sha": %q, "siblings": [%s]}`,
		repoID, commitHash, strings.Join(siblings, ", "))
	require.NoError(t, os.WriteFile(filepath.Join(infoDir, "main"), []byte(infoJson), 0644))

	snapshotDir := filepath.Join(cacheDir, flat, "snapshots", commitHash)
	require.NoError(t, os.MkdirAll(snapshotDir, 0755))
	for name, content := range repoFiles {
		require.NoError(t, os.WriteFile(filepath.Join(snapshotDir, name), []byte(content), 0644))
	}
	return repo
}

func TestNewUnknownTokenizerClass(t *testing.T) {
	repo := seedRepo(t, "test/custom-model", "0123456789abcdef", map[string]string{
		"tokenizer_config.json": `{"tokenizer_class": "T5Tokenizer"}`,
	})
	_, err := New(repo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown tokenizer class "T5Tokenizer"`)
}

func TestNewMissingModelFile(t *testing.T) {
	repo := seedRepo(t, "test/no-model", "0123456789abcdef", map[string]string{
		"tokenizer_config.json": sampleConfig,
	})
	_, err := New(repo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tokenizer.model")
}

// loadTestTokenizer loads a real Gemma tokenizer model if one is available, the
// path is taken from the GEMMA_TOKENIZER_MODEL environment variable.
func loadTestTokenizer(t *testing.T) *GemmaTokenizer {
	path := os.Getenv("GEMMA_TOKENIZER_MODEL")
	if path == "" {
		t.Skip("GEMMA_TOKENIZER_MODEL not set, skipping test that requires a real tokenizer model")
	}
	tok, err := NewGemmaFromPath(path)
	require.NoError(t, err)
	return tok
}

func TestGemmaTokenizerRoundTrip(t *testing.T) {
	tok := loadTestTokenizer(t)
	for _, text := range []string{
		"My name is Wolfgang and I live in Berlin.",
		"Describe this scene.",
		"multi\nline\ntext",
	} {
		ids, err := tok.Encode(text)
		require.NoError(t, err)
		require.NotEmpty(t, ids)
		fmt.Printf("\t%q -> %v\n", text, ids)

		decoded, err := tok.Decode(ids)
		require.NoError(t, err)
		assert.Equal(t, text, decoded)

		pieces, err := tok.EncodePieces(text)
		require.NoError(t, err)
		assert.Len(t, pieces, len(ids))
	}
}

func TestGemmaTokenizerSpecialTokens(t *testing.T) {
	tok := loadTestTokenizer(t)
	bos, err := tok.SpecialTokenID(TokBeginningOfSentence)
	require.NoError(t, err)
	assert.Equal(t, model.BosID, bos)
	eos, err := tok.SpecialTokenID(TokEndOfSentence)
	require.NoError(t, err)
	assert.Equal(t, model.EosID, eos)
	pad, err := tok.SpecialTokenID(TokPad)
	require.NoError(t, err)
	assert.Equal(t, model.PadID, pad)

	_, err = tok.SpecialTokenID(TokSpecialTokensCount)
	assert.Error(t, err)
}

func TestGemmaTokenizerRejectsPlaceholders(t *testing.T) {
	tok := loadTestTokenizer(t)
	_, err := tok.Decode([]int{2, -2, 1})
	assert.Error(t, err)
}

func TestGemmaTokenizerSerialize(t *testing.T) {
	tok := loadTestTokenizer(t)
	blob := tok.Serialize()
	require.NotEmpty(t, blob)

	reloaded, err := NewGemmaFromBytes(blob)
	require.NoError(t, err)
	ids1, err := tok.Encode("serialize and back")
	require.NoError(t, err)
	ids2, err := reloaded.Encode("serialize and back")
	require.NoError(t, err)
	assert.Equal(t, ids1, ids2)
}
