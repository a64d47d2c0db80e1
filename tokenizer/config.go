package tokenizer

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// AddedToken is one entry of the "added_tokens_decoder" table, describing a token
// injected into the vocabulary after training (e.g. "<start_of_turn>").
type AddedToken struct {
	Content    string `json:"content"`
	Lstrip     bool   `json:"lstrip"`
	Normalized bool   `json:"normalized"`
	Rstrip     bool   `json:"rstrip"`
	SingleWord bool   `json:"single_word"`
	Special    bool   `json:"special"`
}

// Config struct to hold HuggingFace's tokenizer_config.json contents.
// There is no formal schema for this file, these are the fields used by the
// Gemma family of models. Specific tokenizer classes are free to read additional
// fields as they see fit.
//
// The extra field ConfigFile holds the path to the file with the full config.
type Config struct {
	ConfigFile     string
	TokenizerClass string `json:"tokenizer_class"`

	ChatTemplate           string `json:"chat_template"`
	UseDefaultSystemPrompt bool   `json:"use_default_system_prompt"`

	ModelMaxLength float64        `json:"model_max_length"`
	SpModelKwargs  map[string]any `json:"sp_model_kwargs"`

	UnkToken string `json:"unk_token"`
	BosToken string `json:"bos_token"`
	EosToken string `json:"eos_token"`
	PadToken string `json:"pad_token"`

	AddBosToken             bool               `json:"add_bos_token"`
	AddEosToken             bool               `json:"add_eos_token"`
	AddedTokensDecoder      map[int]AddedToken `json:"added_tokens_decoder"`
	AdditionalSpecialTokens []string           `json:"additional_special_tokens"`

	CleanUpTokenizationSpaces  bool `json:"clean_up_tokenization_spaces"`
	SpacesBetweenSpecialTokens bool `json:"spaces_between_special_tokens"`
}

// ParseConfigFile parses the given file (holding a tokenizer_config.json file) into a Config structure.
func ParseConfigFile(filePath string) (*Config, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read file %q", filePath)
	}
	config, err := ParseConfigContent(content)
	if err != nil {
		return nil, errors.WithMessagef(err, "read from file %q", filePath)
	}
	config.ConfigFile = filePath
	return config, nil
}

// ParseConfigContent parses the given json content (of a tokenizer_config.json file) into a Config structure.
func ParseConfigContent(jsonContent []byte) (*Config, error) {
	config := &Config{}
	err := json.Unmarshal(jsonContent, config)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse tokenizer_config json content")
	}
	return config, nil
}
