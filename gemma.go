// Package gemma only holds the version of the set of tools to build Gemma prompts and token
// sequences in Go.
//
// There are 4 main sub-packages:
//
//   - model: Gemma model metadata, prompt wrapping modes and the turn templates.
//   - tokenizer: SentencePiece tokenizers for Gemma, loaded from local files or HuggingFace Hub.
//   - prompt: converts wrapped prompts to token sequences, including vision-language prompts.
//   - hub: to download files from HuggingFace Hub, be it tokenizer models, configs, etc.
package gemma

// Version of the library.
// Manually kept in sync with project releases.
var Version = "v0.0.0-dev"
