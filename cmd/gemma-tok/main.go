// gemma-tok is a command line tool to inspect Gemma tokenization and prompt
// construction: it encodes prompts the way a given Gemma model expects them
// (turn templates, BOS, separators, image token blocks) and decodes token ids
// back to text.
//
// The tokenizer model is loaded from a local file (--tokenizer) or downloaded
// from a HuggingFace repository (--repo). Gemma repositories are gated, so
// downloads usually require a token in $HF_TOKEN.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gomlx/go-gemma/hub"
	"github.com/gomlx/go-gemma/internal/tracing"
	"github.com/gomlx/go-gemma/tokenizer"
)

var (
	flagTokenizerPath string
	flagRepoID        string
	flagAuthToken     string
	flagCacheDir      string
	flagVerbosity     int
	flagTrace         bool
)

// traceShutdown flushes pending spans at exit, set when --trace is given.
var traceShutdown func()

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gemma-tok",
		Short: "Tokenize and build Gemma prompts from the command line",
		Long: `gemma-tok encodes prompts the way Gemma models expect them and decodes
token ids back to text.

Encoding applies the model's prompt wrapping: instruction-tuned models get the
turn template, PaliGemma gets its trailing separator, and vision-language
models can have image token blocks prepended with --images.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagVerbosity >= 2 {
				tokenizer.ShowTokenization = true
			}
			if !flagTrace {
				return nil
			}
			tr, err := tracing.New(cmd.Context(), tracing.Config{
				Enabled:      true,
				ExporterType: tracing.ExporterStdout,
				ServiceName:  "gemma-tok",
				Environment:  "cli",
				SampleRate:   1.0,
				Output:       os.Stderr,
			})
			if err != nil {
				return err
			}
			traceShutdown = func() { _ = tr.Shutdown(context.Background()) }
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flagTokenizerPath, "tokenizer", "t", "",
		"path to a local tokenizer.model file")
	rootCmd.PersistentFlags().StringVarP(&flagRepoID, "repo", "r", "google/gemma-2-2b-it",
		"HuggingFace repository to load the tokenizer from, when --tokenizer is not given")
	rootCmd.PersistentFlags().StringVar(&flagAuthToken, "auth", os.Getenv("HF_TOKEN"),
		"HuggingFace authentication token, defaults to $HF_TOKEN")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "",
		"override the HuggingFace cache directory")
	rootCmd.PersistentFlags().IntVarP(&flagVerbosity, "verbosity", "v", 1,
		"0 for quiet, 1 for progress information, 2 and higher for debugging")
	rootCmd.PersistentFlags().BoolVar(&flagTrace, "trace", false,
		"print OpenTelemetry spans of the execution to stderr")

	rootCmd.AddCommand(newEncodeCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newInfoCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// loadTokenizer loads the tokenizer selected by the global flags.
func loadTokenizer() (tokenizer.Tokenizer, error) {
	if flagTokenizerPath != "" {
		return tokenizer.NewGemmaFromPath(flagTokenizerPath)
	}
	return tokenizer.New(newRepo())
}

// newRepo creates the HuggingFace repo reference selected by the global flags.
func newRepo() *hub.Repo {
	repo := hub.New(flagRepoID).WithAuth(flagAuthToken).WithVerbosity(flagVerbosity)
	if flagCacheDir != "" {
		repo = repo.WithCacheDir(flagCacheDir)
	}
	return repo
}

func main() {
	err := newRootCmd().Execute()
	if traceShutdown != nil {
		traceShutdown()
	}
	if err != nil {
		if flagVerbosity >= 2 {
			fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
