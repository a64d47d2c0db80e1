package main

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gomlx/go-gemma"
	"github.com/gomlx/go-gemma/model"
	"github.com/gomlx/go-gemma/prompt"
	"github.com/gomlx/go-gemma/tokenizer"
)

func newEncodeCmd() *cobra.Command {
	var (
		modelSpec         string
		pos               int
		pieces            bool
		imageBatchSize    int
		maxImageBatchSize int
	)
	cmd := &cobra.Command{
		Use:   "encode [flags] PROMPT",
		Short: "Wrap and tokenize a prompt the way the model expects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := model.ParseSpec(modelSpec)
			if err != nil {
				return err
			}
			tok, err := loadTokenizer()
			if err != nil {
				return err
			}

			if pieces {
				ps, err := tok.EncodePieces(model.Wrap(info, pos, args[0]))
				if err != nil {
					return err
				}
				return json.NewEncoder(os.Stdout).Encode(ps)
			}

			tokens := prompt.WrapAndTokenize(tok, info, pos, args[0])
			if imageBatchSize > 0 {
				if info.Wrapping != model.GemmaVLM {
					return errors.Errorf("--image-batch requires a vision-language model, but %q uses the %s wrapping",
						info.Name, info.Wrapping)
				}
				tokens = prompt.WrapVLM(tok, info, pos, tokens, imageBatchSize, maxImageBatchSize)
			}
			return json.NewEncoder(os.Stdout).Encode(tokens)
		},
	}
	cmd.Flags().StringVarP(&modelSpec, "model", "m", "gemma2-2b-it",
		"model specification, selects the prompt wrapping (e.g. gemma2-2b-it, paligemma-3b-mix-224, gemma3-4b)")
	cmd.Flags().IntVarP(&pos, "pos", "p", 0,
		"sequence position of the prompt, 0 starts a new sequence and prepends BOS")
	cmd.Flags().BoolVar(&pieces, "pieces", false,
		"print the textual sub-word pieces instead of token ids")
	cmd.Flags().IntVar(&imageBatchSize, "image-batch", 0,
		"image batch size for vision-language models, prepends the image token blocks")
	cmd.Flags().IntVar(&maxImageBatchSize, "max-image-batch", 1,
		"maximum images processed per batch, determines the number of image blocks")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode TOKEN...",
		Short: "Decode a sequence of token ids back to text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, len(args))
			for ii, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil {
					return errors.Wrapf(err, "invalid token id %q", arg)
				}
				ids[ii] = id
			}
			tok, err := loadTokenizer()
			if err != nil {
				return err
			}
			text, err := tok.Decode(ids)
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
}

func newInfoCmd() *cobra.Command {
	var modelSpec string
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show tokenizer and prompt wrapping information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if modelSpec != "" {
				info, err := model.ParseSpec(modelSpec)
				if err != nil {
					return err
				}
				fmt.Printf("model:            %s\n", info.Name)
				fmt.Printf("prompt wrapping:  %s\n", info.Wrapping)
				fmt.Printf("vision:           %v\n", info.Wrapping.Vision())
			}

			modelPath := flagTokenizerPath
			if modelPath == "" {
				repo := newRepo()
				config, err := tokenizer.GetConfig(repo)
				if err != nil {
					return err
				}
				fmt.Printf("repo:             %s\n", flagRepoID)
				fmt.Printf("tokenizer class:  %s\n", config.TokenizerClass)
				if config.ModelMaxLength > 0 {
					fmt.Printf("model max length: %.0f\n", config.ModelMaxLength)
				}
				if repo.HasFile("tokenizer.model") {
					if modelPath, err = repo.DownloadFile("tokenizer.model"); err != nil {
						return err
					}
				}
			}
			if fi, err := os.Stat(modelPath); err == nil {
				fmt.Printf("tokenizer model:  %s (%s)\n", modelPath, humanize.Bytes(uint64(fi.Size())))
			}

			tok, err := loadTokenizer()
			if err != nil {
				return err
			}
			for _, special := range []tokenizer.SpecialToken{
				tokenizer.TokBeginningOfSentence,
				tokenizer.TokEndOfSentence,
				tokenizer.TokPad,
				tokenizer.TokUnknown,
				tokenizer.TokEndOfTurn,
			} {
				id, err := tok.SpecialTokenID(special)
				if err != nil {
					return err
				}
				fmt.Printf("%-22s %d\n", special.String()+":", id)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&modelSpec, "model", "m", "",
		"also show the prompt wrapping for this model specification")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gemma-tok %s (%s)\n", gemma.Version, runtime.Version())
		},
	}
}
