package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sentiment-backend/internal/analyses"
	"sentiment-backend/internal/extract"
	"sentiment-backend/internal/sentiment"
)

type rootOptions struct {
	lexicon string
}

type analyzeOptions struct {
	model   string
	keyword string
	file    string
	pace    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "sentiment",
		Short:         "Score text sentiment and topics with the lexicon analyzer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.lexicon, "lexicon", os.Getenv("LEXICON_FILE"), "YAML lexicon file (default: built-in lexicon)")

	cmd.AddCommand(newAnalyzeCmd(opts), newTopicsCmd(opts))
	return cmd
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze [text|-]",
		Short: "Analyze text given as an argument, from stdin (-) or from --file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args, opts.file)
			if err != nil {
				return err
			}
			svc, err := newService(root.lexicon, opts.pace)
			if err != nil {
				return err
			}
			res, err := svc.AnalyzeText(cmd.Context(), text, opts.model, opts.keyword)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&opts.model, "model", "m", string(sentiment.ModeBasic), "analysis model: basic, advanced or blockchain")
	cmd.Flags().StringVarP(&opts.keyword, "keyword", "k", "", "only analyze sentences containing this keyword")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "read text from a .txt, .csv, .md, .pdf or .docx file")
	cmd.Flags().BoolVar(&opts.pace, "pace", false, "apply the per-model processing delays")
	return cmd
}

func newTopicsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List the topic categories and their keywords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService(root.lexicon, false)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"topics": svc.Topics()})
		},
	}
}

func newService(lexiconPath string, pace bool) (*analyses.Service, error) {
	lex, err := sentiment.LoadLexicon(lexiconPath)
	if err != nil {
		return nil, err
	}
	analyzer, err := sentiment.NewAnalyzer(lex, nil)
	if err != nil {
		return nil, err
	}
	if pace {
		analyzer.Pacing = sentiment.DefaultPacing()
	}
	return &analyses.Service{Analyzer: analyzer}, nil
}

func readInput(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("pass either text or --file, not both")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		// the extractor picks the format from the extension or the content
		return extract.ExtractTextFromBytes(cmd.Context(), data, "", filepath.Base(file))
	case len(args) == 0 || args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	default:
		return args[0], nil
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
