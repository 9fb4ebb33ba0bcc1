package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"audiosurv/internal/alerts"
	"audiosurv/internal/api"
	"audiosurv/internal/pipeline"
)

func newKeywordsCommand(ctx *commandContext) *cobra.Command {
	keywordsCmd := &cobra.Command{
		Use:     "keywords",
		Aliases: []string{"kw"},
		Short:   "Manage the keyword library",
	}

	keywordsCmd.AddCommand(newKeywordsListCommand(ctx))
	keywordsCmd.AddCommand(newKeywordsAddCommand(ctx))
	keywordsCmd.AddCommand(newKeywordsRemoveCommand(ctx))
	keywordsCmd.AddCommand(newKeywordsAnalyzeCommand(ctx))

	return keywordsCmd
}

func newKeywordsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List keywords",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			list := rt.keywords.List()
			if jsonOutput {
				return writeJSON(cmd, api.FromKeywords(list))
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No keywords")
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(list))
			for _, k := range list {
				rows = append(rows, []string{k.ID, k.Term, renderRating(k.InitialRating, colorize), strconv.Itoa(len(k.Samples))})
			}
			fmt.Fprint(out, renderTable(
				[]string{"ID", "Term", "Rating", "Samples"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newKeywordsAddCommand(ctx *commandContext) *cobra.Command {
	var rating string
	var samples []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "add <term>",
		Short: "Add a keyword with its reference recordings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := api.KeywordRequest{Term: args[0], InitialRating: rating}
			for _, path := range samples {
				audio, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read sample: %w", err)
				}
				name := filepath.Base(path)
				mimeType := pipeline.ResolveMimeType(pipeline.Submission{Audio: audio, Filename: name})
				req.Samples = append(req.Samples, api.AudioSample{Name: name, AudioSrc: pipeline.DataURL(mimeType, audio)})
			}
			keyword, err := api.ToKeyword(req)
			if err != nil {
				return err
			}

			rt, err := ctx.openRuntime(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			added, err := rt.keywords.Add(keyword)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, api.FromKeyword(added))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added keyword %q (%s, %s)\n", added.Term, added.InitialRating, added.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&rating, "rating", string(alerts.ThreatMedium), "Initial threat rating: Low, Medium, or High")
	cmd.Flags().StringArrayVar(&samples, "sample", nil, fmt.Sprintf("Reference recording (repeat %d times)", alerts.RequiredKeywordSamples))
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func newKeywordsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a keyword",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			id := strings.TrimSpace(args[0])
			if !rt.keywords.Remove(id) {
				return fmt.Errorf("keyword %s: %w", id, alerts.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed keyword %s\n", id)
			return nil
		},
	}
}

func newKeywordsAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var transcript string
	var transcriptFile string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "analyze <id>",
		Short: "Analyze a transcript against a keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if transcriptFile != "" {
				data, err := os.ReadFile(transcriptFile)
				if err != nil {
					return fmt.Errorf("read transcript: %w", err)
				}
				transcript = string(data)
			}
			transcript = strings.TrimSpace(transcript)
			if transcript == "" {
				return fmt.Errorf("%w: provide --transcript or --transcript-file", alerts.ErrValidation)
			}

			rt, err := ctx.openRuntime(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer func() { _ = rt.close(cmd.Context()) }()

			id := strings.TrimSpace(args[0])
			keyword, ok := rt.keywords.Get(id)
			if !ok {
				return fmt.Errorf("keyword %s: %w", id, alerts.ErrNotFound)
			}

			backend, err := ctx.openGateway(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.Close()

			result, err := backend.Keywords.KeywordAnalysis(cmd.Context(), keyword, transcript)
			if err != nil {
				return fmt.Errorf("keyword analysis failed: %s", alerts.Message(err))
			}
			if jsonOutput {
				return writeJSON(cmd, api.FromKeywordAnalysis(keyword.Term, result))
			}
			printAlert(cmd.OutOrStdout(), alerts.Alert{
				KeywordDetected:    keyword.Term,
				ThreatRating:       result.ThreatRating,
				SemanticSummary:    result.SemanticSummary,
				FullTranscript:     result.FullTranscript,
				EnglishTranslation: result.EnglishTranslation,
				SlangDetected:      result.SlangDetected,
				AnalysisState:      alerts.StateComplete,
			}, shouldColorize(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().StringVar(&transcript, "transcript", "", "Transcript text to analyze")
	cmd.Flags().StringVar(&transcriptFile, "transcript-file", "", "Read the transcript from a file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
