package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"funnel_copy_generator/generator"
	"funnel_copy_generator/project"
	"funnel_copy_generator/prompt"
	"funnel_copy_generator/quality"
	"funnel_copy_generator/render"
	"funnel_copy_generator/server"
	"funnel_copy_generator/steps"
)

var (
	serveAddr string

	stepsFunnel  string
	stepsVariant string
	stepsPresets []string

	generateOut     string
	generateJSON    bool
	generateTimeout time.Duration

	sectionsVariant string
	sectionsPlain   bool
	sectionsWidth   int
	sectionsHTML    bool

	scoreSnapshot string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		agent, err := buildAgent(cmd.Context())
		if err != nil {
			return err
		}
		srv, err := server.New(agent, logger)
		if err != nil {
			return err
		}
		listen := cfg.ServerAddr
		if serveAddr != "" {
			listen = serveAddr
		}
		if listen == "" {
			listen = ":8080"
		}
		logger.Info("starting web server", zap.String("addr", listen))
		return http.ListenAndServe(listen, srv.Routes())
	},
}

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "Print the wizard steps for a funnel, variant and presets",
	Example: `  funnelcopy steps --funnel webinar
  funnelcopy steps --funnel launch --variant campaign_kit --preset expert,product`,
	RunE: func(cmd *cobra.Command, args []string) error {
		funnel := project.FunnelType(stepsFunnel)
		if !funnel.Valid() {
			return fmt.Errorf("unknown funnel %q (valid: %v)", stepsFunnel, project.FunnelTypes)
		}
		variant := project.Variant(stepsVariant)
		if !variant.Valid() {
			return fmt.Errorf("unknown variant %q", stepsVariant)
		}
		presets, err := parsePresets(stepsPresets)
		if err != nil {
			return err
		}
		for i, id := range steps.Resolve(funnel, variant, presets) {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d  %s\n", i+1, id)
		}
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <snapshot.json>",
	Short: "Generate copy for a project snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := readSnapshot(args[0])
		if err != nil {
			return err
		}
		agent, err := buildAgent(cmd.Context())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), generateTimeout)
		defer cancel()
		logger.Info("generating", zap.String("project", snap.ProjectID), zap.String("funnel", string(snap.Funnel)), zap.String("variant", string(snap.Variant)))
		res, err := agent.Generate(ctx, snap)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if generateOut != "" {
			f, err := os.Create(generateOut)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}
		if generateJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		if _, err := fmt.Fprintln(out, res.Content); err != nil {
			return err
		}
		printScore(cmd, res.Validation, res.EstimatedConversion)
		return nil
	},
}

var sectionsCmd = &cobra.Command{
	Use:   "sections <document.md>",
	Short: "Split a stored document into its sections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		variant := project.Variant(sectionsVariant)
		if !variant.Valid() {
			return fmt.Errorf("unknown variant %q", sectionsVariant)
		}
		agent, err := buildOfflineAgent()
		if err != nil {
			return err
		}
		parsed, reg := agent.Sections(variant, string(data))

		if sectionsHTML {
			panes, err := render.Panes(parsed, reg)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(panes)
		}
		text, err := render.Terminal{Width: sectionsWidth, Plain: sectionsPlain}.Render(parsed, reg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score <document.md>",
	Short: "Score a document against its project snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var snap project.Snapshot
		if scoreSnapshot != "" {
			if snap, err = readSnapshot(scoreSnapshot); err != nil {
				return err
			}
		}
		card := quality.Score(string(data), snap)
		printScore(cmd, card, quality.EstimateConversion(card, snap))
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server_addr)")

	stepsCmd.Flags().StringVar(&stepsFunnel, "funnel", string(project.FunnelSalesPage), "funnel type")
	stepsCmd.Flags().StringVar(&stepsVariant, "variant", "", "variant: express, auto_brief or campaign_kit")
	stepsCmd.Flags().StringSliceVar(&stepsPresets, "preset", nil, "pillars sourced from presets: expert, audience, persuasion, product")

	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "write the document to this file")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "print the full result as JSON")
	generateCmd.Flags().DurationVar(&generateTimeout, "timeout", 5*time.Minute, "overall generation timeout")

	sectionsCmd.Flags().StringVar(&sectionsVariant, "variant", string(project.VariantCampaignKit), "variant whose marker registry applies")
	sectionsCmd.Flags().BoolVar(&sectionsPlain, "plain", false, "disable ANSI styling")
	sectionsCmd.Flags().IntVar(&sectionsWidth, "width", 80, "word wrap width")
	sectionsCmd.Flags().BoolVar(&sectionsHTML, "html", false, "print sections as HTML panes (JSON)")

	scoreCmd.Flags().StringVar(&scoreSnapshot, "snapshot", "", "snapshot JSON the document was generated from")
}

func buildAgent(ctx context.Context) (*generator.Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	llm, err := generator.NewLLM(ctx, cfg.LLMSettings())
	if err != nil {
		return nil, err
	}
	return newAgent(llm)
}

// buildOfflineAgent serves commands that never call the model.
func buildOfflineAgent() (*generator.Agent, error) {
	return newAgent(generator.MockLLM{})
}

func newAgent(llm generator.LLMClient) (*generator.Agent, error) {
	orch, err := generator.NewOrchestrator(llm, prompt.Default(), generator.Options{
		CallTimeout: cfg.CallTimeout(),
		Retry:       cfg.RetryPolicy(),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	return generator.NewAgent(orch, generator.AgentOptions{
		Registries: cfg.Registries(),
		Budgets:    cfg.Budgets(),
		Logger:     logger,
	})
}

func readSnapshot(path string) (project.Snapshot, error) {
	var snap project.Snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return snap, nil
}

func parsePresets(names []string) (project.PresetFlags, error) {
	var p project.PresetFlags
	for _, n := range names {
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "expert":
			p.Expert = true
		case "audience":
			p.Audience = true
		case "persuasion":
			p.Persuasion = true
		case "product":
			p.Product = true
		default:
			return p, fmt.Errorf("unknown preset %q", n)
		}
	}
	return p, nil
}

func printScore(cmd *cobra.Command, card quality.ScoreCard, conv quality.Conversion) {
	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "score %d (%s)  expert %d  audience %d  offer %d\n",
		card.OverallScore, card.Grade, card.PillarScores[0], card.PillarScores[1], card.PillarScores[2])
	fmt.Fprintf(w, "estimated conversion %.2f%% - %.2f%%\n", conv.Min, conv.Max)
	for _, s := range card.Suggestions {
		fmt.Fprintf(w, "  - %s\n", s)
	}
}
