package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/permitcheck/internal/model"
	"github.com/ppiankov/permitcheck/internal/validate"
)

var (
	outJSON     string
	outMD       string
	inputFile   string
	timeout     time.Duration
	noFooter    bool
	llmEnabled  bool
	llmProvider string
	llmModel    string

	property validate.PropertyInput
	proposal validate.ProposalInput
)

// Measurement and tri-state flags, copied into the proposal only when set
var (
	measureFlags = map[string]**float64{
		"depth":                &proposal.ExtensionDepth,
		"height":               &proposal.ExtensionHeight,
		"ridge-height":         &proposal.ExistingRidgeHeight,
		"roof-volume":          &proposal.RoofVolume,
		"rooflight-projection": &proposal.RooflightProjection,
		"porch-area":           &proposal.PorchArea,
		"porch-height":         &proposal.PorchHeight,
		"outbuilding-height":   &proposal.OutbuildingHeight,
		"boundary-distance":    &proposal.DistanceFromBoundary,
		"garden-used":          &proposal.GardenAreaUsed,
		"garden-total":         &proposal.GardenAreaTotal,
		"boundary-height":      &proposal.BoundaryHeight,
	}
	switchFlags = map[string]**bool{
		"double-storey":    &proposal.DoubleStorey,
		"dual-pitched":     &proposal.DualPitchedRoof,
		"adjacent-highway": &proposal.AdjacentToHighway,
	}
	measureValues = map[string]*float64{}
	switchValues  = map[string]*bool{}
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [description]",
	Short: "Check a single proposal against permitted development rules",
	Long: `Check decides one proposal:
- Resolve the heritage overlay (listed building, conservation area, Article 4)
- Classify the proposal into GPDO rule classes
- Evaluate each class's conditions and recompute the numeric limits
- Compose the determination and name the rule that decided it

The proposal comes from flags, or from a JSON/YAML request file with --input.

Example:
  permitcheck check "single storey rear extension" --property-type semi_detached --depth 5
  permitcheck check "rear dormer" --property-type terraced --conservation-area Belsize --md report.md
  permitcheck check --input request.json --json result.json
  permitcheck check "loft conversion" --property-type detached --roof-volume 45 --llm`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	f := checkCmd.Flags()

	// Output flags
	f.StringVar(&outJSON, "json", "", "output JSON path (\"-\" for stdout; default stdout when no output is given)")
	f.StringVar(&outMD, "md", "", "output Markdown path (optional)")
	f.StringVar(&inputFile, "input", "", "read the request from a JSON or YAML file instead of flags")
	f.DurationVar(&timeout, "timeout", 1*time.Minute, "overall timeout (bounds narrative generation)")
	f.BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Property flags
	f.StringVar(&property.PropertyType, "property-type", "", "detached, semi_detached, terraced or flat")
	f.StringVar(&property.ListedGrade, "listed-grade", "", "listed building grade: I, II*, II (omit when not listed)")
	f.BoolVar(&property.InConservationArea, "in-conservation-area", false, "property is in a conservation area")
	f.StringVar(&property.ConservationArea, "conservation-area", "", "conservation area name (implies --in-conservation-area)")
	f.BoolVar(&property.HasArticle4, "article4", false, "an Article 4 direction applies")
	f.StringVar(&property.Article4Area, "article4-area", "", "name of the Article 4 direction (implies --article4)")
	f.BoolVar(&property.PreviouslyExtended, "previously-extended", false, "the house has been extended before")

	// Proposal flags
	f.StringVar(&proposal.Type, "type", "", "explicit proposal type (rear_extension, dormer, porch, outbuilding, ...)")
	f.StringVar(&proposal.ExtensionLocation, "location", "", "extension elevation: front, rear or side")
	f.StringVar(&proposal.DormerLocation, "dormer-location", "", "dormer elevation: front, rear or side")
	f.StringVar(&proposal.CurrentUse, "current-use", "", "current use class for a change of use (C3, C4, E, ...)")
	f.StringVar(&proposal.ProposedUse, "proposed-use", "", "proposed use class for a change of use")

	for name := range measureFlags {
		measureValues[name] = f.Float64(name, 0, measureHelp(name))
	}
	for name := range switchFlags {
		switchValues[name] = f.Bool(name, false, strings.ReplaceAll(name, "-", " "))
	}

	// LLM flags
	f.BoolVar(&llmEnabled, "llm", false, "add a plain-English narrative (never changes the determination)")
	f.StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, ollama)")
	f.StringVar(&llmModel, "llm-model", "", "LLM model name (default gpt-4o-mini for openai, llama3.1 for ollama)")
}

func measureHelp(name string) string {
	unit := "metres"
	switch {
	case strings.HasSuffix(name, "area"), strings.HasPrefix(name, "garden"):
		unit = "square metres"
	case name == "roof-volume":
		unit = "cubic metres"
	}
	return fmt.Sprintf("%s (%s)", strings.ReplaceAll(name, "-", " "), unit)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := buildRequest(cmd.Flags(), args)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	cfg := loadConfig()
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	applyLLMFlags(cmd.Flags(), cfg)

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Catalog: %s\n", p.Catalog().Version())
		fmt.Fprintf(os.Stderr, "Property: %s\n", req.PropertyContext().Type)
		fmt.Fprintf(os.Stderr, "Proposal: %s\n", req.ProposalRequest().Description)
		fmt.Fprintln(os.Stderr)
	}

	result := p.CheckWithNarrative(ctx, req.PropertyContext(), req.ProposalRequest())

	if cfg.Output.Verbose && result.Narrative != nil && result.Narrative.Enabled {
		fmt.Fprintf(os.Stderr, "✓ Generated narrative using %s/%s\n", result.Narrative.Provider, result.Narrative.Model)
	}

	jsonPath := outJSON
	if jsonPath == "" && outMD == "" {
		jsonPath = "-"
	}
	if err := p.RenderReport(result, jsonPath, outMD, cfg.Output.Verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// buildRequest reads the request from --input, or assembles it from flags
func buildRequest(flags *pflag.FlagSet, args []string) (*validate.CheckRequest, error) {
	if inputFile != "" {
		return readRequestFile(inputFile)
	}

	for name, target := range measureFlags {
		if flags.Changed(name) {
			v := *measureValues[name]
			*target = &v
		}
	}
	for name, target := range switchFlags {
		if flags.Changed(name) {
			v := *switchValues[name]
			*target = &v
		}
	}

	req := &validate.CheckRequest{Property: property, Proposal: proposal}
	if len(args) == 1 {
		req.Proposal.Description = args[0]
	}
	return req, nil
}

// applyLLMFlags makes the narrative opt-in per invocation. Explicit flags win over the config file.
func applyLLMFlags(flags *pflag.FlagSet, cfg *model.Config) {
	if !llmEnabled {
		cfg.LLM.Provider = ""
		return
	}
	if flags.Changed("llm-provider") || cfg.LLM.Provider == "" {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
}

func readRequestFile(path string) (*validate.CheckRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}

	var req validate.CheckRequest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &req)
	default:
		err = json.Unmarshal(data, &req)
	}
	if err != nil {
		return nil, fmt.Errorf("parse request %s: %w", filepath.Base(path), err)
	}
	return &req, nil
}
