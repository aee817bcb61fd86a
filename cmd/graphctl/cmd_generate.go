package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	domainconfig "github.com/jorge6242/graph-builder-api/domain/config"
	domainservices "github.com/jorge6242/graph-builder-api/domain/services"
)

// generateReport is what generate prints
type generateReport struct {
	Strategy   string                         `json:"strategy" yaml:"strategy"`
	Threshold  float64                        `json:"threshold" yaml:"threshold"`
	Topics     []string                       `json:"topics" yaml:"topics"`
	Candidates []domainservices.EdgeCandidate `json:"candidates" yaml:"candidates"`
}

func newGenerateCmd() *cobra.Command {
	var (
		strategy  string
		threshold float64
		format    string
	)

	cmd := &cobra.Command{
		Use:   "generate [label...]",
		Short: "Score topic labels offline and print the edge candidates",
		Long: `Deduplicates the labels and prints every pair scoring at or above the
threshold. Labels come from the arguments, or one per line on stdin when none
are given.`,
		Example: `  graphctl generate "Digital PR" "PR Strategy" SEO
  printf 'Digital PR\nPR Strategy\n' | graphctl generate --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			labels := args
			if len(labels) == 0 {
				var err error
				if labels, err = readLabels(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			report, err := generate(labels, strategy, threshold)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), report, format)
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", domainservices.DefaultStrategyName, "similarity strategy")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.1, "minimum score for an edge, 0..1")
	cmd.Flags().StringVarP(&format, "format", "o", "json", "output format: json or yaml")
	return cmd
}

func generate(labels []string, strategy string, threshold float64) (*generateReport, error) {
	domain := domainconfig.DefaultDomainConfig()
	unique := domainservices.Deduplicate(labels)
	normalized := make([]string, len(unique))
	for i, label := range unique {
		normalized[i] = domainservices.Normalize(label)
	}

	candidates, err := domainservices.NewRelationshipGenerator(nil).Generate(normalized, strategy, threshold)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		candidates[i].Score = domainservices.RoundScore(candidates[i].Score, domain.ScorePrecision)
	}

	return &generateReport{
		Strategy:   strategy,
		Threshold:  threshold,
		Topics:     unique,
		Candidates: candidates,
	}, nil
}

// readLabels reads one label per line, skipping blank lines
func readLabels(r io.Reader) ([]string, error) {
	var labels []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			labels = append(labels, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return labels, nil
}

func writeReport(w io.Writer, report *generateReport, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q, want json or yaml", format)
}
