// Copyright 2026 Revisia Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/revisia/auditctx"
	"github.com/revisia/auditctx/ai"
	"github.com/revisia/auditctx/core"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "auditctx",
		Usage: "Hybrid retrieval and context building for audit findings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "seed",
				Usage:  "Load findings from a JSON file into the store",
				Action: seedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to a JSON file with an array of findings",
						Required: true,
					},
				},
			},
			{
				Name:   "search",
				Usage:  "Build a context block for a query",
				Action: searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Natural-language query text",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "period",
						Usage: "Reporting period filter, e.g. 2024 or 2024-Q3",
					},
					&cli.StringFlag{
						Name:  "unit",
						Usage: "Organizational unit filter",
					},
					&cli.StringFlag{
						Name:  "project",
						Usage: "Project identifier filter",
					},
					&cli.StringSliceFlag{
						Name:  "keyword",
						Usage: "Free-text keyword filter (repeatable)",
					},
					&cli.IntFlag{
						Name:  "min-severity",
						Usage: "Minimum severity (0-10)",
					},
					&cli.BoolFlag{
						Name:  "findings-only",
						Usage: "Exclude observations and notes",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
				},
			},
			{
				Name:   "warm",
				Usage:  "Precompute embeddings for all stored findings",
				Action: warmCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// seedFinding is the JSON shape accepted by the seed command.
type seedFinding struct {
	Period      string `json:"period"`
	Unit        string `json:"unit"`
	Project     string `json:"project"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    int    `json:"severity"`
	Kind        string `json:"kind"`
}

func seedCommand(c *cli.Context) error {
	ctx := context.Background()

	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read findings file: %w", err)
	}

	var seeds []seedFinding
	if err := json.Unmarshal(data, &seeds); err != nil {
		return fmt.Errorf("failed to parse findings file: %w", err)
	}

	findings := make([]*core.Finding, 0, len(seeds))
	for i, seed := range seeds {
		kind, err := parseKind(seed.Kind)
		if err != nil {
			return fmt.Errorf("finding %d: %w", i, err)
		}
		findings = append(findings, &core.Finding{
			Period:      seed.Period,
			Unit:        seed.Unit,
			Project:     seed.Project,
			Title:       seed.Title,
			Description: seed.Description,
			Severity:    seed.Severity,
			Kind:        kind,
		})
	}

	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	added, err := engine.Repository().AddFindings(ctx, findings...)
	if err != nil {
		return fmt.Errorf("failed to add findings: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Seeded %d findings into %s\n", len(added), c.String("db"))
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	var filters *core.QueryFilters
	if c.String("period") != "" || c.String("unit") != "" || c.String("project") != "" ||
		len(c.StringSlice("keyword")) > 0 || c.Int("min-severity") > 0 || c.Bool("findings-only") {
		filters = &core.QueryFilters{
			Period:             c.String("period"),
			Unit:               c.String("unit"),
			Project:            c.String("project"),
			Keywords:           c.StringSlice("keyword"),
			MinSeverity:        c.Int("min-severity"),
			ExcludeNonFindings: c.Bool("findings-only"),
		}
	}

	result, err := engine.BuildContext(ctx, c.String("query"), filters)
	if err != nil {
		return fmt.Errorf("failed to build context: %w", err)
	}

	fmt.Print(result.ContextText)
	fmt.Fprintf(os.Stderr, "\nStrategy: %s\n", result.Metadata.Strategy)
	fmt.Fprintf(os.Stderr, "Candidates: %d included, %d dropped\n",
		result.Metadata.CandidateCount, result.Metadata.DroppedCount)
	fmt.Fprintf(os.Stderr, "Average score: %.3f\n", result.Metadata.AverageScore)
	fmt.Fprintf(os.Stderr, "Estimated tokens: %d\n", result.Metadata.EstimatedTokens)
	if result.Metadata.OverBudget {
		fmt.Fprintln(os.Stderr, "Warning: first candidate alone exceeded the token budget")
	}
	if result.Metadata.Degraded {
		fmt.Fprintln(os.Stderr, "Warning: embedding service unavailable, ranking degraded to keyword scoring")
	}
	return nil
}

func warmCommand(c *cli.Context) error {
	ctx := context.Background()

	engine, err := newEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	warmed, failed, err := engine.WarmEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm embeddings: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Warmed %d embeddings, %d failed\n", warmed, failed)
	return nil
}

// newEngine opens the engine for the db flag, using the embedding flags
// when the command defines them.
func newEngine(c *cli.Context) (*auditctx.Engine, error) {
	opts := []auditctx.EngineOption{}

	if host := c.String("embedding-host"); host != "" {
		config := ai.NewConfig(
			ai.WithEmbeddingHost(host),
			ai.WithEmbeddingModel(c.String("embedding-model")),
		)
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("invalid embedding configuration: %w", err)
		}
		opts = append(opts, auditctx.WithAIConfig(config))
	}

	engine, err := auditctx.NewEngine(c.String("db"), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return engine, nil
}

func parseKind(kind string) (core.FindingKind, error) {
	switch strings.ToLower(kind) {
	case "", "finding":
		return core.KindFinding, nil
	case "observation":
		return core.KindObservation, nil
	case "note":
		return core.KindNote, nil
	default:
		return 0, fmt.Errorf("unknown finding kind %q", kind)
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
