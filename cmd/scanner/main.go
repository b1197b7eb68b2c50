package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/rkilchmn/openrouter-free-scanner/internal/catalog"
	"github.com/rkilchmn/openrouter-free-scanner/internal/cli"
	"github.com/rkilchmn/openrouter-free-scanner/internal/config"
	"github.com/rkilchmn/openrouter-free-scanner/internal/version"
)

func main() {
	flags := pflag.NewFlagSet("scanner", pflag.ExitOnError)
	flags.Int("limit", 0, "Limit the number of models returned")
	flags.String("name", "", "Filter models by name (substring)")
	flags.Int("min-context-length", 0, "Filter by minimum context length")
	flags.String("provider", "", "Filter by provider")
	flags.String("sort-by", "name", "Sort models by field (name, id, context_length, created)")
	flags.Bool("reverse", false, "Reverse the sort order")
	flags.StringSlice("require-params", nil, "Only keep models supporting all of these request parameters")
	output := flags.StringP("output", "o", "", "Save the listing to a JSON file instead of printing")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.LoadConfig(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed to load config: %v\n", cli.CrossMark(), err)
		os.Exit(1)
	}

	version.CheckForUpdates()

	clientOpts := []catalog.ClientOption{}
	if cfg.Catalog.IncludeRouters {
		clientOpts = append(clientOpts, catalog.WithRouters())
	}
	client := catalog.NewClient(cfg.Upstream.BaseURL, clientOpts...)

	models, err := client.Fetch(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed to fetch models: %v\n", cli.CrossMark(), err)
		os.Exit(1)
	}

	models = catalog.Select(models, catalog.Criteria{
		Name:             cfg.Catalog.Name,
		Provider:         cfg.Catalog.Provider,
		MinContextLength: cfg.Catalog.MinContextLength,
		RequireParams:    cfg.Catalog.RequireParams,
		Limit:            cfg.Catalog.Limit,
	}, cfg.Catalog.SortBy, cfg.Catalog.Reverse)

	if len(models) == 0 {
		fmt.Fprintf(os.Stderr, "%s no models match the specified criteria\n", cli.CrossMark())
		os.Exit(1)
	}

	if *output != "" {
		if err := catalog.WriteSnapshot(*output, models); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", cli.CrossMark(), err)
			os.Exit(1)
		}
		fmt.Printf("%s saved %d models to %s\n", cli.CheckMark(), len(models), *output)
		return
	}

	cli.PrettyPrint(models)
}
