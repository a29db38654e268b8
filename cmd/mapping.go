package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/synthgeo/internal/pipeline"
)

var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Regenerate the household to hospital mapping file",
	Long:  "Loads the population, discards any existing mapping file and samples a visitation hospital for every household again.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("mapping"); err != nil {
			return err
		}

		p, err := pipeline.New(cfg, nil)
		if err != nil {
			return err
		}
		res, err := p.RegenerateMapping(cmd.Context())
		if err != nil {
			return err
		}

		pr := message.NewPrinter(language.English)
		_, _ = pr.Fprintf(os.Stdout, "Mapped %d households to %d hospitals\n", res.Sampled, len(res.Stats))
		for _, s := range res.Stats {
			_, _ = pr.Fprintf(os.Stdout, "  %-12s beds %6d  population %8d  mean age %5.1f  mean distance %6.2f km\n",
				s.Label, s.Beds, s.Population, s.MeanAge, s.MeanDistance)
		}
		_, _ = fmt.Fprintln(os.Stdout, "Seed:", p.Seed())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mappingCmd)
}
