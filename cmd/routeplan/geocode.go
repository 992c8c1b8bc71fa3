package main

import (
	"strings"

	"github.com/spf13/cobra"

	"agri-route-service/internal/domain"
)

var geocodeState string

var geocodeCmd = &cobra.Command{
	Use:   "geocode VILLAGE TALUKA DISTRICT",
	Short: "Resolve one location through the provider chain, bypassing cache and overrides",
	Long: `Runs the resolver directly and prints the GeocodeResult as JSON. Useful for
checking why a village lands at a district center or the region default.

$ routeplan geocode Wagholi Haveli Pune
`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		q := domain.LocationQuery{
			Village:  strings.TrimSpace(args[0]),
			Taluka:   strings.TrimSpace(args[1]),
			District: strings.TrimSpace(args[2]),
			State:    strings.TrimSpace(geocodeState),
		}
		return writeJSONOutput("", a.Resolver.Resolve(ctx, q))
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed FILE",
	Short: "Load orders from a JSON file into the configured order store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.SeedOrders(ctx, args[0])
	},
}

func init() {
	geocodeCmd.Flags().StringVar(&geocodeState, "state", "Maharashtra", "state name")
	rootCmd.AddCommand(geocodeCmd, seedCmd)
}
