package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"agri-route-service/internal/adapters/repositories"
	"agri-route-service/internal/domain"
	"agri-route-service/internal/services"
)

var planFlags struct {
	ordersPath string
	outPath    string
	capacity   int
	seed       uint64
	depotLat   float64
	depotLon   float64
	noOverride bool
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan routes for stored orders or an orders JSON file",
	Long: `Reads orders (from --orders or the configured store), resolves their
locations, and writes the plan as JSON to stdout or --out.

$ routeplan plan --capacity 5000 --orders data/seeds/orders.json --seed 42
`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		var orders []*domain.Order
		if planFlags.ordersPath != "" {
			orders, err = repositories.LoadOrdersJSON(planFlags.ordersPath)
		} else {
			orders, err = a.Orders.ListOrders(ctx)
		}
		if err != nil {
			return err
		}

		depot := a.Depot
		if cmd.Flags().Changed("depot-lat") || cmd.Flags().Changed("depot-lon") {
			depot = domain.Coordinates{Lat: planFlags.depotLat, Lon: planFlags.depotLon}
			if err := depot.Validate(); err != nil {
				return fmt.Errorf("invalid depot: %w", err)
			}
		}

		var overrides map[string]domain.Coordinates
		if !planFlags.noOverride {
			if overrides, err = a.Overrides.ListOverrides(ctx); err != nil {
				log.Printf("overrides unavailable: %v", err)
			}
		}

		deps := a.Planner
		deps.Progress = newProgress()

		result, err := services.PlanRoutes(ctx, services.PlanRoutesRequest{
			Orders:          orders,
			Depot:           depot,
			VehicleCapacity: planFlags.capacity,
			Seed:            planFlags.seed,
			Overrides:       overrides,
		}, deps)
		var overflow *domain.CapacityOverflowError
		if err != nil && !(errors.As(err, &overflow) && result != nil) {
			return err
		}
		if overflow != nil {
			log.Printf("warning: %v", overflow)
		}

		for _, w := range result.Warnings {
			log.Printf("warning: %s", w)
		}
		log.Printf("planned routes=%d locations=%d unassigned=%d seed=%d",
			len(result.Routes), len(result.Locations), len(result.Unassigned), planFlags.seed)

		return writeJSONOutput(planFlags.outPath, result)
	},
}

func writeJSONOutput(path string, v any) error {
	out := os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func init() {
	f := planCmd.Flags()
	f.StringVar(&planFlags.ordersPath, "orders", "", "orders JSON file (default: configured order store)")
	f.StringVarP(&planFlags.outPath, "out", "o", "", "output file (default: stdout)")
	f.IntVar(&planFlags.capacity, "capacity", 0, "vehicle capacity in plants")
	f.Uint64Var(&planFlags.seed, "seed", 1, "clustering seed; equal seeds give equal plans")
	f.Float64Var(&planFlags.depotLat, "depot-lat", 0, "depot latitude (default: DEPOT_LAT)")
	f.Float64Var(&planFlags.depotLon, "depot-lon", 0, "depot longitude (default: DEPOT_LON)")
	f.BoolVar(&planFlags.noOverride, "no-overrides", false, "ignore stored manual coordinate corrections")
	_ = planCmd.MarkFlagRequired("capacity")

	rootCmd.AddCommand(planCmd)
}
