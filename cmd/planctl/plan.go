package main

import (
	"fmt"
	"hos-route-service/internal/adapters/distance"
	"hos-route-service/internal/adapters/stations"
	"hos-route-service/internal/adapters/weather"
	"hos-route-service/internal/config"
	"hos-route-service/internal/hos"
	"hos-route-service/internal/ports"
	"hos-route-service/internal/scenario"
	"hos-route-service/internal/services"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan the trip described by a scenario file",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(viper.GetString("scenario"))
			if err != nil {
				return err
			}

			engine, err := loadEngine()
			if err != nil {
				return err
			}

			planner, err := services.NewRoutePlanner(services.PlannerDeps{
				HOS:     engine,
				Oracle:  scenarioOracle(*sc.Planner),
				Weather: weather.None{},
				Fuel:    stations.NewDirectory(sc.FuelStations, sc.RestAreas),
				Rest:    stations.NewDirectory(sc.FuelStations, sc.RestAreas),
			}, *sc.Planner)
			if err != nil {
				return err
			}
			trips, err := services.NewTripPlanner(services.TripPlannerDeps{
				Fleet:   sc.Fleet(),
				Planner: planner,
			})
			if err != nil {
				return err
			}

			res, err := trips.PlanTrip(cmd.Context(), sc.Request())
			if err != nil {
				return fmt.Errorf("plan %s: %w", sc.Name, err)
			}

			if viper.GetBool("json") {
				return printJSON(res.Plan)
			}
			renderPlan(os.Stdout, sc.Name, res.Plan)
			return nil
		},
	}
	cmd.Flags().StringP("scenario", "s", "scenarios/phoenix-el-paso.yaml", "scenario file")
	_ = viper.BindPFlag("scenario", cmd.Flags().Lookup("scenario"))
	return cmd
}

func loadEngine() (*hos.Engine, error) {
	limits := hos.DefaultLimits()
	if path := viper.GetString("limits"); path != "" {
		var err error
		if limits, err = config.LoadHOSLimitsFile(path); err != nil {
			return nil, err
		}
	}
	return hos.NewEngine(limits)
}

func scenarioOracle(cfg services.PlannerConfig) ports.DistanceOracle {
	estimator := distance.NewEstimateOracle(cfg.RoadFactor, cfg.AvgSpeedMph)
	key := viper.GetString("ors_api_key")
	if key == "" {
		return estimator
	}
	ors, err := distance.NewORSOracle(key, viper.GetString("ors_base_url"), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
		return estimator
	}
	return distance.NewFallbackOracle(ors, estimator, viper.GetDuration("oracle_timeout"))
}
