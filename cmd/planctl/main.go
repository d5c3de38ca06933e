// Command planctl plans trips offline from scenario files and answers quick
// hours-of-service questions without a database.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "planctl",
	Short: "HOS-aware route planning from the command line",
	Long: `planctl runs the route planner against a self-contained scenario file.

A scenario holds the driver, vehicle, loads, fuel stations and rest areas.
Distances are great-circle estimates unless PLANCTL_ORS_API_KEY is set.`,
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(hosCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PLANCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("oracle_timeout", "8s")
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("limits", "", "HOS limits YAML file (defaults to the federal property-carrying rules)")
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("limits", rootCmd.PersistentFlags().Lookup("limits"))
}
