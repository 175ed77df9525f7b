package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"council/demo"
)

var demoScenario string

// demoCmd is the test-driver role of spec.md §2 as a CLI verb: it
// launches all nine members in-process and runs one scripted
// scenario from spec.md §8, matching cmd/udp.go's --type mode switch.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted nine-member council scenario in-process",
	Run: func(cmd *cobra.Command, args []string) {
		summary, err := demo.RunScenario(demoScenario)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		fmt.Println(summary)
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().StringVar(&demoScenario, "scenario", "S1", "scenario to run: S1|S4|S6")
}
