package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"council/faultinject"
	"council/member"
	"council/roster"
)

var (
	serveID           string
	serveRosterPath   string
	serveFaultProfile string
	serveObserverAddr string
	serveControlAddr  string
)

// serveCmd boots one council member process: loads the roster,
// constructs the member, starts its Paxos inbox, and (if requested)
// its websocket observer feed, then blocks. This is the concrete form
// of the "process bootstrap" spec.md §1 leaves as an external
// collaborator.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run one council member's inbox server",
	Run: func(cmd *cobra.Command, args []string) {
		rost, err := loadRoster(serveRosterPath)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

		fault, err := faultProfile(serveFaultProfile)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

		m, err := member.New(serveID, rost, fault)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

		if serveObserverAddr != "" {
			obs := member.NewObserver(serveObserverAddr)
			obs.Start()
			m.SetObserver(obs)
		}

		if err := m.Start(); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

		control := member.NewControl(m)
		if err := control.Start(serveControlAddr); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}

		fmt.Printf("%s listening, roster loaded from %s, operator port %s\n", serveID, serveRosterPath, serveControlAddr)
		select {}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveID, "id", "", "this member's id, e.g. M1")
	serveCmd.Flags().StringVar(&serveRosterPath, "roster", "", "path to roster JSON file")
	serveCmd.Flags().StringVar(&serveFaultProfile, "fault", "responsive", "fault injector profile: responsive|flaky-slow|lossy|variable")
	serveCmd.Flags().StringVar(&serveObserverAddr, "observer-addr", "", "address to serve the websocket observer feed on, e.g. :9001 (empty disables it)")
	serveCmd.Flags().StringVar(&serveControlAddr, "control-addr", ":7001", "operator port for the propose RPC")
	serveCmd.MarkFlagRequired("id")
	serveCmd.MarkFlagRequired("roster")
}

func loadRoster(path string) (roster.Roster, error) {
	if path == "" {
		return roster.Reference(), nil
	}
	return roster.Load(path)
}

func faultProfile(name string) (faultinject.Injector, error) {
	switch name {
	case "responsive":
		return faultinject.NewResponsive(), nil
	case "flaky-slow":
		return faultinject.NewFlakySlow(), nil
	case "lossy":
		return faultinject.NewLossy(), nil
	case "variable":
		return faultinject.NewVariable(), nil
	default:
		return nil, fmt.Errorf("unknown fault profile %q", name)
	}
}
