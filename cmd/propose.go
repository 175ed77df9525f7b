package cmd

import (
	"fmt"
	"net/rpc"
	"os"

	"github.com/spf13/cobra"

	"council/member"
)

var (
	proposeControlAddr string
	proposeValue       string
)

// proposeCmd dials an already-running member's operator port and
// invokes proposeValue(value), printing the round's outcome once it
// ends — spec.md §6's "Operator surface" as a CLI verb.
var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Invoke proposeValue on a running council member",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := rpc.Dial("tcp", proposeControlAddr)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		defer client.Close()

		reply := member.ProposeReply{}
		call := client.Call("Control.Propose", &member.ProposeArgs{Value: proposeValue}, &reply)
		if call != nil {
			fmt.Println("Error:", call)
			os.Exit(1)
		}

		if reply.Chosen {
			fmt.Printf("round complete: value %q chosen\n", reply.Value)
		} else {
			fmt.Println("round failed: timed out without majority")
		}
	},
}

func init() {
	rootCmd.AddCommand(proposeCmd)

	proposeCmd.Flags().StringVar(&proposeControlAddr, "control-addr", "127.0.0.1:7001", "operator port of the member to propose on")
	proposeCmd.Flags().StringVar(&proposeValue, "value", "", "value to propose")
	proposeCmd.MarkFlagRequired("value")
}
