// The scores commands inspect and edit the score ledger of a stopped server
// using the same config and store as the server itself.
package main

import (
	"bufio"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dcrodman/connect4/internal/core"
	"github.com/dcrodman/connect4/internal/ledger"
)

var scoresCmd = &cobra.Command{
	Use:   "scores",
	Short: "Score ledger tools",
}

var scoresListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the record of every player",
	Run:   ScoresListCommand,
}

var scoresShowCmd = &cobra.Command{
	Use:   "show [handle]",
	Short: "Shows the record of one player",
	Args:  cobra.MaximumNArgs(1),
	Run:   ScoresShowCommand,
}

var scoresResetCmd = &cobra.Command{
	Use:   "reset [handle]",
	Short: "Removes the record of one player",
	Args:  cobra.MaximumNArgs(1),
	Run:   ScoresResetCommand,
}

func openLedger() *ledger.Ledger {
	cfg, err := core.LoadConfig(ConfigFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	logger, err := core.NewLogger(cfg)
	if err != nil {
		fmt.Println("error initializing logger:", err)
		os.Exit(1)
	}
	// Only problems with the store are worth reporting here.
	logger.SetLevel(logrus.WarnLevel)

	store, err := ledger.OpenStore(cfg)
	if err != nil {
		fmt.Println("error opening score ledger:", err)
		os.Exit(1)
	}
	return ledger.Open(store, logger)
}

func ScoresListCommand(cmd *cobra.Command, args []string) {
	scores := openLedger()
	defer scores.Close()

	handles := scores.Handles()
	if len(handles) == 0 {
		fmt.Println("no scores recorded")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HANDLE\tWINS\tLOSSES\tDRAWS")
	for _, handle := range handles {
		r := scores.Get(handle)
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", handle, r.Wins, r.Losses, r.Draws)
	}
	w.Flush()
}

func ScoresShowCommand(cmd *cobra.Command, args []string) {
	scores := openLedger()
	defer scores.Close()

	handle, _ := popArg(args, "Handle")
	fmt.Printf("%s: %s\n", handle, scores.Get(handle))
}

func ScoresResetCommand(cmd *cobra.Command, args []string) {
	scores := openLedger()
	defer scores.Close()

	handle, _ := popArg(args, "Handle")
	if _, ok := scores.All()[handle]; !ok {
		fmt.Printf("no record for '%s'; skipping\n", handle)
		return
	}
	scores.Reset(handle)
	fmt.Printf("reset record for '%s'\n", handle)
}

func popArg(args []string, prompt string) (string, []string) {
	if len(args) == 1 {
		return args[0], nil
	} else if len(args) > 1 {
		return args[0], args[1:]
	}

	fmt.Printf("%s: ", prompt)
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Scan()
	return scanner.Text(), args
}
