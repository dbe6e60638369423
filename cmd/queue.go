package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var queueJSON bool

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect vendor queues",
}

var queueListCmd = &cobra.Command{
	Use:   "list <vendor-id>",
	Short: "List the tickets waiting for a vendor in service order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.scheduler.ListByVendor(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if queueJSON {
			return printJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Printf("The %s queue is empty.\n", args[0])
			return nil
		}

		now := time.Now().UnixMilli()
		fmt.Printf("%-5s %-24s %-8s %s\n", "POS", "TICKET", "PRIORITY", "WAITING")
		for _, e := range entries {
			waited := time.Duration(now-e.EnteredAt) * time.Millisecond
			fmt.Printf("%-5d %-24s %-8d %s\n", e.Position, e.TicketID, e.Priority, waited.Truncate(time.Second))
		}
		return nil
	},
}

var queuePositionCmd = &cobra.Command{
	Use:   "position <ticket-id>",
	Short: "Show a queued ticket's live position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		pos, err := a.scheduler.GetPosition(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if pos == nil {
			return fmt.Errorf("ticket %s is not queued", args[0])
		}
		if queueJSON {
			return printJSON(pos)
		}
		fmt.Printf("Ticket %s: position %d in %s (priority %d, estimated wait %d min)\n",
			pos.TicketID, pos.Position, pos.VendorID, pos.Priority, pos.EstimatedWaitMinutes)
		return nil
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	queueCmd.PersistentFlags().BoolVar(&queueJSON, "json", false, "print JSON instead of a table")
	queueCmd.AddCommand(queueListCmd, queuePositionCmd)
	rootCmd.AddCommand(queueCmd)
}
