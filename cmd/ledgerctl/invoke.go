package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vncsmyrnk/electionledger/internal/core/ports"
)

func init() {
	rootCmd.AddCommand(invokeCmd, queryCmd)
}

var invokeCmd = &cobra.Command{
	Use:   "invoke <function> [args...]",
	Short: "Submit a ledger invocation and commit its writes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withInvoker(cmd.Context(), func(inv ports.Invoker) error {
			payload, err := inv.Submit(cmd.Context(), args[0], args[1:]...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <function> [args...]",
	Short: "Evaluate a ledger invocation without committing",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withInvoker(cmd.Context(), func(inv ports.Invoker) error {
			payload, err := inv.Evaluate(cmd.Context(), args[0], args[1:]...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		})
	},
}
