package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/vncsmyrnk/electionledger/internal/core/domain"
	"github.com/vncsmyrnk/electionledger/internal/core/ledger"
	"github.com/vncsmyrnk/electionledger/internal/core/ports"
	"github.com/vncsmyrnk/electionledger/internal/core/services"
)

func init() {
	rootCmd.AddCommand(resultsCmd, auditCmd)
}

var resultsCmd = &cobra.Command{
	Use:   "results <electionId>",
	Short: "Show the tally of an election",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withInvoker(cmd.Context(), func(inv ports.Invoker) error {
			payload, err := inv.Evaluate(cmd.Context(), services.FnGetElectionResults, args[0])
			if err != nil {
				return err
			}
			var results []domain.CandidateResult
			if err := ledger.Unmarshal(payload, &results); err != nil {
				return err
			}
			return pterm.DefaultTable.WithHasHeader().WithData(resultsTable(results)).Render()
		})
	},
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Check every election's tally against its vote records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withInvoker(cmd.Context(), func(inv ports.Invoker) error {
			audits, err := services.NewAuditService(inv).AuditAllElections(cmd.Context())
			if err != nil {
				return err
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(auditTable(audits)).Render(); err != nil {
				return err
			}
			for _, a := range audits {
				if !a.Consistent {
					return fmt.Errorf("election %s: %d votes but tally total %d", a.ElectionID, a.Votes, a.TallyTotal)
				}
			}
			return nil
		})
	},
}

func resultsTable(results []domain.CandidateResult) pterm.TableData {
	var total int64
	for _, r := range results {
		total += r.VoteCount
	}

	data := pterm.TableData{{"Candidate", "Votes", "Share"}}
	for _, r := range results {
		share := 0.0
		if total > 0 {
			share = float64(r.VoteCount) / float64(total) * 100
		}
		data = append(data, []string{r.CandidateID, humanize.Comma(r.VoteCount), fmt.Sprintf("%.1f%%", share)})
	}
	return data
}

func auditTable(audits []*domain.ElectionAudit) pterm.TableData {
	data := pterm.TableData{{"Election", "Votes", "Tally", "Consistent"}}
	for _, a := range audits {
		ok := pterm.Green("yes")
		if !a.Consistent {
			ok = pterm.Red("no")
		}
		data = append(data, []string{a.ElectionID, humanize.Comma(a.Votes), humanize.Comma(a.TallyTotal), ok})
	}
	return data
}
