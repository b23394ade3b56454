// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/blinklabs-io/stakegov/ledger"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var inspectFlags = struct {
	json bool
}{}

// toolLogger logs to stderr so command output stays machine readable
func toolLogger() *slog.Logger {
	level := slog.LevelWarn
	if globalFlags.debug {
		level = slog.LevelDebug
	}
	return slog.New(
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	)
}

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	t.AppendHeader(header)
	return t
}

func formatTime(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts, 0).UTC().Format(time.RFC3339)
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 0)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", arg, err)
	}
	return uint(id), nil
}

func writeJSONOutput(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func inspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show ledger state",
	}
	cmd.PersistentFlags().
		BoolVar(&inspectFlags.json, "json", false, "write JSON instead of tables")
	cmd.AddCommand(
		&cobra.Command{
			Use:   "projects",
			Short: "List all projects",
			Args:  cobra.NoArgs,
			RunE:  inspectProjectsRun,
		},
		&cobra.Command{
			Use:   "project <id>",
			Short: "Show a project with its proposals, stakers and audit",
			Args:  cobra.ExactArgs(1),
			RunE:  inspectProjectRun,
		},
		&cobra.Command{
			Use:   "proposal <id>",
			Short: "Show a proposal and its votes",
			Args:  cobra.ExactArgs(1),
			RunE:  inspectProposalRun,
		},
	)
	return cmd
}

func inspectProjectsRun(cmd *cobra.Command, _ []string) error {
	cfg, err := configFromCommand(cmd)
	if err != nil {
		return err
	}
	n, err := openNode(cmd.Context(), cfg, toolLogger())
	if err != nil {
		return err
	}
	defer n.Stop()
	projects, err := n.Ledger().ListProjects()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if inspectFlags.json {
		return writeJSONOutput(out, projects)
	}
	t := newTable(out, table.Row{"ID", "Name", "Creator", "Tokens", "Total staked", "Proposals", "Active"})
	for _, p := range projects {
		t.AppendRow(table.Row{
			p.ID,
			p.Name,
			p.Creator.Hex(),
			len(p.GovernanceTokens),
			p.TotalStaked.Dec(),
			p.ProposalCount,
			p.Active,
		})
	}
	t.Render()
	return nil
}

func inspectProjectRun(cmd *cobra.Command, args []string) error {
	projectID, err := parseID(args[0])
	if err != nil {
		return err
	}
	cfg, err := configFromCommand(cmd)
	if err != nil {
		return err
	}
	n, err := openNode(cmd.Context(), cfg, toolLogger())
	if err != nil {
		return err
	}
	defer n.Stop()
	ls := n.Ledger()
	project, err := ls.GetProject(projectID)
	if err != nil {
		return err
	}
	proposals, err := ls.ListProposals(projectID)
	if err != nil {
		return err
	}
	stakers, err := ls.Stakers(projectID)
	if err != nil {
		return err
	}
	stakes := make([]ledger.UserStake, 0, len(stakers))
	for _, staker := range stakers {
		stake, err := ls.GetUserStake(projectID, staker)
		if err != nil {
			return err
		}
		stakes = append(stakes, stake)
	}
	audit, err := ls.Audit(cmd.Context(), projectID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if inspectFlags.json {
		return writeJSONOutput(out, map[string]any{
			"project":   project,
			"proposals": proposals,
			"stakes":    stakes,
			"audit":     audit,
		})
	}
	fmt.Fprintf(out, "Project %d: %s\n", project.ID, project.Name)
	fmt.Fprintf(out, "Creator: %s  Created: %s  Active: %t\n\n",
		project.Creator.Hex(), formatTime(project.CreatedAt), project.Active)

	pt := newTable(out, table.Row{"ID", "Title", "Status", "Yes", "No", "Quorum", "Ends"})
	for _, p := range proposals {
		pt.AppendRow(table.Row{
			p.ID, p.Title, p.Status, p.YesVotes.Dec(), p.NoVotes.Dec(),
			p.Quorum.Dec(), formatTime(p.EndTime),
		})
	}
	pt.SetTitle("Proposals")
	pt.Render()

	st := newTable(out, table.Row{"Holder", "Token", "Staked", "Unstaking", "Ready"})
	for _, stake := range stakes {
		for _, pos := range stake.Positions {
			if pos.StakedAmount.IsZero() && pos.UnstakingAmount.IsZero() {
				continue
			}
			st.AppendRow(table.Row{
				stake.Holder.Hex(),
				pos.Token.Hex(),
				pos.StakedAmount.Dec(),
				pos.UnstakingAmount.Dec(),
				formatTime(lo.FromPtr(pos.UnstakeReadyTime)),
			})
		}
	}
	st.SetTitle("Stakes")
	st.Render()

	at := newTable(out, table.Row{"Token", "Staked", "Unstaking", "Ledger total", "Custodied"})
	at.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	for _, tok := range audit.Tokens {
		custodied := "-"
		if tok.Custodied != nil {
			custodied = tok.Custodied.Dec()
		}
		at.AppendRow(table.Row{
			tok.Token.Hex(), tok.Staked.Dec(), tok.Unstaking.Dec(),
			tok.LedgerTotal.Dec(), custodied,
		})
	}
	at.SetTitle(fmt.Sprintf("Audit (balanced: %t)", audit.Balanced))
	at.Render()
	return nil
}

func inspectProposalRun(cmd *cobra.Command, args []string) error {
	proposalID, err := parseID(args[0])
	if err != nil {
		return err
	}
	cfg, err := configFromCommand(cmd)
	if err != nil {
		return err
	}
	n, err := openNode(cmd.Context(), cfg, toolLogger())
	if err != nil {
		return err
	}
	defer n.Stop()
	proposal, err := n.Ledger().GetProposal(proposalID)
	if err != nil {
		return err
	}
	votes, err := n.Ledger().ListVotes(proposalID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if inspectFlags.json {
		return writeJSONOutput(out, map[string]any{
			"proposal": proposal,
			"votes":    votes,
		})
	}
	fmt.Fprintf(out, "Proposal %d (project %d): %s\n", proposal.ID, proposal.ProjectID, proposal.Title)
	fmt.Fprintf(out, "Status: %s  Voting: %s to %s\n\n",
		proposal.Status, formatTime(proposal.StartTime), formatTime(proposal.EndTime))
	t := newTable(out, table.Row{"Voter", "Support", "Weight", "Time"})
	for _, v := range votes {
		t.AppendRow(table.Row{v.Voter.Hex(), v.Support, v.Weight.Dec(), formatTime(v.Timestamp)})
	}
	t.AppendFooter(table.Row{"Total", "", proposal.TotalVoted.Dec(), ""})
	t.Render()
	return nil
}
