package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/ir"
	"github.com/roach88/marginalia/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	SessionID string
	Kind      string // optional - filter to one action kind
}

// TraceEntry is one journal entry in the timeline.
type TraceEntry struct {
	Seq       int64           `json:"seq"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	StateHash string          `json:"state_hash"`
}

// TraceFinal is the state the journal folds to.
type TraceFinal struct {
	Version  int64            `json:"version"`
	Doc      string           `json:"doc"`
	Comments []ir.CommentSpan `json:"comments"`
	Unsent   []ir.Event       `json:"unsent"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	SessionID string       `json:"session_id"`
	Timeline  []TraceEntry `json:"timeline"`
	Final     TraceFinal   `json:"final"`
	Stats     TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalActions int            `json:"total_actions"`
	Kinds        map[string]int `json:"kinds"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journal of a session",
		Long: `Show every action recorded for a session, in seq order.

The output includes:
- Timeline: each applied action with its payload and post-state hash
- Final: the state the journal folds to (version, document, comments, unsent)
- Stats: action counts per kind

Examples:
  marginalia trace --db ./marginalia.db --session 0192f3c4-...
  marginalia trace --session edit_and_sync --kind receive
  marginalia trace --session edit_and_sync --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default store.path)")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "session to trace (required)")
	_ = cmd.MarkFlagRequired("session")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter timeline to one action kind")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dbPath, err := opts.databasePath(opts.Database)
	if err != nil {
		return err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	result, err := buildTrace(ctx, st, opts.SessionID, opts.Kind)
	if errors.Is(err, store.ErrNotFound) {
		return WrapExitError(ExitCommandError, "session not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to trace session", err)
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// buildTrace reads the journal and folds it to the final state.
func buildTrace(ctx context.Context, st *store.Store, sessionID, kind string) (TraceResult, error) {
	records, err := st.ReadActions(ctx, sessionID)
	if err != nil {
		return TraceResult{}, err
	}
	rep, err := st.ReplaySession(ctx, sessionID)
	if err != nil {
		return TraceResult{}, err
	}

	result := TraceResult{
		SessionID: sessionID,
		Timeline:  []TraceEntry{},
		Final: TraceFinal{
			Version:  rep.State.Version(),
			Doc:      rep.Doc.String(),
			Comments: rep.State.Comments(),
			Unsent:   engine.UnsentEvents(rep.State),
		},
		Stats: TraceStats{TotalActions: len(records), Kinds: map[string]int{}},
	}

	for _, r := range records {
		result.Stats.Kinds[string(r.Kind)]++
		if kind != "" && string(r.Kind) != kind {
			continue
		}
		result.Timeline = append(result.Timeline, TraceEntry{
			Seq:       r.Seq,
			Kind:      string(r.Kind),
			Payload:   json.RawMessage(r.Payload),
			StateHash: r.StateHash,
		})
	}
	return result, nil
}

// outputTraceJSON outputs the trace as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(CLIResponse{
		Status:    "ok",
		Data:      result,
		SessionID: result.SessionID,
	})
}

// outputTraceText outputs the trace as text. Verbose output includes the
// full state hashes and the unsent events.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Session: %s\n", result.SessionID)
	fmt.Fprintln(w)

	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "No actions recorded.")
	} else {
		fmt.Fprintln(w, "Timeline:")
		for _, e := range result.Timeline {
			hash := e.StateHash
			if !verbose && len(hash) > 12 {
				hash = hash[:12]
			}
			fmt.Fprintf(w, "  [%d] %-14s %s %s\n", e.Seq, e.Kind, hash, e.Payload)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Final: version %d, %d comment(s)\n", result.Final.Version, len(result.Final.Comments))
	fmt.Fprintf(w, "  doc: %q\n", result.Final.Doc)
	for _, c := range result.Final.Comments {
		fmt.Fprintf(w, "  %s [%d, %d] %q\n", c.ID, c.From, c.To, c.Text)
	}
	if verbose {
		for _, ev := range result.Final.Unsent {
			fmt.Fprintf(w, "  unsent: %s %s\n", ev.Kind, ev.ID)
		}
	}
	fmt.Fprintln(w)

	kinds := make([]string, 0, len(result.Stats.Kinds))
	for k := range result.Stats.Kinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	fmt.Fprintf(w, "Stats: %d action(s)", result.Stats.TotalActions)
	for _, k := range kinds {
		fmt.Fprintf(w, ", %s=%d", k, result.Stats.Kinds[k])
	}
	fmt.Fprintln(w)
	return nil
}
