package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/marginalia/internal/engine"
	"github.com/roach88/marginalia/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database  string
	SessionID string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	SessionID     string     `json:"session_id"`
	Actions       int        `json:"actions"`
	LastSeq       int64      `json:"last_seq"`
	Version       int64      `json:"version"`
	Comments      int        `json:"comments"`
	StateHash     string     `json:"state_hash"`
	Deterministic bool       `json:"deterministic"`
	Mismatches    []Mismatch `json:"mismatches,omitempty"`
}

// Mismatch is a journal entry whose recorded hash was not reproduced.
type Mismatch struct {
	Seq      int64  `json:"seq"`
	Kind     string `json:"kind"`
	Recorded string `json:"recorded"`
	Replayed string `json:"replayed"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay session journals and verify determinism",
		Long: `Fold each session journal from its initial load and compare the state
hash after every action with the hash recorded when it was applied.

Exit codes:
  0 - Every recorded hash was reproduced
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, etc.)

Examples:
  marginalia replay --db ./marginalia.db
  marginalia replay --db ./marginalia.db --session edit_and_sync
  marginalia replay --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default store.path)")
	cmd.Flags().StringVar(&opts.SessionID, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
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

	var ids []string
	if opts.SessionID != "" {
		ids = []string{opts.SessionID}
	} else {
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		for _, s := range sessions {
			ids = append(ids, s.ID)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(ids)),
		TotalSessions:    len(ids),
		AllDeterministic: true,
	}
	for _, id := range ids {
		opts.logger().Debug("replaying session", "session", id)
		res, err := replaySession(ctx, st, id)
		if errors.Is(err, store.ErrNotFound) {
			return WrapExitError(ExitCommandError, fmt.Sprintf("session %s not found", id), err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", id), err)
		}

		result.Sessions = append(result.Sessions, res)
		if !res.Deterministic {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

func replaySession(ctx context.Context, st *store.Store, id string) (ReplaySessionResult, error) {
	rep, err := st.ReplaySession(ctx, id)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	res := ReplaySessionResult{
		SessionID:     id,
		Actions:       rep.Actions,
		LastSeq:       rep.LastSeq,
		Version:       rep.State.Version(),
		Comments:      len(rep.State.Comments()),
		StateHash:     engine.StateHash(rep.State),
		Deterministic: rep.Deterministic(),
	}
	for _, m := range rep.Mismatches {
		res.Mismatches = append(res.Mismatches, Mismatch{
			Seq:      m.Seq,
			Kind:     string(m.Kind),
			Recorded: m.Recorded,
			Replayed: m.Replayed,
		})
	}
	return res, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeReplay,
			Message: "determinism verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "determinism verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.TotalSessions == 0 {
		fmt.Fprintln(w, "No sessions found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		status := "✓"
		if !s.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Session: %s\n", status, s.SessionID)
		fmt.Fprintf(w, "  Actions: %d, version %d, %d comment(s)\n", s.Actions, s.Version, s.Comments)
		if verbose {
			fmt.Fprintf(w, "  Last seq: %d\n", s.LastSeq)
			fmt.Fprintf(w, "  State hash: %s\n", s.StateHash)
		}
		for _, m := range s.Mismatches {
			fmt.Fprintf(w, "  Mismatch at seq %d (%s): recorded %s, replayed %s\n", m.Seq, m.Kind, m.Recorded, m.Replayed)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
