package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/marginalia/internal/store"
)

// SessionsOptions holds flags for the sessions command.
type SessionsOptions struct {
	*RootOptions
	Database string
}

// SessionInfo is one journaled session.
type SessionInfo struct {
	ID      string         `json:"id"`
	Seq     int64          `json:"seq"`
	Actions int            `json:"actions"`
	Kinds   map[string]int `json:"kinds"`
}

// NewSessionsCommand creates the sessions command.
func NewSessionsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List journaled sessions",
		Long: `List every session in the journal with its action counts.

Examples:
  marginalia sessions --db ./marginalia.db
  marginalia sessions --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessions(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default store.path)")

	return cmd
}

func runSessions(opts *SessionsOptions, cmd *cobra.Command) error {
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

	summaries, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	infos := make([]SessionInfo, len(summaries))
	for i, s := range summaries {
		kinds := make(map[string]int, len(s.Kinds))
		for k, n := range s.Kinds {
			kinds[string(k)] = n
		}
		infos[i] = SessionInfo{ID: s.ID, Seq: s.Seq, Actions: s.Actions, Kinds: kinds}
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format == "json" {
		return formatter.Success(infos)
	}

	if len(infos) == 0 {
		return formatter.Success("No sessions found in database.")
	}
	for _, s := range infos {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  seq=%d actions=%d  %s\n", s.ID, s.Seq, s.Actions, formatKinds(s.Kinds))
	}
	return nil
}

// formatKinds renders kind counts as "k1=n k2=m" in name order.
func formatKinds(kinds map[string]int) string {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = fmt.Sprintf("%s=%d", k, kinds[k])
	}
	return strings.Join(parts, " ")
}
