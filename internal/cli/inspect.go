package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/tracker/internal/store"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Session string
	Round   int
}

// InspectSession is one report header in inspect output.
type InspectSession struct {
	ID           string `json:"id"`
	Round        int    `json:"round"`
	CreatedAt    string `json:"created_at"`
	LeftCount    int    `json:"left_count"`
	RightCount   int    `json:"right_count"`
	Matched      int    `json:"matched"`
	MissingRight int    `json:"missing_right"`
	MissingLeft  int    `json:"missing_left"`
}

// InspectEntry is one cross-comparison line in inspect output.
type InspectEntry struct {
	Position     int    `json:"position"`
	Kind         string `json:"kind"`
	Key          string `json:"key"`
	LeftStateID  string `json:"left_state_id,omitempty"`
	RightStateID string `json:"right_state_id,omitempty"`
}

// InspectState is one stored state in inspect output.
type InspectState struct {
	ID      string `json:"id"`
	Seq     int64  `json:"seq"`
	Side    string `json:"side"`
	Index   int    `json:"index"`
	Key     string `json:"key"`
	Payload string `json:"payload"`
}

// InspectResult holds the inspect output for one report.
type InspectResult struct {
	Session  InspectSession `json:"session"`
	Entries  []InspectEntry `json:"entries"`
	Timeline []InspectState `json:"timeline"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <report.db>",
		Short: "Read a SQLite report",
		Long: `Read a report written with --report <path>.db.

Without --session, lists every stored report. Round 0 is the session report
written at end of stream; rounds 1 and up are per-round reports.

Examples:
  tracker inspect out.db
  tracker inspect out.db --session 0192f0c1-... --round 2
  tracker inspect out.db --session 0192f0c1-... --format json`,
		Args:          exactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session ID to show")
	cmd.Flags().IntVar(&opts.Round, "round", 0, "round to show (0 is the session report)")

	return cmd
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(path); err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("report not found: %s", path), nil)
		return WrapExitError(ExitCommandError, "report not found", err)
	}

	st, err := store.OpenReadOnly(path)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		if errors.Is(err, store.ErrNotReport) {
			return WrapExitError(ExitCommandError, "not a report database", err)
		}
		return WrapExitError(ExitFailure, "failed to open report", err)
	}
	defer st.Close()

	if opts.Session == "" {
		return listSessions(ctx, st, formatter)
	}

	result, err := loadInspectResult(ctx, st, opts.Session, opts.Round)
	if errors.Is(err, store.ErrNotFound) {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "report not found", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read report", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	outputInspectText(formatter.Writer, result, opts.Verbose)
	return nil
}

func listSessions(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read report", err)
	}

	views := make([]InspectSession, len(sessions))
	for i, s := range sessions {
		views[i] = newInspectSession(s)
	}
	if formatter.Format == "json" {
		return formatter.Success(views)
	}

	w := formatter.Writer
	fmt.Fprintln(w, "=== Reports ===")
	if len(views) == 0 {
		fmt.Fprintln(w, "  (none)")
		return nil
	}
	for _, s := range views {
		fmt.Fprintf(w, "  %s  %s  %s  %s\n", truncateID(s.ID), roundLabel(s.Round), s.CreatedAt, statsLine(s))
	}
	return nil
}

func loadInspectResult(ctx context.Context, st *store.Store, session string, round int) (InspectResult, error) {
	sess, err := st.ReadSession(ctx, session, round)
	if err != nil {
		return InspectResult{}, err
	}
	entries, err := st.ReadEntries(ctx, session, round)
	if err != nil {
		return InspectResult{}, err
	}
	states, err := st.ReadStates(ctx, session, round)
	if err != nil {
		return InspectResult{}, err
	}

	result := InspectResult{
		Session:  newInspectSession(sess),
		Entries:  make([]InspectEntry, len(entries)),
		Timeline: make([]InspectState, len(states)),
	}
	for i, e := range entries {
		result.Entries[i] = InspectEntry(e)
	}
	for i, s := range states {
		result.Timeline[i] = InspectState{
			ID:      s.ID,
			Seq:     s.State.Seq,
			Side:    s.State.Side.String(),
			Index:   s.State.Index,
			Key:     s.State.Key.String(),
			Payload: string(s.State.Event.Payload),
		}
	}
	return result, nil
}

func newInspectSession(s store.Session) InspectSession {
	return InspectSession{
		ID:           s.ID,
		Round:        s.Round,
		CreatedAt:    s.CreatedAt.Format("2006-01-02 15:04:05"),
		LeftCount:    s.LeftCount,
		RightCount:   s.RightCount,
		Matched:      s.Matched,
		MissingRight: s.MissingRight,
		MissingLeft:  s.MissingLeft,
	}
}

func outputInspectText(w io.Writer, r InspectResult, verbose bool) {
	fmt.Fprintf(w, "=== Report %s %s ===\n", r.Session.ID, roundLabel(r.Session.Round))
	fmt.Fprintf(w, "  Created: %s\n", r.Session.CreatedAt)
	fmt.Fprintf(w, "  %s\n", statsLine(r.Session))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Comparison ===")
	if len(r.Entries) == 0 {
		fmt.Fprintln(w, "  (no keyed states)")
	}
	for _, e := range r.Entries {
		fmt.Fprintf(w, "  [%d] %-13s %s\n", e.Position, e.Kind, e.Key)
		if verbose {
			fmt.Fprintf(w, "       left=%s right=%s\n", truncateID(e.LeftStateID), truncateID(e.RightStateID))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(r.Timeline) == 0 {
		fmt.Fprintln(w, "  (no states)")
	}
	for _, s := range r.Timeline {
		fmt.Fprintf(w, "  [%d] %-5s #%d %s (%s)\n", s.Seq, s.Side, s.Index, s.Key, humanize.Bytes(uint64(len(s.Payload))))
		if verbose {
			fmt.Fprintf(w, "       %s\n", s.Payload)
		}
	}
}

func roundLabel(round int) string {
	if round == 0 {
		return "session"
	}
	return fmt.Sprintf("round %d", round)
}

func statsLine(s InspectSession) string {
	return fmt.Sprintf("left %d  right %d  matched %d  missing right %d  missing left %d",
		s.LeftCount, s.RightCount, s.Matched, s.MissingRight, s.MissingLeft)
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
