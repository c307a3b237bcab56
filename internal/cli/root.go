// Package cli implements ledgerctl, a command-line client for the ledger API.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"credentia/internal/eventlog"
	"credentia/internal/ledger/handler"
	"credentia/internal/ledger/models"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// DefaultServer is used when --server is not given.
const DefaultServer = "http://localhost:8080"

type options struct {
	server     string
	format     string
	httpClient *http.Client
}

func (o *options) client() *Client {
	return NewClient(o.server, o.httpClient)
}

// NewRootCommand builds the ledgerctl command tree. httpClient may be nil.
func NewRootCommand(httpClient *http.Client) *cobra.Command {
	opts := &options{httpClient: httpClient}

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Issue and verify credentials on a credentia ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.format != FormatText && opts.format != FormatJSON {
				return fmt.Errorf("--format must be %q or %q", FormatText, FormatJSON)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.server, "server", DefaultServer, "ledger server base URL")
	root.PersistentFlags().StringVar(&opts.format, "format", FormatText, "output format: text|json")

	root.AddCommand(
		newIssueCommand(opts),
		newVerifyCommand(opts),
		newListCommand(opts),
		newEventsCommand(opts),
	)
	return root
}

func newIssueCommand(opts *options) *cobra.Command {
	var req handler.IssueRequest
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a credential and wait for it to be mined",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := opts.client().Issue(cmd.Context(), req)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.format, resp, func(w io.Writer) {
				fmt.Fprintf(w, "Transaction Mined! Block #%d\n", resp.BlockNumber)
				fmt.Fprintf(w, "Record ID: %s\n", resp.RecordID)
				fmt.Fprintf(w, "Certificate copy sent to %s\n", resp.NotifiedEmail)
			})
		},
	}
	cmd.Flags().StringVar(&req.StudentName, "name", "", "student name")
	cmd.Flags().StringVar(&req.StudentID, "student-id", "", "student ID")
	cmd.Flags().StringVar(&req.StudentEmail, "email", "", "student email")
	cmd.Flags().StringVar(&req.CourseName, "course", "", "course name")
	cmd.Flags().StringVar(&req.Institution, "institution", "", "issuing institution")
	return cmd
}

func newVerifyCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify RECORD_ID",
		Short: "Look a credential up by record ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := opts.client().Verify(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.format, record, func(w io.Writer) {
				writeRecord(w, *record)
			})
		},
	}
}

func newListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List committed credentials in block order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := opts.client().List(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.format, resp, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "BLOCK\tRECORD ID\tSTUDENT ID\tCOURSE")
				for _, r := range resp.Records {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.BlockNumber, r.RecordID, r.StudentID, r.CourseName)
				}
				_ = tw.Flush()
				fmt.Fprintf(w, "%d record(s)\n", resp.Size)
			})
		},
	}
}

func newEventsCommand(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the ledger event log, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			resp, err := opts.client().Events(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.format, resp, func(w io.Writer) {
				for _, e := range resp.Entries {
					fmt.Fprintf(w, "[%s] %-7s %s\n", e.Display, severityLabel(e.Severity), e.Message)
				}
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "show only the newest n entries")
	return cmd
}

func render(w io.Writer, format string, v any, text func(io.Writer)) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func writeRecord(w io.Writer, r models.CredentialRecord) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Record ID:\t%s\n", r.RecordID)
	fmt.Fprintf(tw, "Student:\t%s (%s)\n", r.StudentName, r.StudentID)
	fmt.Fprintf(tw, "Course:\t%s\n", r.CourseName)
	fmt.Fprintf(tw, "Institution:\t%s\n", r.Institution)
	fmt.Fprintf(tw, "Issued:\t%s\n", r.IssueDate.Format(time.RFC3339))
	fmt.Fprintf(tw, "Issuer:\t%s\n", r.Issuer)
	fmt.Fprintf(tw, "Block:\t#%d\n", r.BlockNumber)
	fmt.Fprintf(tw, "Valid:\t%t\n", r.IsValid)
	_ = tw.Flush()
}

func severityLabel(s eventlog.Severity) string {
	switch s {
	case eventlog.SeveritySuccess:
		return "SUCCESS"
	case eventlog.SeverityError:
		return "ERROR"
	default:
		return "INFO"
	}
}
