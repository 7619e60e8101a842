package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/api"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/ingestion"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/server"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/session"
	"github.com/Divas-Gupta30/policy-rag/waiver-console/internal/tui"
)

const uploadConcurrency = 4

var (
	filterYear  int
	filterGroup string
	filterState string
	asJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question and print the answer, sources and graph",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, strings.Join(args, " "), session.ModeExecute)
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain [question]",
	Short: "Print the backend's execution plan for a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, strings.Join(args, " "), session.ModeExplain)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload [file or directory]...",
	Short: "Check and upload documents to the backend",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUpload,
}

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List the waiver documents known to the backend",
	Args:  cobra.NoArgs,
	RunE:  runDocuments,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the session, view and graph as JSON for a browser graph view",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, cache := newClient(ctx)
		defer cache.Close()

		opts := server.Options{
			Loop:      session.NewLoop(session.NewController(client, logger), logger),
			Documents: client,
			Logger:    logger,
		}
		if cache != nil {
			opts.Cache = cache
		}
		return server.New(opts).Run(ctx, ":"+cfg.Port)
	},
}

func init() {
	for _, c := range []*cobra.Command{askCmd, explainCmd} {
		c.Flags().IntVar(&filterYear, "year", 0, "only documents from this year")
		c.Flags().StringVar(&filterGroup, "group", "", "only documents for this population group")
		c.Flags().StringVar(&filterState, "state", "", "only documents from this state")
	}
	askCmd.Flags().BoolVar(&asJSON, "json", false, "print the view state as JSON")
}

func filtersFromFlags(cmd *cobra.Command) api.Filters {
	f := api.Filters{Group: filterGroup, State: filterState}
	if cmd.Flags().Changed("year") {
		year := filterYear
		f.Year = &year
	}
	return f
}

// runOnce drives a single session through the same controller the
// interactive console uses.
func runOnce(cmd *cobra.Command, query string, mode session.Mode) error {
	client, cache := newClient(cmd.Context())
	defer cache.Close()

	return runSession(cmd.Context(), cmd.OutOrStdout(), client, query, filtersFromFlags(cmd), mode)
}

func runSession(ctx context.Context, out io.Writer, backend session.Backend, query string, f api.Filters, mode session.Mode) error {
	ctrl := session.NewController(backend, logger)
	call := ctrl.Submit(query, f, mode)
	if call == nil {
		return fmt.Errorf("question is empty")
	}
	res := call(ctx)
	ctrl.Resolve(res)
	v := ctrl.View()

	switch {
	case mode == session.ModeExplain:
		fmt.Fprintln(out, tui.RenderPlan(v.Plan, v.PlanError))
	case asJSON:
		if err := writeJSON(out, v); err != nil {
			return err
		}
	default:
		renderer, _ := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		fmt.Fprintln(out, tui.RenderResults(renderer, v))
	}

	if v.Status != session.StatusFailed {
		return nil
	}
	if res.Err != nil {
		return fmt.Errorf("%s failed: %w", mode, res.Err)
	}
	return fmt.Errorf("%s failed: backend returned no result", mode)
}

func runDocuments(cmd *cobra.Command, args []string) error {
	client, cache := newClient(cmd.Context())
	defer cache.Close()

	docs, err := client.Documents(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No documents.")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		Headers("STATE", "APPLICATION", "PROGRAM", "TYPE", "APPROVED", "PREVIEW")
	for _, d := range docs {
		t.Row(d.State, d.ApplicationNumber, d.ProgramTitle, d.ApplicationType, d.ApprovedEffectiveDate, client.PreviewURL(d))
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

type uploadOutcome struct {
	candidate ingestion.Candidate
	meta      *api.UploadMetadata
	err       error
}

func runUpload(cmd *cobra.Command, args []string) error {
	paths, err := ingestion.CollectFiles(args...)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no uploadable files found")
	}

	client, cache := newClient(cmd.Context())
	defer cache.Close()

	candidates := ingestion.PreflightAll(paths)
	outcomes := make([]uploadOutcome, len(candidates))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(uploadConcurrency)
	for i, c := range candidates {
		i, c := i, c
		outcomes[i].candidate = c
		if !c.OK() {
			outcomes[i].err = c.Err
			continue
		}
		g.Go(func() error {
			f, err := os.Open(c.Path)
			if err != nil {
				outcomes[i].err = err
				return nil
			}
			defer f.Close()
			outcomes[i].meta, outcomes[i].err = client.Upload(ctx, c.Path, f)
			if outcomes[i].err != nil {
				logger.Warn("upload failed", zap.String("file", c.Path), zap.Error(outcomes[i].err))
			}
			return nil
		})
	}
	_ = g.Wait()

	return printUploads(cmd.OutOrStdout(), outcomes)
}

func printUploads(w io.Writer, outcomes []uploadOutcome) error {
	ok := lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981"))
	bad := lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))

	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			fmt.Fprintf(w, "%s %s: %v\n", bad.Render("✗"), o.candidate.Path, o.err)
			continue
		}
		detail := o.candidate.MIME
		if o.candidate.Pages > 0 {
			detail += fmt.Sprintf(", %d pages", o.candidate.Pages)
		}
		fmt.Fprintf(w, "%s %s (%s) → %s\n", ok.Render("✓"), o.candidate.Path, detail, o.meta.Filename)
		for _, line := range metadataLines(o.meta.Fields) {
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(outcomes))
	}
	return nil
}

// metadataLines prints the backend's extracted fields other than the ones
// already shown, sorted by key.
func metadataLines(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		switch k {
		case "filename", "size", "content_type":
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+cast.ToString(fields[k]))
	}
	return lines
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
