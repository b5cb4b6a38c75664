package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/orgraph/orgraph/internal/aggregator"
	"github.com/orgraph/orgraph/internal/collector"
	"github.com/orgraph/orgraph/internal/config"
	"github.com/orgraph/orgraph/internal/domain"
	"github.com/orgraph/orgraph/internal/fetcher"
	"github.com/orgraph/orgraph/internal/storage"
	"github.com/orgraph/orgraph/internal/storage/file"
	"github.com/orgraph/orgraph/internal/storage/postgres"
	"github.com/orgraph/orgraph/internal/storage/sqlite"
)

var (
	outputJSON bool
	mode       string
	stages     string
	visibility string
)

var rootCmd = &cobra.Command{
	Use:   "orgraph",
	Short: "GitHub collaboration graph snapshot tool",
	Long: `A CLI tool for building local snapshots of a GitHub organization's
collaboration graph: members, repositories, pull request authorship and
per-author contribution statistics.`,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [owner]",
	Short: "Fetch data from GitHub into the local snapshot",
	Long: `Fetch data for a GitHub organization or user account and fold it into
the local snapshot document. Stages run in a fixed order; a subset can be
selected with --stages to resume or refresh part of a snapshot.`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show data from a stored snapshot",
}

var showSummaryCmd = &cobra.Command{
	Use:   "summary [owner]",
	Short: "Show the owner-level rollup",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowSummary,
}

var showMembersCmd = &cobra.Command{
	Use:   "members [owner]",
	Short: "Show the owner's members",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowMembers,
}

var showReposCmd = &cobra.Command{
	Use:   "repos [owner]",
	Short: "Show the owner's repositories",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowRepos,
}

var showNonMembersCmd = &cobra.Command{
	Use:   "nonmembers [owner]",
	Short: "Show non-member pull request authors",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowNonMembers,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")

	fetchCmd.Flags().StringVar(&mode, "mode", "org", "owner kind (org or user)")
	fetchCmd.Flags().StringVar(&stages, "stages", "all", "comma-separated stage list or 'all'")
	fetchCmd.Flags().StringVar(&visibility, "visibility", "", "repo visibility filter (public or private)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(showCmd)
	showCmd.AddCommand(showSummaryCmd)
	showCmd.AddCommand(showMembersCmd)
	showCmd.AddCommand(showReposCmd)
	showCmd.AddCommand(showNonMembersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func getStorage(cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresStorage(cfg.PostgresURL)
	case "sqlite":
		return sqlite.NewSQLiteStorage(cfg.SQLitePath)
	default:
		return file.NewFileStorage(cfg.DataDir)
	}
}

func runFetch(cmd *cobra.Command, args []string) error {
	owner := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var kind domain.OwnerKind
	switch mode {
	case "org":
		kind = domain.OwnerKindOrg
	case "user":
		kind = domain.OwnerKindUser
	default:
		return fmt.Errorf("invalid mode %q (must be org or user)", mode)
	}

	stageSet, err := fetcher.ParseStages(stages)
	if err != nil {
		return err
	}

	var visibilityFilter string
	switch strings.ToLower(visibility) {
	case "":
	case "public":
		visibilityFilter = "PUBLIC"
	case "private":
		visibilityFilter = "PRIVATE"
	default:
		return fmt.Errorf("invalid visibility %q (must be public or private)", visibility)
	}

	store, err := getStorage(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	coll := collector.NewGitHubCollector(cfg.GitHubToken)
	f := fetcher.New(coll, store)

	skipped, err := f.Run(context.Background(), fetcher.Options{
		Owner:      owner,
		Kind:       kind,
		Stages:     stageSet,
		Visibility: visibilityFilter,
	})
	reportSkipped(skipped)
	if err != nil {
		return fmt.Errorf("fetch aborted: %w", err)
	}

	fmt.Println("Fetch complete!")
	return nil
}

func reportSkipped(skipped []fetcher.Skipped) {
	if len(skipped) == 0 {
		return
	}
	fmt.Printf("\n%d item(s) skipped:\n", len(skipped))
	for _, s := range skipped {
		fmt.Printf("  [%s] %s: %v\n", s.Stage, s.Item, s.Err)
	}
}

func loadSnapshot(owner string) (*domain.Snapshot, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := getStorage(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	snap, err := store.Load(context.Background(), owner)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return snap, func() { store.Close() }, nil
}

func runShowSummary(cmd *cobra.Command, args []string) error {
	snap, done, err := loadSnapshot(args[0])
	if err != nil {
		return err
	}
	defer done()

	summary := aggregator.Summarize(snap)

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(summary)
	}

	fmt.Printf("\nSnapshot Summary: %s\n", args[0])
	if !snap.LastUpdated.IsZero() {
		fmt.Printf("Last updated: %s\n", snap.LastUpdated.Format("2006-01-02 15:04:05"))
	}
	fmt.Println()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Members", fmt.Sprintf("%d", summary.Members)})
	table.Append([]string{"Repositories", fmt.Sprintf("%d", summary.Repos)})
	table.Append([]string{"Non-member Authors", fmt.Sprintf("%d", summary.NonMembers)})
	table.Append([]string{"Merged Pull Requests", fmt.Sprintf("%d", summary.TotalMergedPRs)})
	if summary.ActiveFrom != nil && summary.ActiveTo != nil {
		table.Append([]string{"Active Span", fmt.Sprintf("%s to %s",
			summary.ActiveFrom.Format("2006-01-02"), summary.ActiveTo.Format("2006-01-02"))})
	}
	table.Render()

	if len(summary.TopCollaborators) > 0 {
		fmt.Println("\nTop Collaborators")
		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Login", "Merged PRs"})
		for _, c := range summary.TopCollaborators {
			table.Append([]string{c.Login, fmt.Sprintf("%d", c.MergedPRs)})
		}
		table.Render()
	}

	return nil
}

func runShowMembers(cmd *cobra.Command, args []string) error {
	snap, done, err := loadSnapshot(args[0])
	if err != nil {
		return err
	}
	defer done()

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(snap.Members)
	}

	fmt.Printf("\nMembers: %s\n\n", args[0])
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Login", "Name", "Followers", "Public Repos", "Merged PRs"})
	for _, m := range snap.Members {
		prs := "-"
		if m.PRs != nil {
			prs = fmt.Sprintf("%d", m.PRs.Total)
		}
		table.Append([]string{
			m.Login,
			m.Name,
			fmt.Sprintf("%d", m.Followers),
			fmt.Sprintf("%d", m.PublicRepos),
			prs,
		})
	}
	table.Render()

	return nil
}

func runShowRepos(cmd *cobra.Command, args []string) error {
	snap, done, err := loadSnapshot(args[0])
	if err != nil {
		return err
	}
	defer done()

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(snap.Repos)
	}

	fmt.Printf("\nRepositories: %s\n\n", args[0])
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Stars", "Total PRs", "Collaborators", "Last User Merge"})
	for _, r := range snap.Repos {
		lastMerge := "-"
		if r.LastUserPRMergedAt != nil {
			lastMerge = r.LastUserPRMergedAt.Format("2006-01-02")
		}
		table.Append([]string{
			r.Name,
			fmt.Sprintf("%d", r.Stargazers),
			fmt.Sprintf("%d", r.TotalPRs),
			fmt.Sprintf("%d", len(r.Collaborators)),
			lastMerge,
		})
	}
	table.Render()

	return nil
}

func runShowNonMembers(cmd *cobra.Command, args []string) error {
	snap, done, err := loadSnapshot(args[0])
	if err != nil {
		return err
	}
	defer done()

	if outputJSON {
		return json.NewEncoder(os.Stdout).Encode(snap.NonMembers)
	}

	fmt.Printf("\nNon-member Authors: %s\n\n", args[0])
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Login", "Name", "Followers", "Merged PRs", "First Merge", "Last Merge"})
	for _, u := range snap.NonMembers {
		prs := "-"
		if u.PRs != nil {
			prs = fmt.Sprintf("%d", u.PRs.Total)
		}
		first, last := "-", "-"
		if dates, ok := snap.PRDates[u.Login]; ok {
			first = dates.Earliest.Format("2006-01-02")
			last = dates.Latest.Format("2006-01-02")
		}
		table.Append([]string{
			u.Login,
			u.Name,
			fmt.Sprintf("%d", u.Followers),
			prs,
			first,
			last,
		})
	}
	table.Render()

	return nil
}
