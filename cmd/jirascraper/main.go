package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"jirascraper/pkg/auth"
	"jirascraper/pkg/config"
	errs "jirascraper/pkg/errors"
	"jirascraper/pkg/logger"
	"jirascraper/pkg/scraper"
	"jirascraper/pkg/validate"
)

var version = "1.0.0"

func main() {
	root := newRootCommand()

	if err := root.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps the error taxonomy to distinct exit codes so wrapper
// scripts can tell a rate-limit abort from a malformed dataset.
func exitCode(err error) int {
	switch errs.KindOf(err) {
	case errs.KindTransient:
		return 2
	case errs.KindRateLimited:
		return 3
	case errs.KindMalformed:
		return 4
	case errs.KindIO:
		return 5
	default:
		return 1
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "jirascraper",
		Usage:   "Harvest issues and comments from a Jira instance into JSONL datasets",
		Version: version,
		Commands: []*cli.Command{
			newScrapeCommand(),
			newValidateCommand(),
			newAuthCommand(),
		},
	}
}

func newScrapeCommand() *cli.Command {
	return &cli.Command{
		Name:  "scrape",
		Usage: "Scrape configured projects, resuming from checkpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to config file"},
			&cli.StringFlag{Name: "base-url", Usage: "Jira REST API base URL"},
			&cli.StringSliceFlag{Name: "projects", Aliases: []string{"p"}, Usage: "project keys to scrape"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output directory"},
			&cli.StringFlag{Name: "checkpoint", Usage: "checkpoint file name"},
			&cli.IntFlag{Name: "page-size", Usage: "issues per page"},
			&cli.IntFlag{Name: "max-issues", Usage: "cap on issues per project (0 = unlimited)"},
			&cli.IntFlag{Name: "rate-limit", Usage: "max requests per minute"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
			&cli.BoolFlag{Name: "fresh", Usage: "ignore existing checkpoints and start over"},
		},
		Action: runScrape,
	}
}

func runScrape(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	resolveToken(cfg, log)

	s := scraper.New(cfg)

	if cmd.Bool("fresh") {
		for _, project := range cfg.Scrape.Projects {
			if err := os.Remove(s.CheckpointPath(project)); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove checkpoint for %s: %w", project, err)
			}
		}
		log.Info("existing checkpoints discarded")
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := s.Run(runCtx)

	printSummary(summary)

	if err != nil {
		if runCtx.Err() != nil {
			log.Warn("scrape interrupted; progress is checkpointed, rerun to resume")
		}
		return err
	}
	return nil
}

func printSummary(summary *scraper.Summary) {
	if summary == nil || len(summary.Projects) == 0 {
		return
	}

	fmt.Println()
	fmt.Println("Project    Written  Skipped  Comments  Pages")
	for _, stats := range summary.Projects {
		fmt.Printf("%-10s %7d  %7d  %8d  %5d\n",
			stats.Project, stats.IssuesWritten, stats.IssuesSkipped,
			stats.CommentsFetched, stats.PagesFetched)
	}
	fmt.Printf("\nTotal: %d issues, %d comments in %s\n",
		summary.IssuesWritten, summary.CommentsFetched, summary.Elapsed.Round(time.Millisecond))
}

func loadConfig(cmd *cli.Command) (*config.Config, error) {
	flags := map[string]interface{}{
		"base-url":   cmd.String("base-url"),
		"output":     cmd.String("output"),
		"checkpoint": cmd.String("checkpoint"),
		"page-size":  int(cmd.Int("page-size")),
		"max-issues": int(cmd.Int("max-issues")),
		"rate-limit": int(cmd.Int("rate-limit")),
		"log-level":  cmd.String("log-level"),
	}
	if projects := cmd.StringSlice("projects"); len(projects) > 0 {
		flags["projects"] = projects
	}

	return config.Load(cmd.String("config"), flags)
}

// resolveToken fills in the API token from the credential store when
// neither flag, environment nor config file provided one.
func resolveToken(cfg *config.Config, log logger.Logger) {
	if cfg.Jira.APIToken != "" {
		return
	}

	manager, err := auth.NewManager()
	if err != nil {
		return
	}

	account, err := manager.Retrieve(siteOf(cfg.Jira.BaseURL))
	if err != nil {
		return
	}

	cfg.Jira.APIToken = account.APIToken
	log.Debug("API token loaded from credential store")
}

// siteOf reduces a base URL to the host used as a credential key
func siteOf(baseURL string) string {
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		return u.Host
	}
	return baseURL
}

func newValidateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate JSONL dataset files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "output", Usage: "output directory to validate"},
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "validate a single file instead of a directory"},
		},
		Action: runValidate,
	}
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	if err := logger.Initialize(&config.LoggingConfig{Level: "warn"}); err != nil {
		return err
	}
	log := logger.GetLogger()

	var reports []*validate.Report
	if file := cmd.String("file"); file != "" {
		report, err := validate.File(file, log)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	} else {
		var err error
		reports, err = validate.Directory(cmd.String("output"), log)
		if err != nil {
			return err
		}
	}

	allValid := true
	for _, report := range reports {
		printReport(report)
		if !report.Valid() {
			allValid = false
		}
	}

	if !allValid {
		return errs.New(errs.KindMalformed, "validation failed")
	}
	fmt.Println("\nAll files valid.")
	return nil
}

func printReport(report *validate.Report) {
	fmt.Printf("\n%s\n", report.Path)
	fmt.Println(strings.Repeat("-", len(report.Path)))
	fmt.Printf("  lines: %d  valid: %d  invalid: %d  duplicates: %d  (%.1f%%)\n",
		report.TotalLines, report.ValidLines, report.InvalidLines,
		report.DuplicateKeys, report.SuccessRate())

	if len(report.TrainingTasks) > 0 {
		fmt.Println("  training tasks:")
		for task, count := range report.TrainingTasks {
			fmt.Printf("    %-20s %d\n", task, count)
		}
	}

	for _, msg := range report.Errors {
		fmt.Printf("  ! %s\n", msg)
	}
}

func newAuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Jira API credentials",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Store an API token for a Jira site",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "site", Required: true, Usage: "Jira host, e.g. issues.apache.org"},
					&cli.StringFlag{Name: "token", Usage: "API token (prompted when omitted)"},
				},
				Action: runAuthLogin,
			},
			{
				Name:   "show",
				Usage:  "List stored credentials with tokens masked",
				Action: runAuthShow,
			},
			{
				Name:  "logout",
				Usage: "Remove stored credentials for a site",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "site", Required: true, Usage: "Jira host to forget"},
				},
				Action: runAuthLogout,
			},
		},
	}
}

func runAuthLogin(ctx context.Context, cmd *cli.Command) error {
	token := cmd.String("token")
	if token == "" {
		var err error
		token, err = promptToken()
		if err != nil {
			return err
		}
	}

	manager, err := auth.NewManager()
	if err != nil {
		return err
	}

	account := &auth.Account{Site: cmd.String("site"), APIToken: token}
	if err := manager.Store(account); err != nil {
		return err
	}

	fmt.Printf("Credentials stored for %s\n", account.Site)
	return nil
}

func promptToken() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no token given and stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, "API token: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", fmt.Errorf("empty token")
	}
	return token, nil
}

func runAuthShow(ctx context.Context, cmd *cli.Command) error {
	manager, err := auth.NewManager()
	if err != nil {
		return err
	}

	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("No stored credentials.")
		return nil
	}

	for _, account := range accounts {
		masked := auth.SanitizeAccount(account)
		fmt.Printf("%s  token=%s  modified=%s\n",
			masked.Site, masked.APIToken, masked.LastModified.Format("2006-01-02 15:04"))
	}
	return nil
}

func runAuthLogout(ctx context.Context, cmd *cli.Command) error {
	manager, err := auth.NewManager()
	if err != nil {
		return err
	}

	site := cmd.String("site")
	if err := manager.Delete(site); err != nil {
		return err
	}

	fmt.Printf("Credentials removed for %s\n", site)
	return nil
}
