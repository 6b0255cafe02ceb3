package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/adxyz/adstats/pkg/archive"
	"github.com/adxyz/adstats/pkg/config"
	"github.com/adxyz/adstats/pkg/ingest"
	"github.com/adxyz/adstats/pkg/insight"
	"github.com/adxyz/adstats/pkg/log"
	"github.com/adxyz/adstats/pkg/report"
)

const version = "1.0.0"

var globalFlags struct {
	ConfigPath string
	SchemaPath string
	DBPath     string
	JSON       bool
	Verbose    bool
}

var rootCmd = &cobra.Command{
	Use:   "adstats",
	Short: "adstats - campaign delivery analytics",
	Long: `adstats analyzes ad campaign delivery exports: temporal trends,
efficiency, anomalies, goal tracking, and rule-based insights.

Quick start:
  adstats campaigns --file "Domain Report.csv"
  adstats report --file "Domain Report.csv" --campaign 4512 --goal 1000000
  adstats archive list`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&globalFlags.SchemaPath, "schema", "", "path to schema registry YAML (default: built-in)")
	rootCmd.PersistentFlags().StringVar(&globalFlags.DBPath, "db", "", "path to report archive database")
	rootCmd.PersistentFlags().BoolVar(&globalFlags.JSON, "json", false, "emit JSON instead of tables")
	rootCmd.PersistentFlags().BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newInsightsCmd())
	rootCmd.AddCommand(newCampaignsCmd())
	rootCmd.AddCommand(newArchiveCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the adstats version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("adstats", version)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newService wires the report service from global flags. The archive is
// opened only when a database path is configured or defaulted by archiving.
func newService(goal int64, withArchive bool) (*report.Service, *archive.Archive, error) {
	cfg, err := config.Load(globalFlags.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	if goal > 0 {
		cfg.CampaignGoal = goal
	}
	if globalFlags.DBPath != "" {
		cfg.Archive.Path = globalFlags.DBPath
	}

	schemaPath := cfg.Ingest.SchemaRegistry
	if globalFlags.SchemaPath != "" {
		schemaPath = globalFlags.SchemaPath
	}
	registry := ingest.DefaultRegistry()
	if schemaPath != "" {
		registry, err = ingest.LoadRegistry(schemaPath)
		if err != nil {
			return nil, nil, err
		}
	}

	logger := log.NoOp()
	if globalFlags.Verbose {
		logger = log.NewWithLevel("debug")
	}

	var arch *archive.Archive
	if withArchive {
		arch, err = archive.Open(cfg.Archive.Path)
		if err != nil {
			return nil, nil, err
		}
	}
	return report.NewService(registry, cfg, logger, nil, arch), arch, nil
}

func newReportCmd() *cobra.Command {
	var (
		file       string
		campaignID int64
		goal       int64
		noArchive  bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the full analytics report for one campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, arch, err := newService(goal, !noArchive)
			if err != nil {
				return err
			}
			if arch != nil {
				defer arch.Close()
			}

			out, err := svc.GenerateFromFile(file, campaignID)
			if err != nil {
				return err
			}
			if globalFlags.JSON {
				return printJSON(os.Stdout, out)
			}
			renderReport(os.Stdout, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to delivery export CSV")
	cmd.Flags().Int64Var(&campaignID, "campaign", 0, "campaign ID to analyze")
	cmd.Flags().Int64Var(&goal, "goal", 0, "impression goal for pacing analysis")
	cmd.Flags().BoolVar(&noArchive, "no-archive", false, "skip writing the run to the archive")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("campaign")
	return cmd
}

func newInsightsCmd() *cobra.Command {
	var (
		file       string
		campaignID int64
	)
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Run only the insight rules for one campaign",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := newService(0, false)
			if err != nil {
				return err
			}
			out, err := svc.GenerateFromFile(file, campaignID)
			if err != nil {
				return err
			}
			if globalFlags.JSON {
				return printJSON(os.Stdout, out.Insights)
			}
			renderInsights(os.Stdout, out.Insights)
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to delivery export CSV")
	cmd.Flags().Int64Var(&campaignID, "campaign", 0, "campaign ID to analyze")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("campaign")
	return cmd
}

func newCampaignsCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "campaigns",
		Short: "List campaign IDs present in an export",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := newService(0, false)
			if err != nil {
				return err
			}
			ids, err := svc.AvailableCampaigns(file)
			if err != nil {
				return err
			}
			if globalFlags.JSON {
				return printJSON(os.Stdout, ids)
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to delivery export CSV")
	cmd.MarkFlagRequired("file")
	return cmd
}

func newArchiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Inspect archived report runs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := openArchive()
			if err != nil {
				return err
			}
			defer arch.Close()

			summaries, err := arch.List()
			if err != nil {
				return err
			}
			if globalFlags.JSON {
				return printJSON(os.Stdout, summaries)
			}
			printSimpleTable(os.Stdout,
				[]string{"Run ID", "Campaign", "Generated", "Insights"},
				func(add func(...string)) {
					for _, s := range summaries {
						add(s.RunID,
							strconv.FormatInt(s.CampaignID, 10),
							s.GeneratedAt.Format("2006-01-02 15:04:05"),
							strconv.Itoa(s.Insights))
					}
				})
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the full document of an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := openArchive()
			if err != nil {
				return err
			}
			defer arch.Close()

			run, found, err := arch.Get(args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("run %s not found", args[0])
			}
			os.Stdout.Write(run.Document)
			fmt.Println()
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arch, err := openArchive()
			if err != nil {
				return err
			}
			defer arch.Close()
			return arch.Delete(args[0])
		},
	})

	return cmd
}

func openArchive() (*archive.Archive, error) {
	cfg, err := config.Load(globalFlags.ConfigPath)
	if err != nil {
		return nil, err
	}
	if globalFlags.DBPath != "" {
		cfg.Archive.Path = globalFlags.DBPath
	}
	return archive.Open(cfg.Archive.Path)
}

func renderReport(w io.Writer, out *report.Output) {
	fmt.Fprintf(w, "Campaign %d | run %s\n", out.CampaignID, out.RunID)
	if out.StatPack != nil {
		sum := out.StatPack.ExecutiveSummary()
		goal := "no goal set"
		if sum.GoalCompletionPct != nil {
			goal = fmt.Sprintf("%.1f%% of goal", *sum.GoalCompletionPct)
		}
		fmt.Fprintf(w, "%d impressions | %.2f spend | %.2f%% CTR | %s | %d anomalies\n",
			sum.TotalImpressions, sum.TotalSpend, sum.AvgCTRPct, goal, sum.AnomalyCount)
		if sum.TopSpike != nil {
			fmt.Fprintf(w, "Top spike: %s %s %+.1f%%\n",
				sum.TopSpike.Metric, sum.TopSpike.Week, sum.TopSpike.PctChange)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "KPIs")
	printSimpleTable(w,
		[]string{"Impressions", "Clicks", "Spend", "CTR", "CPM"},
		func(add func(...string)) {
			add(strconv.FormatInt(out.KPIs.TotalImpressions, 10),
				strconv.FormatInt(out.KPIs.TotalClicks, 10),
				fmt.Sprintf("%.2f", out.KPIs.TotalSpend),
				fmt.Sprintf("%.4f%%", out.KPIs.CTR*100),
				fmt.Sprintf("%.2f", out.KPIs.CPM))
		})

	fmt.Fprintln(w, "\nWeekly performance")
	printSimpleTable(w,
		[]string{"Week", "Impressions", "Clicks", "Spend", "CTR", "VCR"},
		func(add func(...string)) {
			for _, row := range out.WeeklyPerformance {
				add(row.Week,
					strconv.FormatInt(row.Impressions, 10),
					strconv.FormatInt(row.Clicks, 10),
					fmt.Sprintf("%.2f", row.Spend),
					fmtPct(row.CTR),
					fmtPct(row.VCR))
			}
		})

	fmt.Fprintln(w, "\nPlatforms")
	printSimpleTable(w,
		[]string{"Platform", "Impressions", "Share", "CTR", "CPM"},
		func(add func(...string)) {
			for _, row := range out.PlatformBreakdown {
				add(row.Platform,
					strconv.FormatInt(row.Impressions, 10),
					fmt.Sprintf("%.2f%%", row.ImpressionShare),
					fmtPct(row.CTR),
					fmtNum(row.CPM))
			}
		})

	fmt.Fprintf(w, "\nTop domains (%.2f%% of impressions)\n", out.TopDomainSharePct)
	printSimpleTable(w,
		[]string{"Domain", "Impressions", "Share", "CTR", "Underperforming"},
		func(add func(...string)) {
			for _, d := range out.TopDomains {
				add(d.Domain,
					strconv.FormatInt(d.Impressions, 10),
					fmt.Sprintf("%.2f%%", d.ImpressionShare*100),
					fmt.Sprintf("%.4f%%", d.AvgCTR*100),
					strconv.FormatBool(d.IsUnderperforming))
			}
		})

	fmt.Fprintln(w)
	renderInsights(w, out.Insights)
}

func renderInsights(w io.Writer, insights []insight.Insight) {
	if len(insights) == 0 {
		fmt.Fprintln(w, "No insights fired.")
		return
	}
	fmt.Fprintln(w, "Insights")
	printSimpleTable(w,
		[]string{"Severity", "Rule", "Description"},
		func(add func(...string)) {
			for _, in := range insights {
				add(string(in.Severity), in.RuleID, in.Description)
			}
		})
}

// printSimpleTable renders a bordered table with headers using tablewriter.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	fill(func(cols ...string) {
		tw.Append(cols)
	})
	tw.Render()
}

func fmtPct(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f%%", *v)
}

func fmtNum(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
