package main

import (
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/patheras/prometheus-core/internal/laneq"
	"github.com/patheras/prometheus-core/internal/store"
)

// createStatsCommand creates the "stats" command: conversation counts, lane
// queue status, and metric aggregations rendered as tables.
func (c *CLI) createStatsCommand() *cobra.Command {
	var (
		metricType  string
		metricName  string
		metricLimit int
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show conversation, lane queue, and metric statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return c.handleError(err)
			}
			s, err := openStore(cfg)
			if err != nil {
				return c.handleError(err)
			}
			defer s.Close()

			engine, err := openEngine(cfg, s)
			if err != nil {
				return c.handleError(err)
			}

			conversations, err := engine.GetAllConversations(cmd.Context(), 20)
			if err != nil {
				return c.handleError(err)
			}
			printConversationTable(cmd, conversations)

			queue := openQueue(cfg)
			printLaneTable(cmd, cfg.Queue.LaneDefaults, queue)

			if metricType != "" || metricName != "" {
				result, err := engine.QueryMetrics(cmd.Context(), store.MetricQueryFilter{
					MetricType: metricType,
					MetricName: metricName,
					Limit:      metricLimit,
				})
				if err != nil {
					return c.handleError(err)
				}
				printMetricsTable(cmd, result.Aggregation)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&metricType, "metric-type", "", "include a metric aggregation for this metric_type")
	cmd.Flags().StringVar(&metricName, "metric-name", "", "narrow the metric aggregation to this metric_name")
	cmd.Flags().IntVar(&metricLimit, "limit", 0, "maximum number of metric rows to aggregate (0 means unlimited)")
	return cmd
}

func printConversationTable(cmd *cobra.Command, summaries []store.ConversationSummary) {
	fmt.Fprintln(cmd.OutOrStdout(), "Recent conversations")
	table := tablewriter.NewTable(cmd.OutOrStdout())
	table.Header([]string{"ID", "Title", "Messages", "Updated"})
	for _, cs := range summaries {
		table.Append([]string{
			cs.ID, cs.Title, fmt.Sprintf("%d", cs.MessageCount), cs.UpdatedAt.Format("2006-01-02 15:04"),
		})
	}
	table.Render()
}

func printLaneTable(cmd *cobra.Command, laneDefaults map[string]int, queue *laneq.Queue) {
	fmt.Fprintln(cmd.OutOrStdout(), "Lane queue status")
	names := make([]string, 0, len(laneDefaults))
	for name := range laneDefaults {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewTable(cmd.OutOrStdout())
	table.Header([]string{"Lane", "Queued", "Active", "Max", "Avg Wait (ms)"})
	for _, name := range names {
		st := queue.Status(name)
		table.Append([]string{
			name,
			fmt.Sprintf("%d", st.QueueDepth),
			fmt.Sprintf("%d", st.ActiveCount),
			fmt.Sprintf("%d", st.MaxConcurrent),
			fmt.Sprintf("%.1f", st.AvgWaitMs),
		})
	}
	table.Render()
}

func printMetricsTable(cmd *cobra.Command, agg *store.Aggregation) {
	fmt.Fprintln(cmd.OutOrStdout(), "Metric aggregation")
	if agg == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "  no matching metrics")
		return
	}
	table := tablewriter.NewTable(cmd.OutOrStdout())
	table.Header([]string{"Count", "Min", "Avg", "P50", "P95", "P99", "Max"})
	table.Append([]string{
		fmt.Sprintf("%d", agg.Count),
		fmt.Sprintf("%.2f", agg.Min),
		fmt.Sprintf("%.2f", agg.Avg),
		fmt.Sprintf("%.2f", agg.P50),
		fmt.Sprintf("%.2f", agg.P95),
		fmt.Sprintf("%.2f", agg.P99),
		fmt.Sprintf("%.2f", agg.Max),
	})
	table.Render()
}
