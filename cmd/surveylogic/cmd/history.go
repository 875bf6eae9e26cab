package cmd

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/solatis/surveylogic/internal/types"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <survey>",
	Short: "List recorded scans for a survey",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <scan-id>",
	Short: "Show the rule items of a recorded scan",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.Flags().Int("limit", 20, "maximum number of scans to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	scans, err := store.ListScans(ctx, args[0], limit)
	if err != nil {
		return err
	}
	if len(scans) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no scans recorded for %q\n", args[0])
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCAN ID\tCREATED\tMODE\tITEMS")
	for _, s := range scans {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", s.ScanID, s.CreatedAt, s.Mode, s.ItemCount)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	id, err := types.ParseScanID(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	scan, err := store.GetScan(ctx, id)
	if errors.Is(err, types.ErrScanNotFound) {
		return fmt.Errorf("scan %s not found", id)
	}
	if err != nil {
		return err
	}
	items, err := store.ScanItems(ctx, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "survey: %s\ncreated: %s\nmode: %s\n\n", scan.Survey, scan.CreatedAt, scan.Mode)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tRULE TYPE\tELEMENT\tTYPE\tEXPRESSION")
	for _, it := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", it.Position, it.RuleType, it.ElementName, it.ElementType, it.Expression)
	}
	return w.Flush()
}
