package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/solatis/surveylogic/internal/logic"
	"github.com/solatis/surveylogic/internal/survey"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scanCmd = &cobra.Command{
	Use:   "scan <survey.json>",
	Short: "Scan a survey document for visibility rules",
	Long: `Scan loads a survey document, lists the rule types available for it and
every element that carries a visibility rule. Use "-" to read from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Bool("record", false, "store the scan in the history database")
	scanCmd.Flags().String("name", "", "survey name for recorded scans (defaults to the survey title)")
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry := newRegistry(cfg)
	decoder := survey.NewDecoder(registry)

	var doc *survey.Document
	if args[0] == "-" {
		doc, err = decoder.ParseReader(cmd.InOrStdin())
	} else {
		doc, err = decoder.ParseFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to load survey: %w", err)
	}

	opts := cfg.EngineOptions()
	opts.Logger = logger
	engine := logic.NewEngine(doc, registry, opts)

	printScan(cmd.OutOrStdout(), engine)

	record, _ := cmd.Flags().GetBool("record")
	if !record {
		return nil
	}

	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = doc.Title()
	}
	if name == "" {
		return fmt.Errorf("--name required for surveys without a title")
	}

	id, err := store.Record(ctx, name, engine.Snapshot())
	if err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}
	logger.Info("scan recorded", zap.String("scan_id", string(id)), zap.String("survey", name))
	fmt.Fprintf(cmd.OutOrStdout(), "\nrecorded scan %s\n", id)
	return nil
}

func printScan(out io.Writer, engine *logic.Engine) {
	fmt.Fprintf(out, "mode: %s\n\n", engine.Mode())

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RULE TYPE\tCATEGORY\tPROPERTY\tVISIBLE")
	for _, rt := range engine.RuleTypes() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", rt.DisplayText(), rt.ElementCategory(), rt.PropertyName(), rt.Visible())
	}
	w.Flush()

	items := engine.Items()
	if len(items) == 0 {
		fmt.Fprintln(out, "\nno rules")
		return
	}

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RULE TYPE\tELEMENT\tTYPE\tEXPRESSION")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", it.RuleType.Name(), it.ElementName(), it.Element.Type(), it.Expression())
	}
	w.Flush()
}

