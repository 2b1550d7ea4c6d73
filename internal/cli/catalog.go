package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var catalogJSON bool

// catalogCmd represents the catalog command
var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the rule catalog",
	Long: `Inspect the rule classes and heritage areas the engine decides against.
Reference data given with --areas is merged before listing.`,
}

var catalogClassesCmd = &cobra.Command{
	Use:   "classes",
	Short: "List rule classes and their conditions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(loadConfig())
		if err != nil {
			return err
		}
		if catalogJSON {
			return printJSON(cat.Classes())
		}

		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Printf("  Rule Classes (catalog %s)\n", cat.Version())
		fmt.Println("═══════════════════════════════════════════════════════════")
		fmt.Println()
		for _, rc := range cat.Classes() {
			fmt.Printf("Class %s  %s\n", rc.ID, rc.Name)
			fmt.Printf("  %s\n", rc.Reference)
			if len(rc.ExcludedFor) > 0 {
				excluded := make([]string, len(rc.ExcludedFor))
				for i, t := range rc.ExcludedFor {
					excluded[i] = string(t)
				}
				fmt.Printf("  Not available for: %s\n", strings.Join(excluded, ", "))
			}
			for _, cond := range rc.Conditions {
				fmt.Printf("  - %-28s %s\n", cond.ID, cond.Description)
			}
			fmt.Println()
		}
		return nil
	},
}

var catalogAreasCmd = &cobra.Command{
	Use:   "areas",
	Short: "List Article 4 areas and the classes they remove",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog(loadConfig())
		if err != nil {
			return err
		}
		if catalogJSON {
			return printJSON(cat.Article4Areas())
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "AREA\tBOROUGH\tREMOVES\tRESTRICTIONS")
		for _, a := range cat.Article4Areas() {
			classes := make([]string, len(a.Nullifies))
			for i, c := range a.Nullifies {
				classes[i] = string(c)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Name, a.Borough, strings.Join(classes, ","), strings.Join(a.Restrictions, "; "))
		}
		return w.Flush()
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogClassesCmd)
	catalogCmd.AddCommand(catalogAreasCmd)
	catalogCmd.PersistentFlags().BoolVar(&catalogJSON, "json", false, "print JSON instead of a table")
}
