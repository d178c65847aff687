package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/AI-Template-SDK/senso-visibility/internal/gazetteer"
)

var gazetteerCmd = &cobra.Command{
	Use:   "gazetteer [name]",
	Short: "List the global gazetteer or look up one name",
	Long: `List the entries of the global gazetteer, or resolve a single name
(aliases included) to its canonical entry.

Examples:
  gazetteer
  gazetteer "salesforce crm"
  gazetteer --file ./global.yaml --category crm`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGazetteer,
}

func init() {
	gazetteerCmd.Flags().String("file", "", "gazetteer YAML to read instead of the embedded one")
	gazetteerCmd.Flags().String("category", "", "only list entries in this category")
	rootCmd.AddCommand(gazetteerCmd)
}

func runGazetteer(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("file")
	category, _ := cmd.Flags().GetString("category")

	g, err := loadGazetteer(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		entry, ok := g.Lookup(args[0])
		if !ok {
			return eris.Errorf("%q is not in the gazetteer", args[0])
		}
		fmt.Fprintf(out, "%s\t%s\t%.2f\n", entry.CanonicalName, entry.Category, entry.Confidence)
		return nil
	}

	entries := g.Entries()
	sort.Slice(entries, func(i, j int) bool { return entries[i].CanonicalName < entries[j].CanonicalName })

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCATEGORY\tCONFIDENCE\tALIASES")
	for _, e := range entries {
		if category != "" && !strings.EqualFold(e.Category, category) {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", e.CanonicalName, e.Category, e.Confidence, strings.Join(e.Aliases, ", "))
	}
	return w.Flush()
}

func loadGazetteer(path string) (*gazetteer.Gazetteer, error) {
	if path == "" && cfg != nil {
		path = cfg.Detection.GlobalGazetteerPath
	}
	if path == "" {
		return gazetteer.LoadGlobal()
	}
	return gazetteer.LoadFile(path)
}
