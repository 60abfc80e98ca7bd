package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/chrisdamba/brewpos/internal/catalog"
	"github.com/chrisdamba/brewpos/internal/models"
	"github.com/spf13/cobra"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Print the menu, add-ons and the daily offers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cat := catalog.Default().WithLocation(cfg.Location())
		printMenu(cmd.OutOrStdout(), cat, cfg.Currency, time.Now())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(menuCmd)
}

func printMenu(out io.Writer, cat *catalog.Catalog, currency string, now time.Time) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprint(w, "Coffee")
	for _, size := range models.Sizes {
		fmt.Fprintf(w, "\t%s", size)
	}
	fmt.Fprintln(w)
	for _, item := range cat.Menu() {
		fmt.Fprint(w, item.CoffeeType)
		for _, size := range models.Sizes {
			fmt.Fprintf(w, "\t%s%s", currency, item.Prices[size].StringFixed(2))
		}
		fmt.Fprintln(w)
	}
	w.Flush()

	fmt.Fprintln(out, "\nAdd-ons:")
	for _, a := range cat.AddOns() {
		fmt.Fprintf(out, "  %-12s %s%s\n", a.Name, currency, a.Price.StringFixed(2))
	}

	today := cat.OfferFor(now)
	fmt.Fprintln(out, "\nDaily offers:")
	for _, o := range cat.Offers() {
		marker := " "
		if o.Day == today.Day {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %-9s %s\n", marker, o.Day, o.Description)
	}
}
