package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/catalog"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/demo"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/domain"
)

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "Search the catalog by keyword",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().Int("page", 1, "Page number")
	searchCmd.Flags().Int("page-size", domain.DefaultPageSize, "Products per page (1-100)")
	searchCmd.Flags().String("category", "", "Category id")
	searchCmd.Flags().Bool("hot", false, "Query hot products instead of the keyword index")
	searchCmd.Flags().Bool("demo", false, "Print synthetic demo products without calling the provider")
	searchCmd.Flags().Bool("raw", false, "Print the provider reply as received")
	searchCmd.Flags().String("format", "json", "Output format: json, table")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	page, _ := cmd.Flags().GetInt("page")
	size, _ := cmd.Flags().GetInt("page-size")
	category, _ := cmd.Flags().GetString("category")
	hot, _ := cmd.Flags().GetBool("hot")
	useDemo, _ := cmd.Flags().GetBool("demo")
	raw, _ := cmd.Flags().GetBool("raw")
	format, _ := cmd.Flags().GetString("format")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	if page < 1 {
		return fmt.Errorf("page must be a positive integer")
	}
	if size < 1 || size > 100 {
		return fmt.Errorf("page-size must be between 1 and 100")
	}

	req := domain.SearchRequest{
		CategoryID: category,
		Page:       page,
		PageSize:   size,
		Sort:       domain.DefaultSort,
		Hot:        hot,
		DemoMode:   useDemo,
	}
	if len(args) == 1 {
		req.Keywords = strings.TrimSpace(args[0])
	}

	var products []domain.Product
	if useDemo {
		products = demo.NewPolicy(cfg.Demo()).Products(req)
	} else {
		builder, gateway := newCatalog()
		params, err := builder.Build(catalog.SearchOperation(req), catalog.SearchParams(req), nil, url.Values{})
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		reply, err := gateway.Call(ctx, params)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if raw {
			return writeJSON(os.Stdout, reply)
		}
		products = catalog.Normalize(reply)
	}

	if format == "table" {
		return printProductsTable(products)
	}
	return writeJSON(os.Stdout, products)
}

func printProductsTable(products []domain.Product) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRICE\tSOLD\tVIDEO\tTITLE")
	for _, p := range products {
		sold := "-"
		if p.SalesVolume != nil {
			sold = fmt.Sprint(*p.SalesVolume)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", p.ProductID, price(p.SalePrice, p.SalePriceCurrency), sold, p.HasVideo(), p.Title)
	}
	return w.Flush()
}

func price(d *decimal.Decimal, currency string) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2) + " " + currency
}
