package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/meghashyamc/catalog/db/productdb"
	"github.com/meghashyamc/catalog/services/catalog"
	"github.com/spf13/cobra"
)

const defaultViewLimit = 10

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Inspect and maintain the product catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newViewCmd())
	rootCmd.AddCommand(newCountCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newClearCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newRunsCmd())

	return rootCmd
}

// catalogctl view
func newViewCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show products sorted by name",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			products, err := a.search.ListAll(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(products) > limit {
				products = products[:limit]
			}
			return printProducts(cmd.OutOrStdout(), products)
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultViewLimit, "maximum number of products to show (0 for all)")

	return cmd
}

// catalogctl count
func newCountCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of products",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			count, err := a.catalog.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total products: %d\n", count)
			return nil
		}),
	}
}

// catalogctl search <term>
func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search products by name, brand, category, sku or description",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			products, err := a.search.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(products) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No products match %q\n", args[0])
				return nil
			}
			return printProducts(cmd.OutOrStdout(), products)
		}),
	}
}

// catalogctl delete <id>
func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one product by id",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid product id %q", args[0])
			}

			if err := a.catalog.Delete(cmd.Context(), id); err != nil {
				if errors.Is(err, catalog.ErrProductNotFound) {
					return fmt.Errorf("no product with id %d", id)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted product %d\n", id)
			return nil
		}),
	}
}

// catalogctl clear --yes
func newClearCmd() *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every product",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if !confirmed {
				return errors.New("refusing to clear the catalog without --yes")
			}

			deleted, err := a.catalog.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d products\n", deleted)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "confirm deleting every product")

	return cmd
}

// catalogctl generate --count N
func newGenerateCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Insert a batch of random products",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if !cmd.Flags().Changed("count") {
				count = a.cfg.GetGenerateDefaultCount()
			}
			if count > a.cfg.GetGenerateMaxCount() {
				return fmt.Errorf("count must be at most %d", a.cfg.GetGenerateMaxCount())
			}

			result, err := a.generate.Generate(cmd.Context(), count, uuid.NewString())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Message())
			return nil
		}),
	}
	cmd.Flags().IntVarP(&count, "count", "c", 0, "number of products to generate (defaults to the configured count)")

	return cmd
}

// catalogctl runs
func newRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List recent generation runs",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			runs, err := a.generate.ListRuns()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REQUEST ID\tSTATUS\tREQUESTED\tINSERTED\tSKIPPED\tSTARTED")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n", run.RequestID, run.Status, run.Requested, run.Inserted, run.Skipped, run.StartedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		}),
	}
}

func printProducts(out io.Writer, products []productdb.Product) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBRAND\tCATEGORY\tPRICE\tSTOCK\tSKU")
	for _, product := range products {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%s\n",
			product.ID, product.Name, product.Brand, product.Category, product.Price.StringFixed(2), product.StockQuantity, product.SKU)
	}

	return w.Flush()
}
