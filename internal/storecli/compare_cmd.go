package storecli

import (
	"context"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Manage the compare list (at most 4 products).",
}

var compareAddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Add a product to the compare list.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			return e.compare.Add(ctx, productFromFlags(args[0]))
		})
	},
}

var compareListCmd = &cobra.Command{
	Use:   "list",
	Short: "List compared products.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			items, err := e.compare.Items(ctx)
			if err != nil {
				return err
			}
			for _, item := range items {
				printf("%s  %s  %.2f", item.Product.ProductID, item.Product.Name, item.Product.EffectivePrice())
			}
			return nil
		})
	},
}

var compareRemoveCmd = &cobra.Command{
	Use:   "remove <product-id>",
	Short: "Remove a product from the compare list.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			return e.compare.Remove(ctx, args[0])
		})
	},
}

var compareClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the compare list.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			return e.compare.Clear(ctx)
		})
	},
}

func init() {
	compareAddCmd.Flags().StringVar(&flagProductName, "name", "", "product name")
	compareAddCmd.Flags().Float64Var(&flagPrice, "price", 0, "unit price")
	compareAddCmd.Flags().Float64Var(&flagSalePrice, "sale-price", 0, "discounted unit price")
	compareAddCmd.Flags().StringVar(&flagImage, "image", "", "product image URL")

	compareCmd.AddCommand(compareAddCmd, compareListCmd, compareRemoveCmd, compareClearCmd)
}
