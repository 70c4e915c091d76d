package storecli

import (
	"context"

	"github.com/spf13/cobra"
)

var wishlistCmd = &cobra.Command{
	Use:   "wishlist",
	Short: "Manage the wishlist (works signed out; moves to your account at login).",
}

var wishlistAddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Add a product to the wishlist.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			return e.wishlist.Add(ctx, productFromFlags(args[0]))
		})
	},
}

var wishlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List wishlist entries.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			items, err := e.wishlist.Items(ctx)
			if err != nil {
				return err
			}
			for _, item := range items {
				printf("%s  %s  %.2f", item.Product.ProductID, item.Product.Name, item.Product.EffectivePrice())
			}
			printf("%d items", len(items))
			return nil
		})
	},
}

var wishlistRemoveCmd = &cobra.Command{
	Use:   "remove <product-id>",
	Short: "Remove a product from the wishlist.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			return e.wishlist.Remove(ctx, args[0])
		})
	},
}

var wishlistClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the wishlist.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			return e.wishlist.Clear(ctx)
		})
	},
}

func init() {
	wishlistAddCmd.Flags().StringVar(&flagProductName, "name", "", "product name")
	wishlistAddCmd.Flags().Float64Var(&flagPrice, "price", 0, "unit price")
	wishlistAddCmd.Flags().Float64Var(&flagSalePrice, "sale-price", 0, "discounted unit price")
	wishlistAddCmd.Flags().StringVar(&flagImage, "image", "", "product image URL")

	wishlistCmd.AddCommand(wishlistAddCmd, wishlistListCmd, wishlistRemoveCmd, wishlistClearCmd)
}
