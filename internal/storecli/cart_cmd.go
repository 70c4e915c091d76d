package storecli

import (
	"context"

	"github.com/atelierline/storesync/storetypes"
	"github.com/spf13/cobra"
)

var (
	flagProductName string
	flagPrice       float64
	flagSalePrice   float64
	flagImage       string
	flagQuantity    int
	flagSize        string
	flagColor       string
)

func productFromFlags(productID string) storetypes.ProductSnapshot {
	product := storetypes.ProductSnapshot{
		ProductID: productID,
		Name:      flagProductName,
		Image:     flagImage,
		Price:     flagPrice,
	}
	if flagSalePrice > 0 {
		sale := flagSalePrice
		product.SalePrice = &sale
	}
	return product
}

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage the cart (requires sign-in).",
}

var cartAddCmd = &cobra.Command{
	Use:   "add <product-id>",
	Short: "Add a product to the cart; same product and variant accumulates quantity.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			if err := e.cart.Add(ctx, productFromFlags(args[0]), flagQuantity, flagSize, flagColor); err != nil {
				return err
			}
			count, err := e.cart.Count(ctx)
			if err != nil {
				return err
			}
			printf("added %s (cart holds %d items)", args[0], count)
			return nil
		})
	},
}

var cartListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cart lines with the running total.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			items, err := e.cart.Items(ctx)
			if err != nil {
				return err
			}
			for _, item := range items {
				variant := ""
				if item.Size != "" || item.Color != "" {
					variant = " (" + item.Size + "/" + item.Color + ")"
				}
				printf("%dx %s%s  %.2f", item.Quantity, item.Product.ProductID, variant, item.Subtotal())
			}
			total, err := e.cart.Total(ctx)
			if err != nil {
				return err
			}
			printf("total: %.2f", total)
			return nil
		})
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <product-id>",
	Short: "Remove a cart line (match by product, size, and color).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			return e.cart.Remove(ctx, args[0], flagSize, flagColor)
		})
	},
}

var cartSetQtyCmd = &cobra.Command{
	Use:   "set-qty <product-id>",
	Short: "Set a line's quantity; zero removes the line.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			return e.cart.SetQuantity(ctx, args[0], flagQuantity, flagSize, flagColor)
		})
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Empty the cart.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, e *engine) error {
			return e.cart.Clear(ctx)
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{cartAddCmd, cartRemoveCmd, cartSetQtyCmd} {
		cmd.Flags().StringVar(&flagSize, "size", "", "variant size")
		cmd.Flags().StringVar(&flagColor, "color", "", "variant color")
	}
	cartAddCmd.Flags().StringVar(&flagProductName, "name", "", "product name")
	cartAddCmd.Flags().Float64Var(&flagPrice, "price", 0, "unit price")
	cartAddCmd.Flags().Float64Var(&flagSalePrice, "sale-price", 0, "discounted unit price")
	cartAddCmd.Flags().StringVar(&flagImage, "image", "", "product image URL")
	cartAddCmd.Flags().IntVar(&flagQuantity, "qty", 1, "quantity to add")
	cartSetQtyCmd.Flags().IntVar(&flagQuantity, "qty", 1, "new quantity")

	cartCmd.AddCommand(cartAddCmd, cartListCmd, cartRemoveCmd, cartSetQtyCmd, cartClearCmd)
}
