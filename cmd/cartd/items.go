package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fjod/go_cart/cart-store/internal/domain"
	"github.com/fjod/go_cart/cart-store/internal/service"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the persisted cart as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := a.openPersistentCart(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return printCart(cmd, svc)
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var item domain.NewProduct

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a product to the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := a.openPersistentCart(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.AddToCart(cmd.Context(), item); err != nil {
				return err
			}
			return printCart(cmd, svc)
		},
	}
	cmd.Flags().StringVar(&item.ID, "id", "", "product id")
	cmd.Flags().StringVar(&item.Title, "title", "", "product title")
	cmd.Flags().StringVar(&item.ImageURL, "image-url", "", "product image URL")
	cmd.Flags().Float64Var(&item.Price, "price", 0, "product price")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newItemCmd(a *app, use, short string, op func(*service.CartService, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " PRODUCT_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.openPersistentCart(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := op(svc, cmd.Context(), args[0]); err != nil {
				return err
			}
			return printCart(cmd, svc)
		},
	}
}

func printCart(cmd *cobra.Command, svc *service.CartService) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(svc.Products()); err != nil {
		return fmt.Errorf("print cart: %w", err)
	}
	return nil
}
