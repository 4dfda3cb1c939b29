package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clicafe/clicafe/internal/catalog"
	"github.com/clicafe/clicafe/pkg/protocol"
	"github.com/clicafe/clicafe/pkg/vfs"
)

func newCatalogCommand(f *flags) *cobra.Command {
	var (
		tree       bool
		clearCache bool
		filter     protocol.ProductFilter
	)
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the product catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if err := initLogging(cfg, "stderr"); err != nil {
				return err
			}

			static, err := catalog.Load()
			if err != nil {
				return err
			}
			if tree {
				printTree(static.Tree().Root(), "")
				return nil
			}

			var products []protocol.Product
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
			defer cancel()
			if cfg.Offline {
				products, err = static.Products(ctx, filter)
			} else {
				client := newGateway(cfg, nil)
				if clearCache {
					fmt.Printf("Cleared %d cached responses\n", client.InvalidateCatalog())
				}
				products, err = client.Products(ctx, filter)
			}
			if err != nil {
				return err
			}
			for _, p := range products {
				fmt.Printf("%-8s %-28s %-10s %s\n", p.ID, p.Name, p.Type, p.Price)
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.BoolVar(&tree, "tree", false, "Print the browsable product tree")
	fl.BoolVar(&clearCache, "clear-cache", false, "Drop cached catalog responses first")
	fl.StringVar(&filter.Type, "type", "", "coffee or accessory")
	fl.StringVar(&filter.Form, "form", "", "Product form")
	fl.StringVar(&filter.Origin, "origin", "", "Coffee origin")
	fl.StringVar(&filter.Roast, "roast", "", "Roast level")
	fl.StringVar(&filter.Search, "search", "", "Text in name or description")
	return cmd
}

func printTree(n *vfs.Node, indent string) {
	for _, c := range n.Children {
		name := c.Name
		if c.IsDir {
			name += "/"
		} else if c.Product != nil {
			name = fmt.Sprintf("%s  (%s, %s)", name, c.Product.ID, c.Product.Price)
		}
		fmt.Println(indent + name)
		if c.IsDir {
			printTree(c, indent+strings.Repeat(" ", 2))
		}
	}
}
