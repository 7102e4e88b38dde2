package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"inventory-crud/internal/client"
	"inventory-crud/internal/logger"
	"inventory-crud/internal/model"
	"inventory-crud/internal/version"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()
	logger.SetOutput(os.Stderr)

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		logger.Error(context.Background(), "Command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func productFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Usage: "product name"},
		&cli.Float64Flag{Name: "price", Usage: "unit price, must be positive"},
		&cli.IntFlag{Name: "stock", Usage: "units in stock, must be positive"},
		&cli.StringFlag{Name: "expiry", Usage: "expiry date, YYYY-MM-DD"},
	}
}

func idFlag() cli.Flag {
	return &cli.StringFlag{Name: "id", Usage: "product id", Required: true}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "inventory",
		Usage:   "manage products through the inventory API",
		Version: version.Version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Usage:   "base URL of the inventory API",
				Value:   "http://localhost:3000",
				EnvVars: []string{"API_BASE_URL"},
			},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Second},
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "show one page of products sorted by name",
				Flags: []cli.Flag{&cli.IntFlag{Name: "page", Value: 1}},
				Action: func(c *cli.Context) error {
					listing, err := productClient(c).List(c.Context, c.Int("page"))
					if err != nil {
						return err
					}
					return printJSON(c, listing.Page)
				},
			},
			{
				Name:      "search",
				Usage:     "find products whose name contains the text",
				ArgsUsage: "NAME",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return fmt.Errorf("search takes exactly one NAME argument, got %d", c.NArg())
					}
					found, err := productClient(c).Search(c.Context, c.Args().First())
					if err != nil {
						return err
					}
					return printJSON(c, found)
				},
			},
			{
				Name:  "get",
				Usage: "show a product by id",
				Flags: []cli.Flag{idFlag()},
				Action: func(c *cli.Context) error {
					p, err := productClient(c).Get(c.Context, c.String("id"))
					if err != nil {
						return err
					}
					return printJSON(c, p)
				},
			},
			{
				Name:  "create",
				Usage: "add a product",
				Flags: productFlags(),
				Action: func(c *cli.Context) error {
					req := model.ProductRequest{}
					applyFlags(c, &req)
					p, err := productClient(c).Create(c.Context, &req)
					if err != nil {
						return err
					}
					return printJSON(c, p)
				},
			},
			{
				Name:  "update",
				Usage: "edit a product; omitted flags keep their current value",
				Flags: append([]cli.Flag{idFlag()}, productFlags()...),
				Action: func(c *cli.Context) error {
					pc := productClient(c)
					current, err := pc.Get(c.Context, c.String("id"))
					if err != nil {
						return err
					}
					req := model.FromProduct(current)
					applyFlags(c, &req)
					res, err := pc.Update(c.Context, &req)
					if err != nil {
						return err
					}
					return printJSON(c, res)
				},
			},
			{
				Name:  "delete",
				Usage: "remove a product by id",
				Flags: []cli.Flag{idFlag()},
				Action: func(c *cli.Context) error {
					pc := productClient(c)
					current, err := pc.Get(c.Context, c.String("id"))
					if err != nil {
						return err
					}
					req := model.FromProduct(current)
					res, err := pc.Delete(c.Context, &req)
					if err != nil {
						return err
					}
					return printJSON(c, res)
				},
			},
		},
	}
}

func productClient(c *cli.Context) *client.ProductClient {
	hc := client.NewHTTPClient(c.String("api"), c.Duration("timeout"))
	hc.SetDefaultHeader("User-Agent", "inventory-cli/"+version.Version)
	return client.NewProductClient(hc)
}

// applyFlags overwrites only the fields the user passed.
func applyFlags(c *cli.Context, req *model.ProductRequest) {
	if c.IsSet("name") {
		req.Name = c.String("name")
	}
	if c.IsSet("price") {
		req.Price = c.Float64("price")
	}
	if c.IsSet("stock") {
		req.Stock = c.Int("stock")
	}
	if c.IsSet("expiry") {
		expiry := c.String("expiry")
		req.ExpiryDate = &expiry
	}
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
