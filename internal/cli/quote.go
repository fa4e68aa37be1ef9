package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/calculator"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/models"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/service"
)

var (
	quoteFile     string
	quoteItems    []string
	quoteDiscount string
	quoteJSON     bool
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price an order",
	Long: `Price an order given as a TOML file and/or --item flags.

Items use the form name=price or name=price:quantity. Flag items are added
after file items, so a repeated name merges with the file entry.

Example order file:

  discount = 0.1

  [[items]]
  name = "Apple"
  price = 50.0
  quantity = 2`,
	Example: "  cartcalc quote --item Apple=50:2 --item Pear=12.5 --discount 0.1",
	RunE:    runQuote,
}

func init() {
	quoteCmd.Flags().StringVarP(&quoteFile, "file", "f", "", "TOML order file")
	quoteCmd.Flags().StringArrayVarP(&quoteItems, "item", "i", nil, "item as name=price[:quantity] (repeatable)")
	quoteCmd.Flags().StringVarP(&quoteDiscount, "discount", "d", "", "discount fraction between 0 and 1")
	quoteCmd.Flags().BoolVar(&quoteJSON, "json", false, "print the breakdown as JSON")
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	req, err := buildQuoteRequest(quoteFile, quoteItems, quoteDiscount)
	if err != nil {
		return err
	}
	draft, err := service.ParseQuoteRequest(req)
	if err != nil {
		return err
	}

	calc, err := cfg.Pricing.NewCalculator()
	if err != nil {
		return err
	}
	quote, err := service.PriceDraft(calc, draft)
	if err != nil {
		return err
	}

	if quoteJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(quote)
	}
	printQuote(cmd, quote)
	return nil
}

// orderFile is the TOML layout of an order. TOML has no null, so a nil
// field was left out of the file.
type orderFile struct {
	Discount interface{} `toml:"discount"`
	Items    []struct {
		Name     interface{} `toml:"name"`
		Price    interface{} `toml:"price"`
		Quantity interface{} `toml:"quantity"`
	} `toml:"items"`
}

func optionalFromTOML(v interface{}) models.Optional {
	if v == nil {
		return models.Optional{}
	}
	return models.Some(v)
}

func buildQuoteRequest(file string, items []string, discount string) (*models.QuoteRequest, error) {
	req := &models.QuoteRequest{}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read order file: %w", err)
		}
		var order orderFile
		if err := toml.Unmarshal(data, &order); err != nil {
			return nil, fmt.Errorf("parse order file %s: %w", file, err)
		}
		for _, item := range order.Items {
			req.Items = append(req.Items, models.AddItemRequest{
				Name:     item.Name,
				Price:    item.Price,
				Quantity: optionalFromTOML(item.Quantity),
			})
		}
		req.Discount = optionalFromTOML(order.Discount)
	}

	for _, raw := range items {
		item, err := parseItemArg(raw)
		if err != nil {
			return nil, err
		}
		req.Items = append(req.Items, item)
	}

	if discount != "" {
		d, err := calculator.ParseNumberArg("discount", discount)
		if err != nil {
			return nil, err
		}
		req.Discount = models.Some(d)
	}
	return req, nil
}

// parseItemArg parses name=price or name=price:quantity.
func parseItemArg(raw string) (models.AddItemRequest, error) {
	eq := strings.LastIndex(raw, "=")
	if eq < 0 {
		return models.AddItemRequest{}, &calculator.Error{
			Kind:    calculator.KindInvalidType,
			Field:   "item",
			Message: fmt.Sprintf("item %q must look like name=price[:quantity]", raw),
		}
	}

	item := models.AddItemRequest{Name: raw[:eq]}
	priceStr, qtyStr, hasQty := strings.Cut(raw[eq+1:], ":")

	price, err := calculator.ParseNumberArg("price", priceStr)
	if err != nil {
		return models.AddItemRequest{}, err
	}
	item.Price = price

	if hasQty {
		qty, err := calculator.ParseQuantityArg("quantity", qtyStr)
		if err != nil {
			return models.AddItemRequest{}, err
		}
		item.Quantity = models.Some(qty)
	}
	return item, nil
}

func printQuote(cmd *cobra.Command, q *service.Quote) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ITEM\tPRICE\tQTY\tLINE\t")
	for _, item := range q.Items {
		fmt.Fprintf(w, "%s\t%.2f\t%d\t%.2f\t\n", item.Name, item.Price, item.Quantity, item.Total())
	}
	fmt.Fprintln(w, "\t\t\t\t")
	fmt.Fprintf(w, "Subtotal\t\t\t%.2f\t\n", q.Subtotal)
	fmt.Fprintf(w, "Discount (%g%%)\t\t\t-%.2f\t\n", q.Discount*100, q.Subtotal-q.Discounted)
	fmt.Fprintf(w, "Shipping\t\t\t%.2f\t\n", q.Shipping)
	fmt.Fprintf(w, "Tax\t\t\t%.2f\t\n", q.Tax)
	fmt.Fprintf(w, "Total\t\t\t%.2f\t\n", q.Total)
	w.Flush()
}
