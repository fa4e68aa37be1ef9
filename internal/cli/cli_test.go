package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/calculator"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/config"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/events"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/logging"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/models"
	"github.com/tm-acme-shop/acme-shop-cart-calculator/internal/service"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cfgFile, logLevel = "", ""
	quoteFile, quoteItems, quoteDiscount, quoteJSON = "", nil, "", false
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		logging.SetOutput(os.Stdout)
	})

	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)

	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cartcalc version test-version-1.0.0")
}

func TestQuoteCmd_Items(t *testing.T) {
	out, err := run(t, "quote", "--json", "--item", "Apple=50:1")
	require.NoError(t, err)

	var q service.Quote
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.InDelta(t, 73.8, q.Total, 1e-9)
	assert.Equal(t, 10.0, q.Shipping)
}

func TestQuoteCmd_FileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.toml")
	content := `
discount = 0.5

[[items]]
name = "Apple"
price = 100.0
quantity = 2

[[items]]
name = "Pear"
price = 20
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	out, err := run(t, "quote", "--json", "-f", path, "-i", "Apple=100:1", "--discount", "0.2")
	require.NoError(t, err)

	var q service.Quote
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.Equal(t, 4, q.TotalItems)
	require.Len(t, q.Items, 2)
	assert.Equal(t, 3, q.Items[0].Quantity)
	assert.InDelta(t, 320.0, q.Subtotal, 1e-9)
	assert.InDelta(t, 0.2, q.Discount, 1e-9)
	assert.InDelta(t, 256.0, q.Discounted, 1e-9)
	assert.InDelta(t, 256.0*1.23, q.Total, 1e-9)
}

func TestQuoteCmd_Table(t *testing.T) {
	out, err := run(t, "quote", "--item", "Apple=150")
	require.NoError(t, err)
	assert.Contains(t, out, "Apple")
	assert.Contains(t, out, "184.50")
}

func TestQuoteCmd_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"no items", []string{"quote"}, calculator.ErrEmptyOrder},
		{"bad item syntax", []string{"quote", "--item", "Apple"}, calculator.ErrInvalidType},
		{"non-numeric price", []string{"quote", "--item", "Apple=cheap"}, calculator.ErrInvalidType},
		{"float quantity", []string{"quote", "--item", "Apple=1:2.0"}, calculator.ErrInvalidType},
		{"zero price", []string{"quote", "--item", "Apple=0"}, calculator.ErrInvalidRange},
		{"conflicting price", []string{"quote", "--item", "Apple=1", "--item", "Apple=2"}, calculator.ErrConflict},
		{"discount out of range", []string{"quote", "--item", "Apple=1", "--discount", "2"}, calculator.ErrInvalidRange},
		{"non-numeric discount", []string{"quote", "--item", "Apple=1", "--discount", "half"}, calculator.ErrInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestQuoteCmd_FileTypeErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.toml")
	content := `
[[items]]
name = "Apple"
price = "ten"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	_, err := run(t, "quote", "-f", path)
	assert.ErrorIs(t, err, calculator.ErrInvalidType)

	_, err = run(t, "quote", "-f", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestQuoteCmd_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.toml")
	require.NoError(t, os.WriteFile(path, []byte("[pricing]\ntax_rate = 1.5\n"), 0o600))

	_, err := run(t, "--config", path, "quote", "--item", "Apple=1")
	assert.ErrorIs(t, err, calculator.ErrInvalidRange)
}

func TestParseItemArg(t *testing.T) {
	item, err := parseItemArg("a=b=2.5:3")
	require.NoError(t, err)
	assert.Equal(t, "a=b", item.Name)
	assert.Equal(t, 2.5, item.Price)
	assert.Equal(t, models.Some(3), item.Quantity)

	item, err = parseItemArg("Pear=4")
	require.NoError(t, err)
	assert.False(t, item.Quantity.Set)
}

func TestNewPublisher(t *testing.T) {
	cfg := config.Load()
	_, ok := newPublisher(cfg, nil).(events.NoopPublisher)
	assert.True(t, ok)

	cfg.Features.EnableOrderEvents = true
	p := newPublisher(cfg, logging.NewLoggerV2("test"))
	_, ok = p.(*events.KafkaPublisher)
	assert.True(t, ok)
	require.NoError(t, p.Close())
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := config.Load()
	cfg.Server.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, serve(ctx, cfg))
}
