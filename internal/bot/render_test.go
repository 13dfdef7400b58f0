package bot

import (
	"strings"
	"testing"

	"esimbot/internal/catalog"
	"esimbot/internal/flow"
	"esimbot/internal/geo"
	"esimbot/internal/order"
)

func TestRenderPlansGroupsByRegion(t *testing.T) {
	out := renderPlans([]catalog.Plan{
		{ID: "eu-5gb", Region: "Europe", Name: "Europe 5 GB", Price: 9.9},
		{ID: "eu-20gb", Region: "Europe", Name: "Europe 20 GB", Price: 24.5},
		{ID: "asia-10gb", Region: "Asia", Name: "Asia 10 GB", Price: 14},
	})
	if strings.Count(out, "*Europe*") != 1 {
		t.Fatalf("region header must appear once:\n%s", out)
	}
	for _, frag := range []string{"Europe 5 GB — $9.90", "Europe 20 GB — $24.50", "Asia 10 GB — $14.00"} {
		if !strings.Contains(out, frag) {
			t.Fatalf("missing %q in:\n%s", frag, out)
		}
	}
}

func TestRenderPlansEmpty(t *testing.T) {
	out := renderPlans(nil)
	if !strings.Contains(out, "No plans") {
		t.Fatalf("unexpected empty-catalog text: %q", out)
	}
}

func TestRenderInvoiceShowsWalletMemoAndAmount(t *testing.T) {
	inv := &flow.Invoice{
		Order:  order.Order{ID: 12, Amount: 9.9, Memo: "AB12CD34"},
		Plan:   catalog.Plan{Name: "Europe 5 GB"},
		Wallet: "TCSQBnCjaX9EDgD24V3C4dTkfi98PFfT3s",
	}
	out := renderInvoice(inv)
	for _, frag := range []string{
		"Order #12",
		"9.90 USDT",
		"`TCSQBnCjaX9EDgD24V3C4dTkfi98PFfT3s`",
		"`AB12CD34`",
		"/check",
	} {
		if !strings.Contains(out, frag) {
			t.Fatalf("missing %q in:\n%s", frag, out)
		}
	}
}

func TestRenderWhere(t *testing.T) {
	out := renderWhere(geo.Result{Country: geo.Country{
		Code: "DE", Name: "Germany", Continent: "Europe", Currency: "EUR",
	}})
	for _, frag := range []string{"Germany", "(DE)", "Europe", "EUR"} {
		if !strings.Contains(out, frag) {
			t.Fatalf("missing %q in %q", frag, out)
		}
	}
}

func TestRenderStats(t *testing.T) {
	out := renderStats(order.Stats{PaidCount: 3, Revenue: 44.3, Buyers: 2})
	for _, frag := range []string{"Paid orders: 3", "$44.30", "Unique buyers: 2"} {
		if !strings.Contains(out, frag) {
			t.Fatalf("missing %q in %q", frag, out)
		}
	}
}
