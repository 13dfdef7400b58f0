package bot

import (
	"fmt"
	"strings"

	"esimbot/core/telegram/format"
	"esimbot/internal/catalog"
	"esimbot/internal/flow"
	"esimbot/internal/geo"
	"esimbot/internal/order"
	"esimbot/internal/payment"
)

func renderWelcome() string {
	return strings.Join([]string{
		"Welcome to the eSIM shop!",
		"",
		"/plans — browse available data plans",
		"/where XX — continent and currency for a country code",
		"/help — all commands",
	}, "\n")
}

func renderHelp() string {
	return strings.Join([]string{
		"*Commands*",
		"/plans — browse and buy data plans",
		"/buy — same as /plans",
		"/check — verify payment for your pending order",
		"/where XX — look up a two-letter country code",
		"/cancel — abandon the current purchase",
		"/help — this message",
	}, "\n")
}

func renderPlans(plans []catalog.Plan) string {
	if len(plans) == 0 {
		return "No plans are available right now, please try again later."
	}
	var b strings.Builder
	b.WriteString("*Available plans*\n\n")
	region := ""
	for _, p := range plans {
		if p.Region != region {
			region = p.Region
			fmt.Fprintf(&b, "*%s*\n", region)
		}
		fmt.Fprintf(&b, "• %s — $%s\n", p.Name, payment.FormatAmount(float64(p.Price)))
	}
	b.WriteString("\nTap a plan below to start your order.")
	return b.String()
}

func renderEmailPrompt(plan catalog.Plan) string {
	return fmt.Sprintf(
		"You picked *%s* ($%s).\n\nSend the e-mail address your eSIM should be delivered to, or /cancel.",
		plan.Name, payment.FormatAmount(float64(plan.Price)),
	)
}

func renderEmailRejected() string {
	return "That does not look like a valid e-mail address. Please send it again, or /cancel."
}

func renderInvoice(inv *flow.Invoice) string {
	return strings.Join([]string{
		fmt.Sprintf("*Order #%d* — %s", inv.Order.ID, inv.Plan.Name),
		"",
		fmt.Sprintf("Send exactly *%s USDT* (TRC-20) to:", payment.FormatAmount(inv.Order.Amount)),
		format.Mono(inv.Wallet),
		"",
		fmt.Sprintf("Include this memo with the transfer: %s", format.Mono(inv.Order.Memo)),
		"",
		"Then run /check to confirm the payment.",
	}, "\n")
}

func renderInvoiceCaption(inv *flow.Invoice) string {
	return fmt.Sprintf("Scan to pay %s USDT, memo %s", payment.FormatAmount(inv.Order.Amount), inv.Order.Memo)
}

func renderUnpaid(o order.Order) string {
	return fmt.Sprintf(
		"No payment found yet for order #%d (memo %s). Transfers can take a few minutes to confirm, try /check again shortly.",
		o.ID, format.Mono(o.Memo),
	)
}

func renderDelivered(res flow.CheckResult) string {
	return strings.Join([]string{
		fmt.Sprintf("Payment confirmed for order #%d. 🎉", res.Order.ID),
		"",
		"Your eSIM activation code:",
		res.ActivationURL,
		"",
		fmt.Sprintf("A copy was sent to %s.", res.Order.Email),
	}, "\n")
}

func renderActivationCaption(res flow.CheckResult) string {
	return fmt.Sprintf("Activation code for order #%d", res.Order.ID)
}

func renderResumeNotice() string {
	return "You already have an order in progress — /check it or /cancel before starting a new one."
}

func renderReadyReminder() string {
	return "You have a pending invoice. Run /check once you have paid, or /cancel to abandon the order."
}

func renderWhere(res geo.Result) string {
	return fmt.Sprintf(
		"*%s* (%s)\nContinent: %s\nCurrency: %s",
		res.Country.Name, res.Country.Code, res.Country.Continent, res.Country.Currency,
	)
}

func renderWhereUsage() string {
	return "Usage: /where XX, where XX is a two-letter country code (for example /where DE)."
}

func renderStats(st order.Stats) string {
	return fmt.Sprintf(
		"*Sales*\nPaid orders: %d\nRevenue: $%s\nUnique buyers: %d",
		st.PaidCount, payment.FormatAmount(st.Revenue), st.Buyers,
	)
}

func renderCancelled() string {
	return "Your order was cancelled. Start over with /plans whenever you like."
}

func renderNothingToCancel() string {
	return "Nothing to cancel — you have no order in progress."
}

func renderNoPendingOrder() string {
	return "You have no pending order. Pick a plan with /plans first."
}

func renderTransientFailure() string {
	return "Something went wrong on our side, please try again in a moment."
}
