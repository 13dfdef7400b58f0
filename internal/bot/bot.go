// Package bot wires the purchase conversation to Telegram commands, inline
// buttons, and the conversation state machine.
package bot

import (
	"errors"

	tele "gopkg.in/telebot.v4"

	tg "esimbot/core/telegram"
	"esimbot/core/telegram/callbacks"
	"esimbot/core/telegram/commands"
	tghelpers "esimbot/core/telegram/helpers"
	"esimbot/core/telegram/keyboard"
	"esimbot/core/telegram/state"
	"esimbot/internal/flow"
	"esimbot/internal/geo"
	"esimbot/internal/payment"
)

// cbPlan is the callback key for plan selection buttons.
const cbPlan = "plan"

// Handlers binds the conversation service to Telegram endpoints.
type Handlers struct {
	flow   *flow.Service
	states state.Manager
}

// NewHandlers builds the handler set.
func NewHandlers(svc *flow.Service, states state.Manager) *Handlers {
	return &Handlers{flow: svc, states: states}
}

// Register declares commands, callbacks, and FSM states on the registry.
// Handlers that advance the conversation run under the user's session lock so
// a burst of updates from one chat is processed strictly one at a time.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.handleStart,
		Description: "Welcome and quick start",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     h.handleHelp,
		Description: "List available commands",
	})
	reg.RegisterCommand("/plans", commands.Command{
		Handler:     h.handlePlans,
		Description: "Browse and buy data plans",
	})
	reg.RegisterCommand("/buy", commands.Command{
		Handler:     h.handlePlans,
		Description: "Buy a data plan",
		Hidden:      true,
	})
	reg.RegisterCommand("/check", commands.Command{
		Handler:     h.handleCheck,
		Description: "Verify payment for your pending order",
	})
	reg.RegisterCommand("/where", commands.Command{
		Handler:     h.handleWhere,
		Description: "Continent and currency for a country code",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     h.handleCancel,
		Description: "Abandon the current purchase",
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     h.handleAdmin,
		Description: "Sales statistics",
		AdminOnly:   true,
		Hidden:      true,
	})

	_ = reg.RegisterCallback(cbPlan, h.handlePlanChosen)
	reg.SetTextFallback(h.handleUnknownText)

	state.RegisterHandler(flow.StateAwaitingEmail, h.handleEmailInput)
	state.RegisterHandler(flow.StateReady, h.handleReadyReminder)
}

func (h *Handlers) handleStart(c tele.Context) error {
	return tghelpers.SendText(c, renderWelcome())
}

func (h *Handlers) handleHelp(c tele.Context) error {
	return tghelpers.SendMD(c, renderHelp())
}

func (h *Handlers) handlePlans(c tele.Context) error {
	plans := h.flow.Plans()
	var buttons []keyboard.InlineBtn
	for _, p := range plans {
		buttons = append(buttons, keyboard.InlineBtn{
			Text:   p.Name + " — $" + payment.FormatAmount(float64(p.Price)),
			Unique: cbPlan,
			Data:   p.ID,
		})
	}
	text := renderPlans(plans)
	// The session middleware snapshots the state before routing; browsing
	// plans mid-purchase gets a reminder instead of silently stacking orders.
	if sess, ok := state.SessionFrom(c); ok && sess.State != state.StateIdle {
		text = renderResumeNotice() + "\n\n" + text
	}
	return tghelpers.SendMD(c, text, keyboard.InlineButtons(buttons))
}

func (h *Handlers) handlePlanChosen(c tele.Context) error {
	userID := c.Sender().ID
	planID := callbacks.CallbackPayload(c)
	ctx := tghelpers.BuildContext(c)

	return h.states.Serialize(userID, func() error {
		plan, err := h.flow.ChoosePlan(ctx, userID, planID)
		if err != nil {
			var ve *flow.ValidationError
			if errors.As(err, &ve) {
				_ = tghelpers.SendText(c, "That plan is no longer available, try /plans again.")
				return err
			}
			_ = tghelpers.SendText(c, renderTransientFailure())
			return err
		}
		return tghelpers.SendMD(c, renderEmailPrompt(plan))
	})
}

// handleEmailInput runs under the session lock: the FSM manager invokes it
// through Serialize.
func (h *Handlers) handleEmailInput(c tele.Context) error {
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	inv, err := h.flow.SubmitEmail(ctx, userID, c.Sender().Username, c.Text())
	if err != nil {
		var ve *flow.ValidationError
		if errors.As(err, &ve) {
			_ = tghelpers.SendText(c, renderEmailRejected())
			return err
		}
		_ = tghelpers.SendText(c, renderTransientFailure())
		return err
	}

	if err := tghelpers.SendMD(c, renderInvoice(inv)); err != nil {
		return err
	}
	if inv.QR != nil {
		return tghelpers.SendPhoto(c, inv.QR.Bytes, renderInvoiceCaption(inv))
	}
	return nil
}

// handleReadyReminder answers free text while an invoice is outstanding so
// the user is never met with silence.
func (h *Handlers) handleReadyReminder(c tele.Context) error {
	return tghelpers.SendText(c, renderReadyReminder())
}

func (h *Handlers) handleCheck(c tele.Context) error {
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	return h.states.Serialize(userID, func() error {
		res, err := h.flow.CheckPayment(ctx, userID)
		if err != nil {
			if errors.Is(err, flow.ErrNoPendingOrder) {
				return tghelpers.SendText(c, renderNoPendingOrder())
			}
			_ = tghelpers.SendText(c, renderTransientFailure())
			return err
		}
		if !res.Paid {
			return tghelpers.SendMD(c, renderUnpaid(res.Order))
		}
		if err := tghelpers.SendText(c, renderDelivered(res)); err != nil {
			return err
		}
		if res.QR != nil {
			return tghelpers.SendPhoto(c, res.QR.Bytes, renderActivationCaption(res))
		}
		return nil
	})
}

func (h *Handlers) handleWhere(c tele.Context) error {
	query := c.Message().Payload
	if query == "" {
		return tghelpers.SendText(c, renderWhereUsage())
	}

	ctx := tghelpers.BuildContext(c)
	res, err := h.flow.Lookup(ctx, query)
	if err != nil {
		var invalid *geo.InvalidQueryError
		if errors.As(err, &invalid) {
			return tghelpers.SendText(c, renderWhereUsage())
		}
		var notFound *geo.NotFoundError
		if errors.As(err, &notFound) {
			return tghelpers.SendText(c, "Unknown country code "+notFound.Query+".")
		}
		_ = tghelpers.SendText(c, renderTransientFailure())
		return err
	}
	return tghelpers.SendMD(c, renderWhere(res))
}

func (h *Handlers) handleCancel(c tele.Context) error {
	userID := c.Sender().ID
	ctx := tghelpers.BuildContext(c)

	return h.states.Serialize(userID, func() error {
		done, err := h.flow.Cancel(ctx, userID)
		if err != nil {
			_ = tghelpers.SendText(c, renderTransientFailure())
			return err
		}
		if !done {
			return tghelpers.SendText(c, renderNothingToCancel())
		}
		return tghelpers.SendText(c, renderCancelled())
	})
}

func (h *Handlers) handleAdmin(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	st, err := h.flow.Stats(ctx)
	if err != nil {
		_ = tghelpers.SendText(c, renderTransientFailure())
		return err
	}
	return tghelpers.SendMD(c, renderStats(st))
}

func (h *Handlers) handleUnknownText(c tele.Context) error {
	return tghelpers.SendText(c, "I did not understand that. Try /help.")
}
