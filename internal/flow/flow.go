// Package flow implements the purchase conversation: plan choice, e-mail
// collection, invoice issuing, and payment confirmation. It owns the state
// transitions; the Telegram layer only renders its results.
//
// Flow methods assume the caller already holds the user's session lock (the
// command handlers and the FSM manager serialize per user), so they never call
// Serialize themselves.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"log/slog"

	"esimbot/core/logger"
	"esimbot/core/telegram/state"
	"esimbot/internal/catalog"
	"esimbot/internal/geo"
	"esimbot/internal/order"
	"esimbot/internal/qr"
)

// Conversation states beyond idle.
const (
	// StateAwaitingEmail waits for the buyer's delivery e-mail.
	StateAwaitingEmail state.State = "awaiting_email"
	// StateReady holds an issued invoice awaiting payment confirmation.
	StateReady state.State = "ready"
)

// Session field keys.
const (
	fieldPlanID    = "plan_id"
	fieldPlanName  = "plan_name"
	fieldPlanPrice = "plan_price"
	fieldEmail     = "email"
	fieldOrderID   = "order_id"
	fieldMemo      = "memo"
)

// ValidationError reports rejected conversation input. The state machine does
// not advance; the user may retry.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("flow: invalid %s: %s", e.Field, e.Reason)
}

// Code identifies the error class for handler summary logs.
func (e *ValidationError) Code() string { return "VALIDATION" }

// ErrNoPendingOrder is returned when a payment check or provisioning step has
// no invoice to work on.
var ErrNoPendingOrder = errors.New("flow: no pending order")

// PlanSource serves sellable plans.
type PlanSource interface {
	ByID(id string) (catalog.Plan, bool)
	List() []catalog.Plan
}

// OrderStore persists orders.
type OrderStore interface {
	Create(ctx context.Context, o *order.Order) error
	PendingByUser(ctx context.Context, userID int64) (*order.Order, error)
	MarkPaid(ctx context.Context, id int64, esimURL string) error
	CancelPending(ctx context.Context, userID int64) (int64, error)
	Stats(ctx context.Context) (order.Stats, error)
}

// PaymentVerifier answers whether an invoice has been paid on chain.
type PaymentVerifier interface {
	Confirmed(ctx context.Context, memo string, amount float64) (bool, error)
}

// Provisioner turns a paid order into an activation code URL.
type Provisioner interface {
	Order(ctx context.Context, externalID, email, planID string) (string, error)
}

// GeoResolver resolves country codes to continent and currency.
type GeoResolver interface {
	Resolve(ctx context.Context, query string) (geo.Result, error)
}

// Config holds flow settings.
type Config struct {
	// WalletAddress is shown on invoices and encoded into the payment QR.
	WalletAddress string `yaml:"wallet_address" envconfig:"SHOP_WALLET_ADDRESS"`
}

// Service drives the purchase conversation.
type Service struct {
	cfg      Config
	states   state.Manager
	plans    PlanSource
	orders   OrderStore
	payments PaymentVerifier
	esim     Provisioner
	geo      GeoResolver
	validate *validator.Validate
}

// NewService wires the conversation service.
func NewService(cfg Config, states state.Manager, plans PlanSource, orders OrderStore, payments PaymentVerifier, esim Provisioner, geoSvc GeoResolver) *Service {
	return &Service{
		cfg:      cfg,
		states:   states,
		plans:    plans,
		orders:   orders,
		payments: payments,
		esim:     esim,
		geo:      geoSvc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Plans lists the sellable plans for rendering.
func (s *Service) Plans() []catalog.Plan {
	return s.plans.List()
}

// ChoosePlan records the chosen plan and moves the conversation to the
// e-mail prompt. Choosing again before finishing simply replaces the choice.
func (s *Service) ChoosePlan(ctx context.Context, userID int64, planID string) (catalog.Plan, error) {
	plan, ok := s.plans.ByID(planID)
	if !ok {
		return catalog.Plan{}, &ValidationError{Field: "plan", Reason: fmt.Sprintf("unknown plan %q", planID)}
	}

	s.states.SetField(userID, fieldPlanID, plan.ID)
	s.states.SetField(userID, fieldPlanName, plan.Name)
	s.states.SetField(userID, fieldPlanPrice, float64(plan.Price))
	s.states.SetState(userID, StateAwaitingEmail)

	logger.Info(ctx, "service.flow", "flow.plan",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("plan_id", plan.ID),
	)
	return plan, nil
}

// Invoice is the payment instruction issued once the e-mail is accepted.
type Invoice struct {
	Order  order.Order
	Plan   catalog.Plan
	Wallet string
	// QR encodes the wallet address for scanning wallets.
	QR *qr.Artifact
}

type emailInput struct {
	Email string `validate:"required,email"`
}

// SubmitEmail validates the delivery address, creates the order, and issues
// the invoice. On validation failure the conversation stays in the e-mail
// prompt and previously accumulated fields are untouched.
func (s *Service) SubmitEmail(ctx context.Context, userID int64, username, email string) (*Invoice, error) {
	if s.states.GetState(userID) != StateAwaitingEmail {
		return nil, ErrNoPendingOrder
	}

	email = strings.TrimSpace(email)
	if err := s.validate.Struct(emailInput{Email: email}); err != nil {
		logger.Debug(ctx, "service.flow", "flow.email.reject",
			slog.String("status", "ok"),
			slog.Int64("user_id", userID),
		)
		return nil, &ValidationError{Field: "email", Reason: "not a valid e-mail address"}
	}

	planID, _ := s.states.FieldString(userID, fieldPlanID)
	plan, ok := s.plans.ByID(planID)
	if !ok {
		return nil, &ValidationError{Field: "plan", Reason: "chosen plan no longer available"}
	}

	memo, err := order.NewMemo()
	if err != nil {
		s.reset(userID)
		return nil, err
	}

	o := &order.Order{
		UserID:   userID,
		Username: username,
		Email:    email,
		PlanID:   plan.ID,
		Amount:   float64(plan.Price),
		Memo:     memo,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		// Infrastructure failures abort the conversation rather than trap the
		// user in a prompt that cannot succeed.
		s.reset(userID)
		return nil, err
	}

	s.states.SetField(userID, fieldEmail, email)
	s.states.SetField(userID, fieldOrderID, o.ID)
	s.states.SetField(userID, fieldMemo, memo)
	s.states.SetState(userID, StateReady)

	artifact, err := qr.Generate(s.cfg.WalletAddress, userID)
	if err != nil {
		// The invoice is still usable as text; the image is a convenience.
		logger.Warn(ctx, "service.flow", "flow.qr.fail",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		artifact = nil
	}

	logger.Info(ctx, "service.flow", "flow.invoice",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.Int64("order_id", o.ID),
		slog.String("plan_id", plan.ID),
		slog.String("memo", memo),
	)
	return &Invoice{Order: *o, Plan: plan, Wallet: s.cfg.WalletAddress, QR: artifact}, nil
}

// CheckResult reports the outcome of a payment check.
type CheckResult struct {
	Paid bool
	// ActivationURL is set once the order is paid and provisioned.
	ActivationURL string
	Order         order.Order
	// QR encodes ActivationURL for scanning; nil when encoding failed.
	QR *qr.Artifact
}

// CheckPayment verifies the pending invoice on chain. When the transfer is
// confirmed it provisions the plan, marks the order paid, and resets the
// conversation to idle. An unpaid invoice leaves the state untouched.
func (s *Service) CheckPayment(ctx context.Context, userID int64) (CheckResult, error) {
	o, err := s.orders.PendingByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return CheckResult{}, ErrNoPendingOrder
		}
		return CheckResult{}, err
	}

	paid, err := s.payments.Confirmed(ctx, o.Memo, o.Amount)
	if err != nil {
		return CheckResult{}, err
	}
	if !paid {
		return CheckResult{Paid: false, Order: *o}, nil
	}

	// The memo doubles as the provider-side external id so a repeated /check
	// after a lost response cannot double-provision.
	url, err := s.esim.Order(ctx, o.Memo, o.Email, o.PlanID)
	if err != nil {
		// Payment is on chain but provisioning failed; keep the invoice so the
		// buyer can retry /check.
		return CheckResult{}, err
	}
	if err := s.orders.MarkPaid(ctx, o.ID, url); err != nil {
		return CheckResult{}, err
	}

	s.reset(userID)

	artifact, err := qr.Generate(url, userID)
	if err != nil {
		// The activation link is still delivered as text.
		logger.Warn(ctx, "service.flow", "flow.qr.fail",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		artifact = nil
	}

	logger.Info(ctx, "service.flow", "flow.complete",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.Int64("order_id", o.ID),
		slog.String("plan_id", o.PlanID),
	)
	return CheckResult{Paid: true, ActivationURL: url, Order: *o, QR: artifact}, nil
}

func (s *Service) reset(userID int64) {
	s.states.ClearState(userID)
	s.states.ClearFields(userID)
}

// Cancel abandons the conversation and removes unpaid invoices. Cancelling an
// idle conversation is a harmless no-op.
func (s *Service) Cancel(ctx context.Context, userID int64) (bool, error) {
	active := s.states.InProgress(userID)

	// Remove the stored invoice first: if the delete fails the session keeps
	// its fields and the user can retry the cancel.
	removed, err := s.orders.CancelPending(ctx, userID)
	if err != nil {
		return false, err
	}
	s.reset(userID)
	if !active && removed == 0 {
		return false, nil
	}
	logger.Info(ctx, "service.flow", "flow.cancel",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
	)
	return true, nil
}

// Lookup resolves a country code for the /where command.
func (s *Service) Lookup(ctx context.Context, query string) (geo.Result, error) {
	return s.geo.Resolve(ctx, query)
}

// Stats aggregates completed sales for the admin report.
func (s *Service) Stats(ctx context.Context) (order.Stats, error) {
	return s.orders.Stats(ctx)
}

// State reports the user's current conversation state.
func (s *Service) State(userID int64) state.State {
	return s.states.GetState(userID)
}
