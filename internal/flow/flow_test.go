package flow

import (
	"context"
	"errors"
	"testing"

	"esimbot/core/telegram/state"
	"esimbot/internal/catalog"
	"esimbot/internal/geo"
	"esimbot/internal/order"
)

type stubPlans struct{ plans []catalog.Plan }

func (s stubPlans) ByID(id string) (catalog.Plan, bool) {
	for _, p := range s.plans {
		if p.ID == id {
			return p, true
		}
	}
	return catalog.Plan{}, false
}

func (s stubPlans) List() []catalog.Plan { return s.plans }

type stubOrders struct {
	nextID  int64
	pending map[int64]*order.Order
	paid    map[int64]string
}

func newStubOrders() *stubOrders {
	return &stubOrders{pending: map[int64]*order.Order{}, paid: map[int64]string{}}
}

func (s *stubOrders) Create(_ context.Context, o *order.Order) error {
	s.nextID++
	o.ID = s.nextID
	s.pending[o.UserID] = o
	return nil
}

func (s *stubOrders) PendingByUser(_ context.Context, userID int64) (*order.Order, error) {
	o, ok := s.pending[userID]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *stubOrders) MarkPaid(_ context.Context, id int64, url string) error {
	s.paid[id] = url
	for uid, o := range s.pending {
		if o.ID == id {
			delete(s.pending, uid)
		}
	}
	return nil
}

func (s *stubOrders) CancelPending(_ context.Context, userID int64) (int64, error) {
	if _, ok := s.pending[userID]; ok {
		delete(s.pending, userID)
		return 1, nil
	}
	return 0, nil
}

func (s *stubOrders) Stats(context.Context) (order.Stats, error) {
	return order.Stats{PaidCount: len(s.paid)}, nil
}

type stubPayments struct {
	confirmed bool
	err       error
}

func (s *stubPayments) Confirmed(context.Context, string, float64) (bool, error) {
	return s.confirmed, s.err
}

type stubEsim struct {
	url string
	err error
}

func (s *stubEsim) Order(context.Context, string, string, string) (string, error) {
	return s.url, s.err
}

type stubGeo struct{}

func (stubGeo) Resolve(_ context.Context, q string) (geo.Result, error) {
	return geo.Result{Query: q}, nil
}

func newTestService(orders *stubOrders, payments *stubPayments, prov *stubEsim) (*Service, state.Manager) {
	states := state.NewMemoryManager()
	plans := stubPlans{plans: []catalog.Plan{
		{ID: "eu-5gb", Region: "Europe", Name: "Europe 5 GB", Price: 9.90},
	}}
	svc := NewService(
		Config{WalletAddress: "TCSQBnCjaX9EDgD24V3C4dTkfi98PFfT3s"},
		states, plans, orders, payments, prov, stubGeo{},
	)
	return svc, states
}

const userID = int64(77)

func TestPurchaseHappyPath(t *testing.T) {
	orders := newStubOrders()
	payments := &stubPayments{confirmed: true}
	svc, states := newTestService(orders, payments, &stubEsim{url: "https://p.example/act/1"})
	ctx := context.Background()

	plan, err := svc.ChoosePlan(ctx, userID, "eu-5gb")
	if err != nil {
		t.Fatalf("ChoosePlan: %v", err)
	}
	if plan.ID != "eu-5gb" {
		t.Fatalf("plan = %+v", plan)
	}
	if states.GetState(userID) != StateAwaitingEmail {
		t.Fatalf("state = %q, want awaiting_email", states.GetState(userID))
	}

	inv, err := svc.SubmitEmail(ctx, userID, "buyer", "buyer@example.com")
	if err != nil {
		t.Fatalf("SubmitEmail: %v", err)
	}
	if inv.Order.Memo == "" || inv.Order.Amount != 9.90 {
		t.Fatalf("invoice order = %+v", inv.Order)
	}
	if inv.QR == nil || inv.QR.ContentType != "image/png" {
		t.Fatal("invoice must carry a QR artifact")
	}
	if states.GetState(userID) != StateReady {
		t.Fatalf("state = %q, want ready", states.GetState(userID))
	}

	res, err := svc.CheckPayment(ctx, userID)
	if err != nil {
		t.Fatalf("CheckPayment: %v", err)
	}
	if !res.Paid || res.ActivationURL != "https://p.example/act/1" {
		t.Fatalf("result = %+v", res)
	}
	if res.QR == nil || res.QR.ContentType != "image/png" {
		t.Fatal("paid result must carry the activation QR artifact")
	}
	if states.GetState(userID) != state.StateIdle {
		t.Fatalf("state = %q, want idle after completion", states.GetState(userID))
	}
	if _, ok := states.FieldString(userID, "memo"); ok {
		t.Fatal("fields must be cleared after completion")
	}
}

func TestSubmitEmailRejectsInvalidAndAllowsRetry(t *testing.T) {
	orders := newStubOrders()
	svc, states := newTestService(orders, &stubPayments{}, &stubEsim{})
	ctx := context.Background()

	if _, err := svc.ChoosePlan(ctx, userID, "eu-5gb"); err != nil {
		t.Fatalf("ChoosePlan: %v", err)
	}

	for _, bad := range []string{"", "not-an-email", "a@", "@b.example"} {
		_, err := svc.SubmitEmail(ctx, userID, "buyer", bad)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("SubmitEmail(%q): expected *ValidationError, got %T (%v)", bad, err, err)
		}
		if ve.Code() != "VALIDATION" {
			t.Fatalf("code = %q", ve.Code())
		}
		if states.GetState(userID) != StateAwaitingEmail {
			t.Fatalf("rejected input must not advance state, got %q", states.GetState(userID))
		}
	}

	if _, err := svc.SubmitEmail(ctx, userID, "buyer", "buyer@example.com"); err != nil {
		t.Fatalf("corrected input rejected: %v", err)
	}
	if states.GetState(userID) != StateReady {
		t.Fatalf("state = %q, want ready", states.GetState(userID))
	}
}

func TestSubmitEmailOutsidePromptIsNoPendingOrder(t *testing.T) {
	svc, _ := newTestService(newStubOrders(), &stubPayments{}, &stubEsim{})
	_, err := svc.SubmitEmail(context.Background(), userID, "buyer", "buyer@example.com")
	if !errors.Is(err, ErrNoPendingOrder) {
		t.Fatalf("expected ErrNoPendingOrder, got %v", err)
	}
}

func TestChoosePlanUnknownIsValidation(t *testing.T) {
	svc, states := newTestService(newStubOrders(), &stubPayments{}, &stubEsim{})
	_, err := svc.ChoosePlan(context.Background(), userID, "nope")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
	}
	if states.GetState(userID) != state.StateIdle {
		t.Fatal("unknown plan must not start a conversation")
	}
}

func TestCheckPaymentUnpaidKeepsInvoice(t *testing.T) {
	orders := newStubOrders()
	payments := &stubPayments{confirmed: false}
	svc, states := newTestService(orders, payments, &stubEsim{})
	ctx := context.Background()

	svc.ChoosePlan(ctx, userID, "eu-5gb")
	svc.SubmitEmail(ctx, userID, "buyer", "buyer@example.com")

	res, err := svc.CheckPayment(ctx, userID)
	if err != nil {
		t.Fatalf("CheckPayment: %v", err)
	}
	if res.Paid {
		t.Fatal("payment must not be confirmed")
	}
	if states.GetState(userID) != StateReady {
		t.Fatalf("state = %q, want ready", states.GetState(userID))
	}
	if _, err := orders.PendingByUser(ctx, userID); err != nil {
		t.Fatal("pending order must survive an unpaid check")
	}
}

func TestCheckPaymentProvisionFailureKeepsInvoice(t *testing.T) {
	orders := newStubOrders()
	svc, states := newTestService(orders, &stubPayments{confirmed: true}, &stubEsim{err: errors.New("provider down")})
	ctx := context.Background()

	svc.ChoosePlan(ctx, userID, "eu-5gb")
	svc.SubmitEmail(ctx, userID, "buyer", "buyer@example.com")

	if _, err := svc.CheckPayment(ctx, userID); err == nil {
		t.Fatal("expected provisioning error")
	}
	if states.GetState(userID) != StateReady {
		t.Fatal("failed provisioning must keep the invoice retryable")
	}
	if _, err := orders.PendingByUser(ctx, userID); err != nil {
		t.Fatal("order must stay pending after failed provisioning")
	}
}

type failingOrders struct{ stubOrders }

func (f *failingOrders) Create(context.Context, *order.Order) error {
	return errors.New("db down")
}

func TestSubmitEmailStoreFailureResetsSession(t *testing.T) {
	failing := &failingOrders{stubOrders: *newStubOrders()}
	states := state.NewMemoryManager()
	plans := stubPlans{plans: []catalog.Plan{{ID: "eu-5gb", Region: "Europe", Name: "Europe 5 GB", Price: 9.90}}}
	svc := NewService(Config{WalletAddress: "T"}, states, plans, failing, &stubPayments{}, &stubEsim{}, stubGeo{})
	ctx := context.Background()

	svc.ChoosePlan(ctx, userID, "eu-5gb")
	if _, err := svc.SubmitEmail(ctx, userID, "buyer", "buyer@example.com"); err == nil {
		t.Fatal("expected store error")
	}
	if states.GetState(userID) != state.StateIdle {
		t.Fatal("store failure must reset the session to idle")
	}
}

func TestCheckPaymentWithoutInvoice(t *testing.T) {
	svc, _ := newTestService(newStubOrders(), &stubPayments{}, &stubEsim{})
	_, err := svc.CheckPayment(context.Background(), userID)
	if !errors.Is(err, ErrNoPendingOrder) {
		t.Fatalf("expected ErrNoPendingOrder, got %v", err)
	}
}

func TestCancelMidConversationAndIdle(t *testing.T) {
	orders := newStubOrders()
	svc, states := newTestService(orders, &stubPayments{}, &stubEsim{})
	ctx := context.Background()

	svc.ChoosePlan(ctx, userID, "eu-5gb")
	svc.SubmitEmail(ctx, userID, "buyer", "buyer@example.com")

	done, err := svc.Cancel(ctx, userID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if !done {
		t.Fatal("active conversation cancel must report true")
	}
	if states.GetState(userID) != state.StateIdle {
		t.Fatal("cancel must reset to idle")
	}
	if _, err := orders.PendingByUser(ctx, userID); !errors.Is(err, order.ErrNotFound) {
		t.Fatal("cancel must remove the pending order")
	}

	done, err = svc.Cancel(ctx, userID)
	if err != nil {
		t.Fatalf("Cancel (idle): %v", err)
	}
	if done {
		t.Fatal("idle cancel must be a no-op")
	}
}

type cancelFailOrders struct{ stubOrders }

func (c *cancelFailOrders) CancelPending(context.Context, int64) (int64, error) {
	return 0, errors.New("db down")
}

func TestCancelStoreFailureKeepsSession(t *testing.T) {
	failing := &cancelFailOrders{stubOrders: *newStubOrders()}
	states := state.NewMemoryManager()
	plans := stubPlans{plans: []catalog.Plan{{ID: "eu-5gb", Region: "Europe", Name: "Europe 5 GB", Price: 9.90}}}
	svc := NewService(Config{WalletAddress: "T"}, states, plans, failing, &stubPayments{}, &stubEsim{}, stubGeo{})
	ctx := context.Background()

	svc.ChoosePlan(ctx, userID, "eu-5gb")
	svc.SubmitEmail(ctx, userID, "buyer", "buyer@example.com")

	if _, err := svc.Cancel(ctx, userID); err == nil {
		t.Fatal("expected store error")
	}
	if states.GetState(userID) != StateReady {
		t.Fatal("failed cancel must keep the session so the user can retry")
	}
	if _, ok := states.FieldString(userID, "memo"); !ok {
		t.Fatal("failed cancel must keep accumulated fields")
	}
}
