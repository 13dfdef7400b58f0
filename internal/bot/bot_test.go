package bot

import (
	"context"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"esimbot/core/telegram/state"
	"esimbot/internal/catalog"
	"esimbot/internal/flow"
	"esimbot/internal/geo"
	"esimbot/internal/order"
)

// fakeContext captures outbound sends; only the methods the handlers touch
// are implemented.
type fakeContext struct {
	tele.Context
	user  *tele.User
	text  string
	store map[string]any
	sent  []any
}

func newFakeContext(userID int64, text string) *fakeContext {
	return &fakeContext{
		user:  &tele.User{ID: userID, Username: "buyer"},
		text:  text,
		store: map[string]any{},
	}
}

func (f *fakeContext) Sender() *tele.User       { return f.user }
func (f *fakeContext) Chat() *tele.Chat         { return &tele.Chat{ID: f.user.ID} }
func (f *fakeContext) Update() tele.Update      { return tele.Update{ID: 1} }
func (f *fakeContext) Message() *tele.Message   { return &tele.Message{} }
func (f *fakeContext) Callback() *tele.Callback { return nil }
func (f *fakeContext) Text() string             { return f.text }
func (f *fakeContext) Get(k string) any         { return f.store[k] }
func (f *fakeContext) Set(k string, v any)      { f.store[k] = v }

func (f *fakeContext) Send(what any, _ ...any) error {
	f.sent = append(f.sent, what)
	return nil
}

func (f *fakeContext) sentTexts() []string {
	var out []string
	for _, s := range f.sent {
		if txt, ok := s.(string); ok {
			out = append(out, txt)
		}
	}
	return out
}

func (f *fakeContext) sentPhotos() []*tele.Photo {
	var out []*tele.Photo
	for _, s := range f.sent {
		if p, ok := s.(*tele.Photo); ok {
			out = append(out, p)
		}
	}
	return out
}

type plansStub struct{ plans []catalog.Plan }

func (s plansStub) ByID(id string) (catalog.Plan, bool) {
	for _, p := range s.plans {
		if p.ID == id {
			return p, true
		}
	}
	return catalog.Plan{}, false
}

func (s plansStub) List() []catalog.Plan { return s.plans }

type ordersStub struct {
	nextID  int64
	pending map[int64]*order.Order
}

func (s *ordersStub) Create(_ context.Context, o *order.Order) error {
	s.nextID++
	o.ID = s.nextID
	s.pending[o.UserID] = o
	return nil
}

func (s *ordersStub) PendingByUser(_ context.Context, userID int64) (*order.Order, error) {
	o, ok := s.pending[userID]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *ordersStub) MarkPaid(_ context.Context, id int64, _ string) error {
	for uid, o := range s.pending {
		if o.ID == id {
			delete(s.pending, uid)
		}
	}
	return nil
}

func (s *ordersStub) CancelPending(_ context.Context, userID int64) (int64, error) {
	if _, ok := s.pending[userID]; ok {
		delete(s.pending, userID)
		return 1, nil
	}
	return 0, nil
}

func (s *ordersStub) Stats(context.Context) (order.Stats, error) { return order.Stats{}, nil }

type paymentsStub struct{ confirmed bool }

func (s paymentsStub) Confirmed(context.Context, string, float64) (bool, error) {
	return s.confirmed, nil
}

type esimStub struct{ url string }

func (s esimStub) Order(context.Context, string, string, string) (string, error) {
	return s.url, nil
}

type geoStub struct{}

func (geoStub) Resolve(_ context.Context, q string) (geo.Result, error) {
	return geo.Result{Query: q}, nil
}

func newTestHandlers(paid bool) (*Handlers, state.Manager) {
	states := state.NewMemoryManager()
	svc := flow.NewService(
		flow.Config{WalletAddress: "TCSQBnCjaX9EDgD24V3C4dTkfi98PFfT3s"},
		states,
		plansStub{plans: []catalog.Plan{{ID: "eu-5gb", Region: "Europe", Name: "Europe 5 GB", Price: 9.90}}},
		&ordersStub{pending: map[int64]*order.Order{}},
		paymentsStub{confirmed: paid},
		esimStub{url: "https://p.example/act/1"},
		geoStub{},
	)
	h := NewHandlers(svc, states)
	state.RegisterHandler(flow.StateAwaitingEmail, h.handleEmailInput)
	state.RegisterHandler(flow.StateReady, h.handleReadyReminder)
	return h, states
}

const testUserID = int64(77)

func issueInvoice(t *testing.T, h *Handlers) {
	t.Helper()
	ctx := context.Background()
	if _, err := h.flow.ChoosePlan(ctx, testUserID, "eu-5gb"); err != nil {
		t.Fatalf("ChoosePlan: %v", err)
	}
	if _, err := h.flow.SubmitEmail(ctx, testUserID, "buyer", "buyer@example.com"); err != nil {
		t.Fatalf("SubmitEmail: %v", err)
	}
}

func TestCheckDeliversActivationTextAndImage(t *testing.T) {
	h, _ := newTestHandlers(true)
	issueInvoice(t, h)

	fc := newFakeContext(testUserID, "/check")
	if err := h.handleCheck(fc); err != nil {
		t.Fatalf("handleCheck: %v", err)
	}

	texts := fc.sentTexts()
	if len(texts) == 0 || !strings.Contains(texts[0], "https://p.example/act/1") {
		t.Fatalf("activation link missing from texts: %v", texts)
	}
	photos := fc.sentPhotos()
	if len(photos) != 1 {
		t.Fatalf("expected one activation image, got %d", len(photos))
	}
	if !strings.Contains(photos[0].Caption, "order #1") {
		t.Fatalf("caption = %q", photos[0].Caption)
	}
}

func TestEmailInputDeliversInvoiceImage(t *testing.T) {
	h, states := newTestHandlers(false)
	if _, err := h.flow.ChoosePlan(context.Background(), testUserID, "eu-5gb"); err != nil {
		t.Fatalf("ChoosePlan: %v", err)
	}

	fc := newFakeContext(testUserID, "buyer@example.com")
	if err := states.ManagerHandler(fc); err != nil {
		t.Fatalf("ManagerHandler: %v", err)
	}
	if len(fc.sentPhotos()) != 1 {
		t.Fatalf("expected invoice QR image, sent: %v", fc.sent)
	}
}

func TestReadyStateTextGetsReminder(t *testing.T) {
	h, states := newTestHandlers(false)
	issueInvoice(t, h)

	fc := newFakeContext(testUserID, "hello?")
	if err := states.ManagerHandler(fc); err != nil {
		t.Fatalf("ManagerHandler: %v", err)
	}

	texts := fc.sentTexts()
	if len(texts) != 1 || !strings.Contains(texts[0], "/check") {
		t.Fatalf("expected pending-invoice reminder, got %v", texts)
	}
}

func TestPlansMentionsOutstandingOrder(t *testing.T) {
	h, states := newTestHandlers(false)
	issueInvoice(t, h)

	fc := newFakeContext(testUserID, "/plans")
	wrapped := state.WithSession(states)(h.handlePlans)
	if err := wrapped(fc); err != nil {
		t.Fatalf("handlePlans: %v", err)
	}

	texts := fc.sentTexts()
	if len(texts) != 1 || !strings.Contains(texts[0], "order in progress") {
		t.Fatalf("expected in-progress notice, got %v", texts)
	}

	fresh := newFakeContext(testUserID+1, "/plans")
	if err := state.WithSession(states)(h.handlePlans)(fresh); err != nil {
		t.Fatalf("handlePlans (idle): %v", err)
	}
	if got := fresh.sentTexts(); len(got) != 1 || strings.Contains(got[0], "order in progress") {
		t.Fatalf("idle user must not see the notice, got %v", got)
	}
}
