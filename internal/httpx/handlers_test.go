package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"market/internal/auth"
	"market/internal/market"
)

// fakeStore is an in-memory implementation of the three store interfaces.
// Mutations run the same domain rules the pgx repos run inside their
// transactions, guarded by one mutex instead of row locks.
type fakeStore struct {
	mu       sync.Mutex
	members  map[string]market.Member // by id
	byName   map[string]string        // username -> id
	products map[string]market.Product
	orders   map[string]market.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:  map[string]market.Member{},
		byName:   map[string]string{},
		products: map[string]market.Product{},
		orders:   map[string]market.Order{},
	}
}

func (f *fakeStore) Create(ctx context.Context, m market.Member) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byName[m.Username]; ok {
		return market.ErrUsernameTaken
	}
	f.members[m.ID] = m
	f.byName[m.Username] = m.ID
	return nil
}

func (f *fakeStore) GetByUsername(ctx context.Context, username string) (market.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.byName[username]
	if !ok {
		return market.Member{}, market.ErrMemberNotFound
	}
	return f.members[id], nil
}

func (f *fakeStore) GetByID(ctx context.Context, id string) (market.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[id]
	if !ok {
		return market.Member{}, market.ErrMemberNotFound
	}
	return m, nil
}

type productStore struct{ *fakeStore }

func (f productStore) Create(ctx context.Context, p market.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
	return nil
}

func (f productStore) Get(ctx context.Context, id string) (market.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return market.Product{}, market.ErrProductNotFound
	}
	return p, nil
}

func (f productStore) List(ctx context.Context) ([]market.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]market.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f productStore) ListBySeller(ctx context.Context, sellerID string) ([]market.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []market.Product
	for _, p := range f.products {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f productStore) Update(ctx context.Context, id, sellerID string, upd market.ProductUpdate) (market.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return market.Product{}, market.ErrProductNotFound
	}
	if err := market.Authorize(market.ActionUpdateProduct, sellerID, market.RoleSeller, p); err != nil {
		return market.Product{}, err
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Stock != nil {
		p.Stock = *upd.Stock
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	f.products[id] = p
	return p, nil
}

func (f productStore) Delete(ctx context.Context, id, sellerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return market.ErrProductNotFound
	}
	if err := market.Authorize(market.ActionDeleteProduct, sellerID, market.RoleSeller, p); err != nil {
		return err
	}
	delete(f.products, id)
	return nil
}

type orderStore struct{ *fakeStore }

func (f orderStore) Reserve(ctx context.Context, productID, buyerID string, unitPrice, quantity int64) (market.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return market.Order{}, market.ErrProductNotFound
	}
	if err := market.ValidateReservation(p, buyerID, unitPrice, quantity); err != nil {
		return market.Order{}, err
	}
	o := market.Order{
		ID:         uuid.NewString(),
		ProductID:  productID,
		BuyerID:    buyerID,
		Status:     market.OrderReserved,
		Quantity:   quantity,
		TotalPrice: unitPrice * quantity,
	}
	p.Reserved += quantity
	f.products[productID] = p
	f.orders[o.ID] = o
	return o, nil
}

func (f orderStore) Approve(ctx context.Context, orderID, sellerID string) (market.Order, market.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return market.Order{}, market.Product{}, market.ErrOrderNotFound
	}
	p, ok := f.products[o.ProductID]
	if !ok {
		return market.Order{}, market.Product{}, market.ErrProductNotFound
	}
	if err := market.ApproveSale(&p, &o, sellerID); err != nil {
		return market.Order{}, market.Product{}, err
	}
	f.products[p.ID] = p
	f.orders[o.ID] = o
	return o, p, nil
}

func (f orderStore) ListByBuyer(ctx context.Context, buyerID string) ([]market.OrderSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []market.OrderSummary
	for _, o := range f.orders {
		if o.BuyerID == buyerID {
			out = append(out, f.summary(o))
		}
	}
	return out, nil
}

func (f orderStore) ListByProduct(ctx context.Context, productID string) ([]market.OrderSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []market.OrderSummary
	for _, o := range f.orders {
		if o.ProductID == productID {
			out = append(out, f.summary(o))
		}
	}
	return out, nil
}

func (f *fakeStore) summary(o market.Order) market.OrderSummary {
	return market.OrderSummary{
		ID:          o.ID,
		ProductName: f.products[o.ProductID].Name,
		TotalPrice:  o.TotalPrice,
		Status:      o.Status,
		Quantity:    o.Quantity,
	}
}

type testEnv struct {
	handler http.Handler
	store   *fakeStore
	tokens  *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fs := newFakeStore()
	tm := &auth.TokenManager{Secret: []byte("test-secret"), TTL: time.Hour}

	ah := &AuthHandler{Members: fs, Hasher: auth.Hasher{Cost: 4}, Tokens: tm}
	ph := &ProductHandler{Products: productStore{fs}}
	oh := &OrderHandler{Orders: orderStore{fs}, Products: productStore{fs}, Service: "test"}

	r := NewRouter()
	MountRoutes(r, auth.Middleware(tm), ah, ph, oh)
	return &testEnv{handler: r, store: fs, tokens: tm}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) addMember(t *testing.T, username string, role market.Role) (market.Member, string) {
	t.Helper()
	m := market.Member{ID: uuid.NewString(), Username: username, Role: role, CreatedAt: time.Now()}
	if err := e.store.Create(context.Background(), m); err != nil {
		t.Fatalf("add member: %v", err)
	}
	token, err := e.tokens.Issue(m)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return m, token
}

func (e *testEnv) addProduct(t *testing.T, sellerID string, price, stock int64) market.Product {
	t.Helper()
	p := market.Product{
		ID:       uuid.NewString(),
		Name:     "camera",
		Price:    price,
		Stock:    stock,
		Status:   market.ProductForSale,
		SellerID: sellerID,
	}
	e.store.products[p.ID] = p
	return p
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", "",
		map[string]string{"username": "alice", "password": "pw", "role": "SELLER"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: code = %d, body = %s", rec.Code, rec.Body)
	}
	var created market.Member
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Username != "alice" || created.Role != market.RoleSeller {
		t.Errorf("created = %+v", created)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("password")) {
		t.Error("response must not leak the password hash")
	}

	// duplicate username
	rec = env.do(t, http.MethodPost, "/auth/register", "",
		map[string]string{"username": "alice", "password": "pw", "role": "BUYER"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: code = %d, want 409", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/auth/login", "",
		map[string]string{"username": "alice", "password": "pw"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: code = %d, body = %s", rec.Code, rec.Body)
	}
	var lr map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &lr); err != nil || lr["token"] == "" {
		t.Fatalf("login body = %s", rec.Body)
	}

	rec = env.do(t, http.MethodPost, "/auth/login", "",
		map[string]string{"username": "alice", "password": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password: code = %d, want 401", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/auth/me", lr["token"], nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: code = %d", rec.Code)
	}
	var me map[string]market.Role
	if err := json.Unmarshal(rec.Body.Bytes(), &me); err != nil || me["role"] != market.RoleSeller {
		t.Errorf("me body = %s", rec.Body)
	}

	rec = env.do(t, http.MethodGet, "/auth/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me without token: code = %d, want 401", rec.Code)
	}
}

func TestProductEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, sellerToken := env.addMember(t, "seller", market.RoleSeller)
	_, buyerToken := env.addMember(t, "buyer", market.RoleBuyer)

	// buyers cannot list products for sale
	rec := env.do(t, http.MethodPost, "/product/add", buyerToken,
		map[string]any{"name": "camera", "price": 100, "stock": 10})
	if rec.Code != http.StatusForbidden {
		t.Errorf("buyer add: code = %d, want 403", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/product/add", sellerToken,
		map[string]any{"name": "camera", "price": 100, "stock": 10})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seller add: code = %d, body = %s", rec.Code, rec.Body)
	}
	var p market.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.Status != market.ProductForSale {
		t.Errorf("new listing status = %s, want FOR_SALE", p.Status)
	}

	rec = env.do(t, http.MethodGet, "/product/all", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("list: code = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/product/"+p.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("detail: code = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/product/"+uuid.NewString(), "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing detail: code = %d, want 404", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/product/seller/products", sellerToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("seller products: code = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/product/seller/products", buyerToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("buyer seller-products: code = %d, want 403", rec.Code)
	}

	// only the owner may patch
	rec = env.do(t, http.MethodPatch, "/product/"+p.ID, buyerToken,
		map[string]any{"price": 150})
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner patch: code = %d, want 403", rec.Code)
	}
	rec = env.do(t, http.MethodPatch, "/product/"+p.ID, sellerToken,
		map[string]any{"price": 150})
	if rec.Code != http.StatusOK {
		t.Fatalf("owner patch: code = %d, body = %s", rec.Code, rec.Body)
	}
	var updated market.Product
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Price != 150 || updated.Name != "camera" {
		t.Errorf("patch result = %+v", updated)
	}

	rec = env.do(t, http.MethodDelete, "/product/"+p.ID, buyerToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner delete: code = %d, want 403", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/product/"+p.ID, sellerToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("owner delete: code = %d", rec.Code)
	}
}

func TestReserveAndApproveFlow(t *testing.T) {
	env := newTestEnv(t)
	seller, sellerToken := env.addMember(t, "seller", market.RoleSeller)
	buyer, buyerToken := env.addMember(t, "buyer", market.RoleBuyer)
	p := env.addProduct(t, seller.ID, 100, 10)

	// price mismatch
	rec := env.do(t, http.MethodPost, "/order/"+p.ID+"/reserve", buyerToken,
		map[string]any{"price": 90, "quantity": 1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("price mismatch: code = %d, want 400", rec.Code)
	}

	// seller reserving own listing
	rec = env.do(t, http.MethodPost, "/order/"+p.ID+"/reserve", sellerToken,
		map[string]any{"price": 100, "quantity": 1})
	if rec.Code != http.StatusForbidden {
		t.Errorf("self reserve: code = %d, want 403", rec.Code)
	}

	// more than stock
	rec = env.do(t, http.MethodPost, "/order/"+p.ID+"/reserve", buyerToken,
		map[string]any{"price": 100, "quantity": 11})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("over stock: code = %d, want 400", rec.Code)
	}

	// success
	rec = env.do(t, http.MethodPost, "/order/"+p.ID+"/reserve", buyerToken,
		map[string]any{"price": 100, "quantity": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("reserve: code = %d, body = %s", rec.Code, rec.Body)
	}
	var rr reserveResp
	if err := json.Unmarshal(rec.Body.Bytes(), &rr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rr.TotalPrice != 100 {
		t.Errorf("total = %d, want 100", rr.TotalPrice)
	}

	// approval by non-owner
	rec = env.do(t, http.MethodPost, "/order/"+rr.OrderID+"/approve", buyerToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner approve: code = %d, want 403", rec.Code)
	}

	// approval by the seller
	rec = env.do(t, http.MethodPost, "/order/"+rr.OrderID+"/approve", sellerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: code = %d, body = %s", rec.Code, rec.Body)
	}
	var ar approveResp
	if err := json.Unmarshal(rec.Body.Bytes(), &ar); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ar.Status != market.OrderCompleted || ar.BuyerID != buyer.ID || ar.Quantity != 1 {
		t.Errorf("approve resp = %+v", ar)
	}
	got := env.store.products[p.ID]
	if got.Stock != 9 || got.Status != market.ProductForSale {
		t.Errorf("product after approval = %+v", got)
	}

	// re-approving a completed order
	rec = env.do(t, http.MethodPost, "/order/"+rr.OrderID+"/approve", sellerToken, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("double approve: code = %d, want 409", rec.Code)
	}

	// buyer's order list
	rec = env.do(t, http.MethodGet, "/order/buyer-list", buyerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("buyer-list: code = %d", rec.Code)
	}
	var summaries []market.OrderSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ProductName != "camera" || summaries[0].TotalPrice != 100 {
		t.Errorf("summaries = %+v", summaries)
	}

	// seller's per-product list
	rec = env.do(t, http.MethodGet, "/order/seller-list/"+p.ID, sellerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("seller-list: code = %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/order/seller-list/"+uuid.NewString(), sellerToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("seller-list missing product: code = %d, want 404", rec.Code)
	}
}

func TestApproveExhaustsStock(t *testing.T) {
	env := newTestEnv(t)
	seller, sellerToken := env.addMember(t, "seller", market.RoleSeller)
	_, buyerToken := env.addMember(t, "buyer", market.RoleBuyer)
	p := env.addProduct(t, seller.ID, 100, 1)

	rec := env.do(t, http.MethodPost, "/order/"+p.ID+"/reserve", buyerToken,
		map[string]any{"price": 100, "quantity": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("reserve: code = %d, body = %s", rec.Code, rec.Body)
	}
	var rr reserveResp
	if err := json.Unmarshal(rec.Body.Bytes(), &rr); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = env.do(t, http.MethodPost, "/order/"+rr.OrderID+"/approve", sellerToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: code = %d, body = %s", rec.Code, rec.Body)
	}
	got := env.store.products[p.ID]
	if got.Stock != 0 || got.Status != market.ProductSoldOut {
		t.Errorf("product after exhausting approval = %+v", got)
	}
}

func TestConcurrentReservationsNeverOvercommit(t *testing.T) {
	env := newTestEnv(t)
	seller, _ := env.addMember(t, "seller", market.RoleSeller)
	p := env.addProduct(t, seller.ID, 100, 20)
	orders := orderStore{env.store}

	const attempts = 50
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			buyerID := fmt.Sprintf("buyer-%d", i)
			_, err := orders.Reserve(context.Background(), p.ID, buyerID, 100, 1)
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var ok int
	for err := range results {
		if err == nil {
			ok++
		}
	}
	if ok != 20 {
		t.Errorf("successful reservations = %d, want 20", ok)
	}
	got := env.store.products[p.ID]
	if got.Reserved != 20 {
		t.Errorf("reserved = %d, want 20", got.Reserved)
	}
}
