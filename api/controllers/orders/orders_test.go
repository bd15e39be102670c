package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	internalorders "github.com/tableside/pos-backend/internal/orders"
	"github.com/tableside/pos-backend/pkg/enums"
	pkgerrors "github.com/tableside/pos-backend/pkg/errors"
)

type stubOrdersService struct {
	internalorders.Service
	served    *internalorders.SetServedInput
	created   *internalorders.CreateOrderInput
	listed    *internalorders.ListOrdersInput
	createErr error
}

func (s *stubOrdersService) SetItemServed(ctx context.Context, input internalorders.SetServedInput) (*internalorders.ItemStatusDTO, error) {
	s.served = &input
	return &internalorders.ItemStatusDTO{OrderID: input.OrderID, ItemID: input.ItemID, Status: enums.OrderItemStatusServed}, nil
}

func (s *stubOrdersService) CreateOrder(ctx context.Context, input internalorders.CreateOrderInput) (*internalorders.OrderDTO, error) {
	s.created = &input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &internalorders.OrderDTO{ID: uuid.New(), Tag: input.Tag, Status: enums.OrderStatusOpen}, nil
}

func (s *stubOrdersService) ListOrders(ctx context.Context, input internalorders.ListOrdersInput) (*internalorders.OrderList, error) {
	s.listed = &input
	return &internalorders.OrderList{Orders: []internalorders.OrderDTO{}}, nil
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestServeWithoutBodyToggles(t *testing.T) {
	svc := &stubOrdersService{}
	orderID, itemID := uuid.New(), uuid.New()
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/serve", nil), map[string]string{
		"orderId": orderID.String(),
		"itemId":  itemID.String(),
	})
	resp := httptest.NewRecorder()

	Serve(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.served == nil || svc.served.Served != nil {
		t.Fatalf("expected toggle request, got %+v", svc.served)
	}
	if svc.served.OrderID != orderID || svc.served.ItemID != itemID {
		t.Fatalf("path ids not forwarded: %+v", svc.served)
	}
}

func TestServeWithExplicitFlag(t *testing.T) {
	svc := &stubOrdersService{}
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/serve", strings.NewReader(`{"served":false}`)), map[string]string{
		"orderId": uuid.NewString(),
		"itemId":  uuid.NewString(),
	})
	resp := httptest.NewRecorder()

	Serve(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.served.Served == nil || *svc.served.Served {
		t.Fatalf("expected served=false to be forwarded")
	}

	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data["status"] != "served" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestServeRejectsBadItemID(t *testing.T) {
	svc := &stubOrdersService{}
	req := withURLParams(httptest.NewRequest(http.MethodPost, "/serve", nil), map[string]string{
		"orderId": uuid.NewString(),
		"itemId":  "42",
	})
	resp := httptest.NewRecorder()

	Serve(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.served != nil {
		t.Fatalf("service should not be called")
	}
}

func TestCreateSanitizesTagAndMapsErrors(t *testing.T) {
	svc := &stubOrdersService{}
	dishID := uuid.New()
	payload := `{"tag":"  table 9  ","items":[{"dish_id":"` + dishID.String() + `","quantity":2}]}`
	resp := httptest.NewRecorder()

	Create(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(payload)))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.created.Tag != "table 9" {
		t.Fatalf("expected trimmed tag, got %q", svc.created.Tag)
	}
	if len(svc.created.Items) != 1 || svc.created.Items[0].DishID != dishID || svc.created.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", svc.created.Items)
	}

	svc.createErr = pkgerrors.New(pkgerrors.CodeNotFound, "dish not found")
	resp = httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(payload)))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	cases := map[string]string{
		"missing tag":      `{"items":[{"dish_id":"` + uuid.NewString() + `","quantity":1}]}`,
		"zero quantity":    `{"tag":"t","items":[{"dish_id":"` + uuid.NewString() + `","quantity":0}]}`,
		"bad dish id":      `{"tag":"t","items":[{"dish_id":"nope","quantity":1}]}`,
		"unknown field":    `{"tag":"t","items":[],"note":"x"}`,
		"quantity too big": `{"tag":"t","items":[{"dish_id":"` + uuid.NewString() + `","quantity":1000}]}`,
	}
	for name, payload := range cases {
		svc := &stubOrdersService{}
		resp := httptest.NewRecorder()
		Create(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(payload)))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", name, resp.Code)
		}
		if svc.created != nil {
			t.Fatalf("%s: service should not be called", name)
		}
	}
}

func TestListParsesStatus(t *testing.T) {
	svc := &stubOrdersService{}
	resp := httptest.NewRecorder()

	List(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=OPEN&limit=5", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.listed.Status == nil || *svc.listed.Status != enums.OrderStatusOpen || svc.listed.Limit != 5 {
		t.Fatalf("unexpected list input %+v", svc.listed)
	}
}
