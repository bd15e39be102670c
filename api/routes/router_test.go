package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tableside/pos-backend/api/middleware"
	"github.com/tableside/pos-backend/internal/analytics"
	"github.com/tableside/pos-backend/internal/catalog"
	"github.com/tableside/pos-backend/internal/inventory"
	"github.com/tableside/pos-backend/internal/orders"
	"github.com/tableside/pos-backend/pkg/config"
	"github.com/tableside/pos-backend/pkg/db/dbtest"
	"github.com/tableside/pos-backend/pkg/outbox"
	"github.com/tableside/pos-backend/pkg/redis"
)

func newTestRouter(t *testing.T, redisClient *redis.Client) http.Handler {
	t.Helper()
	client := dbtest.NewClient(t, "routes")
	conn := client.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), nil)

	cat, err := catalog.NewService(catalog.NewRepository(conn), client, emitter, nil)
	require.NoError(t, err)
	invRepo := inventory.NewRepository(conn)
	deductor, err := inventory.NewDeductor(invRepo, cat)
	require.NoError(t, err)
	inv, err := inventory.NewService(invRepo, client, emitter, decimal.NewFromInt(5), nil, nil)
	require.NoError(t, err)
	ord, err := orders.NewService(orders.NewRepository(conn), client, cat, deductor, emitter)
	require.NoError(t, err)
	an, err := analytics.NewService(analytics.NewRepository(conn), time.UTC, 10)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.Idempotency.TTL = time.Hour

	return NewRouter(cfg, nil, client, redisClient, nil, Services{
		Catalog:   cat,
		Inventory: inv,
		Orders:    ord,
		Analytics: an,
	})
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope), resp.Body.String())
	return envelope.Data
}

func decodeErrorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope), resp.Body.String())
	return envelope.Error.Code
}

// seedMenu creates one ingredient with the given stock and a dish using 100
// units of it per portion.
func seedMenu(t *testing.T, h http.Handler, stock int) (ingredientID, dishID string) {
	t.Helper()
	resp := do(t, h, http.MethodPost, "/api/v1/ingredients", map[string]any{
		"name": "flour", "unit": "g", "initial_stock": fmt.Sprint(stock),
	}, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	ingredientID = decodeData(t, resp)["id"].(string)

	resp = do(t, h, http.MethodPost, "/api/v1/dishes", map[string]any{
		"name": "Flatbread", "category": "mains", "price": 500,
		"recipe": []map[string]any{{"ingredient_id": ingredientID, "quantity_needed": "100"}},
	}, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	dishID = decodeData(t, resp)["id"].(string)
	return ingredientID, dishID
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestRouter(t, nil)

	live := do(t, h, http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, live.Code)
	assert.Equal(t, "test", live.Header().Get("X-Tableside-Env"))

	ready := do(t, h, http.MethodGet, "/health/ready", nil, nil)
	require.Equal(t, http.StatusOK, ready.Code, ready.Body.String())
	checks := decodeData(t, ready)["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "disabled", checks["redis"])
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	h := newTestRouter(t, nil)
	ingredientID, dishID := seedMenu(t, h, 1000)

	resp := do(t, h, http.MethodPost, "/api/v1/orders", map[string]any{
		"tag":   "table 4",
		"items": []map[string]any{{"dish_id": dishID, "quantity": 2}},
	}, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	order := decodeData(t, resp)
	orderID := order["id"].(string)
	assert.EqualValues(t, 1000, order["order_total"])
	itemID := order["items"].([]any)[0].(map[string]any)["id"].(string)

	servePath := fmt.Sprintf("/api/v1/orders/%s/items/%s/serve", orderID, itemID)
	resp = do(t, h, http.MethodPost, servePath, map[string]any{"served": true}, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "served", decodeData(t, resp)["status"])
	assert.Equal(t, itemID, decodeData(t, resp)["item_id"])

	resp = do(t, h, http.MethodGet, "/api/v1/inventory", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var stock struct {
		Data []struct {
			IngredientID  string `json:"ingredient_id"`
			StockQuantity string `json:"stock_quantity"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &stock))
	require.Len(t, stock.Data, 1)
	assert.Equal(t, ingredientID, stock.Data[0].IngredientID)
	assert.Equal(t, "800", stock.Data[0].StockQuantity)

	// Empty body toggles back to pending and returns the stock.
	resp = do(t, h, http.MethodPost, servePath, nil, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "pending", decodeData(t, resp)["status"])

	resp = do(t, h, http.MethodPost, "/api/v1/orders/"+orderID+"/close", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	summary := decodeData(t, resp)
	assert.Equal(t, "closed", summary["status"])
	assert.Equal(t, true, summary["is_payment_done"])

	resp = do(t, h, http.MethodPost, "/api/v1/orders/"+orderID+"/cancel", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "STATE_CONFLICT", decodeErrorCode(t, resp))

	resp = do(t, h, http.MethodGet, "/api/v1/analytics/sales?range=today", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	rows := decodeData(t, resp)["rows"].([]any)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 1000, rows[0].(map[string]any)["revenue"])
}

func TestServeRejectsInsufficientStock(t *testing.T) {
	h := newTestRouter(t, nil)
	_, dishID := seedMenu(t, h, 150)

	resp := do(t, h, http.MethodPost, "/api/v1/orders", map[string]any{
		"tag":   "bar",
		"items": []map[string]any{{"dish_id": dishID, "quantity": 2}},
	}, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	order := decodeData(t, resp)
	itemID := order["items"].([]any)[0].(map[string]any)["id"].(string)

	resp = do(t, h, http.MethodPost, fmt.Sprintf("/api/v1/orders/%s/items/%s/serve", order["id"], itemID), map[string]any{"served": true}, nil)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", decodeErrorCode(t, resp))

	resp = do(t, h, http.MethodGet, "/api/v1/inventory", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"stock_quantity":"150"`)

	resp = do(t, h, http.MethodGet, "/api/v1/inventory?low_stock=true", nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"data":[]}`, resp.Body.String())
}

func TestRequestValidation(t *testing.T) {
	h := newTestRouter(t, nil)

	resp := do(t, h, http.MethodPost, "/api/v1/orders", map[string]any{"tag": "t", "items": []any{}}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeErrorCode(t, resp))

	resp = do(t, h, http.MethodGet, "/api/v1/orders/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, h, http.MethodGet, "/api/v1/orders?status=paid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, h, http.MethodGet, "/api/v1/analytics/sales?type=margin", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = do(t, h, http.MethodPost, "/api/v1/orders", map[string]any{
		"tag":   "t",
		"items": []map[string]any{{"dish_id": "0b7d3c9a-5d1e-4b8e-9a57-2f3c1d9e8a11", "quantity": 1}},
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCreateOrderReplaysWithIdempotencyKey(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	h := newTestRouter(t, redis.NewFromClient(rdb))
	_, dishID := seedMenu(t, h, 1000)

	body := map[string]any{
		"tag":   "patio 2",
		"items": []map[string]any{{"dish_id": dishID, "quantity": 1}},
	}
	headers := map[string]string{middleware.IdempotencyHeader: "terminal-3-0001"}

	first := do(t, h, http.MethodPost, "/api/v1/orders", body, headers)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := do(t, h, http.MethodPost, "/api/v1/orders", body, headers)
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replay"))
	assert.Equal(t, decodeData(t, first)["id"], decodeData(t, second)["id"])

	list := do(t, h, http.MethodGet, "/api/v1/orders", nil, nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Len(t, decodeData(t, list)["orders"].([]any), 1)
}
