package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"dispatchsvc/internal/domain"
	"dispatchsvc/internal/eventbus"
	"dispatchsvc/internal/http/handlers"
	"dispatchsvc/internal/logx"
	"dispatchsvc/internal/queue"
	"dispatchsvc/internal/store"
)

func newTestHandlers() *handlers.Handlers {
	return handlers.New(store.New(), queue.New(8), eventbus.New(8), logx.Nop())
}

func TestCreateCourier_Success(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	body, _ := json.Marshal(map[string]any{
		"name": "Jan", "lat": 55.75, "lng": 37.62, "capacity": 3, "rating": 4.5,
	})

	req := httptest.NewRequest(http.MethodPost, "/couriers", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateCourier(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got domain.Courier
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "Jan", got.Name)
	require.Equal(t, domain.CourierAvailable, got.Status)
}

func TestCreateCourier_InvalidInputReturns400(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	body, _ := json.Marshal(map[string]any{"name": "", "capacity": 0})

	req := httptest.NewRequest(http.MethodPost, "/couriers", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateCourier(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCourier_NotFoundReturns404(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	r := chi.NewRouter()
	r.Get("/couriers/{id}", h.GetCourier)

	req := httptest.NewRequest(http.MethodGet, "/couriers/00000000-0000-0000-0000-000000000000", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCouriers_ReturnsAllCreated(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	for i := 0; i < 3; i++ {
		_, err := h.Store.CreateCourier(domain.CourierInput{
			Name: "c", Location: domain.Location{Lat: 1, Lng: 1}, Capacity: 2, Rating: 4,
		})
		require.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/couriers", nil)
	rec := httptest.NewRecorder()
	h.ListCouriers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []domain.Courier
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 3)
}

func TestListCouriers_LimitOffsetPagesInCreationOrder(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	var created []domain.Courier
	for i := 0; i < 5; i++ {
		c, err := h.Store.CreateCourier(domain.CourierInput{
			Name: "c", Location: domain.Location{Lat: 1, Lng: 1}, Capacity: 2, Rating: 4,
		})
		require.NoError(t, err)
		created = append(created, c)
	}

	req := httptest.NewRequest(http.MethodGet, "/couriers?limit=2&offset=1", nil)
	rec := httptest.NewRecorder()
	h.ListCouriers(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got []domain.Courier
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	require.Equal(t, created[1].ID, got[0].ID)
	require.Equal(t, created[2].ID, got[1].ID)
}

func TestListCouriers_InvalidLimitReturns400(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	req := httptest.NewRequest(http.MethodGet, "/couriers?limit=-1", nil)
	rec := httptest.NewRecorder()
	h.ListCouriers(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatchCourierStatus_UpdatesStatus(t *testing.T) {
	t.Parallel()

	h := newTestHandlers()
	c, err := h.Store.CreateCourier(domain.CourierInput{
		Name: "c", Location: domain.Location{Lat: 1, Lng: 1}, Capacity: 2, Rating: 4,
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Patch("/couriers/{id}/status", h.PatchCourierStatus)

	body, _ := json.Marshal(map[string]string{"status": string(domain.CourierOffline)})
	req := httptest.NewRequest(http.MethodPatch, "/couriers/"+c.ID.String()+"/status", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)

	got, err := h.Store.GetCourier(c.ID)
	require.NoError(t, err)
	require.Equal(t, domain.CourierOffline, got.Status)
}
