package httpgin_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railgo/railgo/internal/domain"
	"github.com/railgo/railgo/internal/repository"
	"github.com/railgo/railgo/internal/service/train"
	httpgin "github.com/railgo/railgo/internal/transport/http/gin"
)

type memTrains struct {
	mu       sync.Mutex
	docs     map[string]*domain.Train
	versions map[string]int64
}

func newMemTrains() *memTrains {
	return &memTrains{
		docs:     make(map[string]*domain.Train),
		versions: make(map[string]int64),
	}
}

func clone(t *domain.Train) *domain.Train {
	raw, _ := json.Marshal(t)
	var cp domain.Train
	_ = json.Unmarshal(raw, &cp)
	return &cp
}

func (m *memTrains) Insert(_ context.Context, t *domain.Train) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[t.Prn]; ok {
		return repository.ErrConflict
	}
	m.docs[t.Prn] = clone(t)
	m.versions[t.Prn] = 1
	return nil
}

func (m *memTrains) Get(_ context.Context, prn string) (*domain.Train, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.docs[prn]
	if !ok {
		return nil, 0, repository.ErrNotFound
	}
	return clone(t), m.versions[prn], nil
}

func (m *memTrains) Update(_ context.Context, t *domain.Train, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[t.Prn]; !ok {
		return repository.ErrNotFound
	}
	if m.versions[t.Prn] != version {
		return repository.ErrVersionConflict
	}
	m.docs[t.Prn] = clone(t)
	m.versions[t.Prn]++
	return nil
}

func (m *memTrains) Upsert(_ context.Context, t *domain.Train) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[t.Prn] = clone(t)
	m.versions[t.Prn]++
	return nil
}

func (m *memTrains) All(_ context.Context) ([]domain.Train, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Train, 0, len(m.docs))
	for _, t := range m.docs {
		out = append(out, *clone(t))
	}
	return out, nil
}

func newTrainServer(t *testing.T) (*httptest.Server, *memTrains) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newMemTrains()
	svc := train.New(store, nil, nil)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := httptest.NewServer(httpgin.NewTrainRouter(svc, logger))
	t.Cleanup(srv.Close)
	return srv, store
}

func addTrain(t *testing.T, srv *httptest.Server, body string) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/train/addTrain", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func decodeEnvelope(t *testing.T, resp *http.Response) httpgin.Envelope {
	t.Helper()
	defer resp.Body.Close()
	var env httpgin.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

const trainDoc = `{
	"prn": "T1",
	"trainName": "Coastal Express",
	"seats": {"2025-06-01": [[0,1,0],[0,0,0]]},
	"schedules": {"2025-06-01": [
		{"name": "Alpha", "arrivalTime": "2025-06-01T08:00:00"},
		{"name": "Gamma", "arrivalTime": "2025-06-01T13:15:00"}
	]}
}`

func TestTrainRouter(t *testing.T) {
	t.Run("should book the first contiguous run over the wire", func(t *testing.T) {
		srv, _ := newTrainServer(t)
		addTrain(t, srv, trainDoc)

		resp, err := http.Post(
			srv.URL+"/v1/seats/bookSeats?trainPrn=T1&travelDate=2025-06-01&numberOfSeatsToBeBooked=3",
			"application/json", nil,
		)
		require.NoError(t, err)
		env := decodeEnvelope(t, resp)

		require.True(t, env.Status)
		raw, err := json.Marshal(env.Data)
		require.NoError(t, err)
		assert.JSONEq(t, `[[1,0],[1,1],[1,2]]`, string(raw))
	})

	t.Run("should map not enough seats onto a 500 envelope", func(t *testing.T) {
		srv, _ := newTrainServer(t)
		addTrain(t, srv, trainDoc)

		resp, err := http.Post(
			srv.URL+"/v1/seats/bookSeats?trainPrn=T1&travelDate=2025-06-01&numberOfSeatsToBeBooked=99",
			"application/json", nil,
		)
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		env := decodeEnvelope(t, resp)
		assert.False(t, env.Status)
		assert.Equal(t, "NOT_ENOUGH_SEATS", env.ResponseStatus)
	})

	t.Run("should map a missing train onto a 404 envelope", func(t *testing.T) {
		srv, _ := newTrainServer(t)

		resp, err := http.Get(srv.URL + "/v1/train/canBeBooked?trainPrn=ghost&source=Alpha&destination=Gamma&travelDate=2025-06-01")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		env := decodeEnvelope(t, resp)
		assert.Equal(t, "TRAIN_NOT_FOUND", env.ResponseStatus)
	})

	t.Run("should map a bad route onto a 400 envelope", func(t *testing.T) {
		srv, _ := newTrainServer(t)
		addTrain(t, srv, trainDoc)

		resp, err := http.Get(srv.URL + "/v1/train/canBeBooked?trainPrn=T1&source=Gamma&destination=Alpha&travelDate=2025-06-01")
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		env := decodeEnvelope(t, resp)
		assert.Equal(t, "INVALID_DATA", env.ResponseStatus)
	})

	t.Run("should answer a duplicate addTrain with a 409 envelope", func(t *testing.T) {
		srv, _ := newTrainServer(t)
		addTrain(t, srv, trainDoc)

		resp, err := http.Post(srv.URL+"/v1/train/addTrain", "application/json", strings.NewReader(trainDoc))
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		env := decodeEnvelope(t, resp)
		assert.Equal(t, "TRAIN_ALREADY_EXISTS", env.ResponseStatus)
	})

	t.Run("should free seats idempotently over the wire", func(t *testing.T) {
		srv, store := newTrainServer(t)
		addTrain(t, srv, trainDoc)

		freeBody := `{"trainPrn": "T1", "bookedSeatsList": [[0,1]], "travelDate": "2025-06-01"}`
		for i := 0; i < 2; i++ {
			req, err := http.NewRequest(http.MethodPut, srv.URL+"/v1/seats/freeBookedSeats", strings.NewReader(freeBody))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			env := decodeEnvelope(t, resp)
			assert.True(t, env.Status)
		}

		doc, _, err := store.Get(context.Background(), "T1")
		require.NoError(t, err)
		assert.Equal(t, [][]int{{0, 0, 0}, {0, 0, 0}}, doc.Seats["2025-06-01"])
	})

	t.Run("should serve the schedule with an etag", func(t *testing.T) {
		srv, _ := newTrainServer(t)
		addTrain(t, srv, trainDoc)

		resp, err := http.Get(srv.URL + "/v1/train/schedule?trainPrn=T1&travelDate=2025-06-01")
		require.NoError(t, err)
		tag := resp.Header.Get("ETag")
		require.NotEmpty(t, tag)
		env := decodeEnvelope(t, resp)
		assert.True(t, env.Status)

		req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/train/schedule?trainPrn=T1&travelDate=2025-06-01", nil)
		require.NoError(t, err)
		req.Header.Set("If-None-Match", tag)

		resp2, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp2.Body.Close()
		assert.Equal(t, http.StatusNotModified, resp2.StatusCode)
	})
}
