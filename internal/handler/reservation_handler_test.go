package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
	"github.com/kaeky/Yum-Yum-sub001/internal/dto"
	"github.com/kaeky/Yum-Yum-sub001/pkg/middleware"
	"github.com/kaeky/Yum-Yum-sub001/pkg/response"
)

// MockReservationService is a mock implementation of ReservationService for testing
type MockReservationService struct {
	CreateFunc         func(ctx context.Context, customerID string, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error)
	ConfirmFunc        func(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error)
	SeatFunc           func(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error)
	CompleteFunc       func(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error)
	CancelFunc         func(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error)
	GetFunc            func(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error)
	ListByCustomerFunc func(ctx context.Context, customerID string, page, pageSize int) (*dto.PaginatedResponse, error)
	SweepNoShowsFunc   func(ctx context.Context, limit int) (int, error)
}

func (m *MockReservationService) Create(ctx context.Context, customerID string, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, customerID, req)
	}
	return nil, nil
}

func (m *MockReservationService) Confirm(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error) {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, reservationID, customerID)
	}
	return nil, nil
}

func (m *MockReservationService) Seat(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error) {
	if m.SeatFunc != nil {
		return m.SeatFunc(ctx, reservationID, customerID)
	}
	return nil, nil
}

func (m *MockReservationService) Complete(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, reservationID, customerID)
	}
	return nil, nil
}

func (m *MockReservationService) Cancel(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error) {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, reservationID, customerID)
	}
	return nil, nil
}

func (m *MockReservationService) Get(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, reservationID, customerID)
	}
	return nil, nil
}

func (m *MockReservationService) ListByCustomer(ctx context.Context, customerID string, page, pageSize int) (*dto.PaginatedResponse, error) {
	if m.ListByCustomerFunc != nil {
		return m.ListByCustomerFunc(ctx, customerID, page, pageSize)
	}
	return nil, nil
}

func (m *MockReservationService) SweepNoShows(ctx context.Context, limit int) (int, error) {
	if m.SweepNoShowsFunc != nil {
		return m.SweepNoShowsFunc(ctx, limit)
	}
	return 0, nil
}

func setupReservationRouter(svc *MockReservationService, customerID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	if customerID != "" {
		router.Use(func(c *gin.Context) {
			c.Set(middleware.CustomerIDKey, customerID)
			c.Next()
		})
	}

	h := NewReservationHandler(svc)
	reservations := router.Group("/reservations")
	{
		reservations.POST("", h.Create)
		reservations.GET("", h.List)
		reservations.GET("/:id", h.Get)
		reservations.POST("/:id/confirm", h.Confirm)
		reservations.POST("/:id/seat", h.Seat)
		reservations.POST("/:id/complete", h.Complete)
		reservations.POST("/:id/cancel", h.Cancel)
	}

	return router
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var env response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestReservationHandler_Create(t *testing.T) {
	slotStart := time.Date(2026, 9, 5, 1, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		customerID     string
		body           interface{}
		createFunc     func(ctx context.Context, customerID string, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error)
		expectedStatus int
		expectedCode   string
	}{
		{
			name:       "successful creation",
			customerID: "cust-001",
			body: dto.CreateReservationRequest{
				RestaurantID: "rest-001",
				SlotStart:    slotStart.Format(time.RFC3339),
				PartySize:    2,
			},
			createFunc: func(ctx context.Context, customerID string, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error) {
				return &dto.ReservationResponse{
					ID:        "res-001",
					Status:    "PENDING",
					SlotStart: slotStart,
					SlotEnd:   slotStart.Add(time.Hour),
				}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "unauthorized",
			customerID:     "",
			body:           dto.CreateReservationRequest{},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "UNAUTHORIZED",
		},
		{
			name:           "malformed body",
			customerID:     "cust-001",
			body:           "not json",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "BAD_REQUEST",
		},
		{
			name:       "no table available",
			customerID: "cust-001",
			body: dto.CreateReservationRequest{
				RestaurantID: "rest-001",
				SlotStart:    slotStart.Format(time.RFC3339),
				PartySize:    10,
			},
			createFunc: func(ctx context.Context, customerID string, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error) {
				return nil, domain.ErrNoTableAvailable
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "NO_TABLE_AVAILABLE",
		},
		{
			name:       "slot contention exhausted",
			customerID: "cust-001",
			body: dto.CreateReservationRequest{
				RestaurantID: "rest-001",
				SlotStart:    slotStart.Format(time.RFC3339),
				PartySize:    2,
			},
			createFunc: func(ctx context.Context, customerID string, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error) {
				return nil, domain.ErrCapacityConflict
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "SLOT_CONTENTION",
		},
		{
			name:       "restaurant not found",
			customerID: "cust-001",
			body: dto.CreateReservationRequest{
				RestaurantID: "rest-999",
				SlotStart:    slotStart.Format(time.RFC3339),
				PartySize:    2,
			},
			createFunc: func(ctx context.Context, customerID string, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error) {
				return nil, domain.ErrRestaurantNotFound
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "NOT_FOUND",
		},
		{
			name:       "invalid slot start",
			customerID: "cust-001",
			body: dto.CreateReservationRequest{
				RestaurantID: "rest-001",
				SlotStart:    slotStart.Format(time.RFC3339),
				PartySize:    2,
			},
			createFunc: func(ctx context.Context, customerID string, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error) {
				return nil, domain.ErrInvalidSlotStart
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupReservationRouter(&MockReservationService{CreateFunc: tt.createFunc}, tt.customerID)

			var body []byte
			switch b := tt.body.(type) {
			case string:
				body = []byte(b)
			default:
				var err error
				body, err = json.Marshal(b)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/reservations", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			env := decodeEnvelope(t, w)
			if tt.expectedCode != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.expectedCode, env.Error.Code)
			} else {
				assert.True(t, env.Success)
			}
		})
	}
}

func TestReservationHandler_Transitions(t *testing.T) {
	confirmed := &dto.ReservationResponse{ID: "res-001", Status: "CONFIRMED"}

	svc := &MockReservationService{
		ConfirmFunc: func(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error) {
			assert.Equal(t, "res-001", reservationID)
			assert.Equal(t, "cust-001", customerID)
			return confirmed, nil
		},
		SeatFunc: func(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error) {
			return nil, domain.ErrSeatBeforeSlot
		},
		CancelFunc: func(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error) {
			return nil, domain.ErrInvalidTransition
		},
	}
	router := setupReservationRouter(svc, "cust-001")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reservations/res-001/confirm", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reservations/res-001/seat", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", decodeEnvelope(t, w).Error.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/reservations/res-001/cancel", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_STATE", decodeEnvelope(t, w).Error.Code)
}

func TestReservationHandler_Get(t *testing.T) {
	svc := &MockReservationService{
		GetFunc: func(ctx context.Context, reservationID, customerID string) (*dto.ReservationResponse, error) {
			if reservationID == "res-001" {
				return &dto.ReservationResponse{ID: "res-001", Status: "PENDING"}, nil
			}
			return nil, domain.ErrReservationNotFound
		},
	}
	router := setupReservationRouter(svc, "cust-001")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reservations/res-001", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reservations/res-999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReservationHandler_List(t *testing.T) {
	svc := &MockReservationService{
		ListByCustomerFunc: func(ctx context.Context, customerID string, page, pageSize int) (*dto.PaginatedResponse, error) {
			assert.Equal(t, 2, page)
			assert.Equal(t, 5, pageSize)
			return &dto.PaginatedResponse{
				Items:    []*dto.ReservationResponse{{ID: "res-001"}},
				Page:     page,
				PageSize: pageSize,
			}, nil
		},
	}
	router := setupReservationRouter(svc, "cust-001")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reservations?page=2&page_size=5", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeEnvelope(t, w).Success)
}
