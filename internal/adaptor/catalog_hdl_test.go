package adaptor

import (
	"context"
	"math"
	"net/http"
	"testing"

	"myvillage-api/internal/data/entity"
	"myvillage-api/internal/dto/request"
	"myvillage-api/internal/dto/response"
	"myvillage-api/internal/usecase"
	"myvillage-api/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCatalog struct {
	usecase.CatalogService
	lastSearch *request.CatalogSearchRequest
	lastViewer usecase.Viewer
	getErr     error
	deleteErr  error
}

func (s *stubCatalog) Search(_ context.Context, req *request.CatalogSearchRequest) (*response.PaginatedResponse[response.CatalogItemResponse], error) {
	s.lastSearch = req
	items := []response.CatalogItemResponse{{ID: "a", Title: "Bike", Images: []string{}}}
	return response.NewPaginatedResponse(items, req.Page, req.Limit(), 41), nil
}

func (s *stubCatalog) Get(_ context.Context, id string, viewer usecase.Viewer) (*response.CatalogItemResponse, error) {
	s.lastViewer = viewer
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &response.CatalogItemResponse{ID: id}, nil
}

func (s *stubCatalog) Delete(_ context.Context, _ string, viewer usecase.Viewer) error {
	s.lastViewer = viewer
	return s.deleteErr
}

func newCatalogRouter(stub *stubCatalog, collection string) http.Handler {
	h := NewCatalogHandler(stub, collection, zap.NewNop())
	r := chi.NewRouter()
	r.Get("/", h.Search)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
	return r
}

func TestCatalogSearchResponseShape(t *testing.T) {
	stub := &stubCatalog{}
	rec, body := doJSON(t, newCatalogRouter(stub, "listings"), http.MethodGet,
		"/?search=bike&category=sport&minPrice=10,5&maxPrice=200&sortBy=price_asc&page=2&limit=20", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, body, "status")
	listings, ok := body["listings"].([]any)
	require.True(t, ok)
	assert.Len(t, listings, 1)

	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 2, pagination["page"])
	assert.EqualValues(t, 20, pagination["limit"])
	assert.EqualValues(t, 41, pagination["total"])
	assert.EqualValues(t, 3, pagination["pages"])

	req := stub.lastSearch
	assert.Equal(t, "bike", req.Search)
	assert.Equal(t, "sport", req.Category)
	assert.Equal(t, "price_asc", req.SortBy)
	require.NotNil(t, req.MinPrice)
	assert.Equal(t, 10.5, *req.MinPrice)
	require.NotNil(t, req.MaxPrice)
	assert.Equal(t, 200.0, *req.MaxPrice)
}

func TestCatalogSearchClampsPagination(t *testing.T) {
	stub := &stubCatalog{}
	_, body := doJSON(t, newCatalogRouter(stub, "items"), http.MethodGet, "/?page=-3&limit=500&minPrice=abc", "")

	assert.Contains(t, body, "items")
	assert.Equal(t, 1, stub.lastSearch.Page)
	assert.Equal(t, request.MaxPageSize, stub.lastSearch.PerPage)
	assert.Nil(t, stub.lastSearch.MinPrice)
}

func TestCatalogSearchOversizedPage(t *testing.T) {
	stub := &stubCatalog{}
	rec, _ := doJSON(t, newCatalogRouter(stub, "listings"), http.MethodGet,
		"/?page=9223372036854775807&limit=100", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, request.MaxPage, stub.lastSearch.Page)
	assert.GreaterOrEqual(t, stub.lastSearch.Offset(), 0)

	raw := request.PaginatedRequest{Page: math.MaxInt, PerPage: request.MaxPageSize}
	assert.GreaterOrEqual(t, raw.Offset(), 0)
}

func TestCatalogGetMapsNotFound(t *testing.T) {
	stub := &stubCatalog{getErr: usecase.ErrNotFound}
	rec, body := doJSON(t, newCatalogRouter(stub, "listings"), http.MethodGet, "/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["status"])
	assert.Equal(t, uuid.Nil, stub.lastViewer.UserID)
}

func TestCatalogDelete(t *testing.T) {
	userID := uuid.New()

	serve := func(stub *stubCatalog, role string) (int, map[string]any) {
		h := NewCatalogHandler(stub, "listings", zap.NewNop())
		r := chi.NewRouter()
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := utils.SetUserContext(req.Context(), userID, role, true)
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
		r.Delete("/{id}", h.Delete)
		rec, body := doJSON(t, r, http.MethodDelete, "/"+uuid.NewString(), "")
		return rec.Code, body
	}

	t.Run("admin viewer", func(t *testing.T) {
		stub := &stubCatalog{}
		code, _ := serve(stub, string(entity.RoleAdmin))

		assert.Equal(t, http.StatusOK, code)
		assert.True(t, stub.lastViewer.Admin)
		assert.Equal(t, userID, stub.lastViewer.UserID)
	})

	t.Run("forbidden for strangers", func(t *testing.T) {
		stub := &stubCatalog{deleteErr: usecase.ErrForbidden}
		code, body := serve(stub, string(entity.RoleUser))

		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, false, body["status"])
		assert.False(t, stub.lastViewer.Admin)
	})

	t.Run("anonymous", func(t *testing.T) {
		rec, _ := doJSON(t, newCatalogRouter(&stubCatalog{}, "listings"), http.MethodDelete, "/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
