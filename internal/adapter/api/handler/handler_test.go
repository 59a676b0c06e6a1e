package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"secondlife/internal/adapter/api"
	"secondlife/internal/domain/entity"
	"secondlife/internal/usecase"
	"secondlife/pkg/response"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = api.NewValidator()
	return e
}

// call runs h as the authenticated user uid.
func call(e *echo.Echo, h echo.HandlerFunc, req *http.Request, uid string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if uid != "" {
		c.Set("uid", uid)
	}
	_ = h(c)
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCheckHealth(t *testing.T) {
	e := newEcho()
	rec := call(e, NewHealthHandler().CheckHealth, httptest.NewRequest(http.MethodGet, "/health", nil), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRequestValidation(t *testing.T) {
	e := newEcho()

	tests := []struct {
		name    string
		handler echo.HandlerFunc
		body    string
		message string
	}{
		{"message without product", NewMessageHandler(nil).SendMessage, `{"buyer_id":"b","seller_id":"s","content":"hi"}`, "productid is required"},
		{"message with unknown type", NewMessageHandler(nil).SendMessage, `{"product_id":"p","buyer_id":"b","seller_id":"s","type":"offer"}`, "type must be one of: text image payment_request payment_confirmed sale_confirmed"},
		{"review rating too high", NewReviewHandler(nil).CreateReview, `{"product_id":"p","rating":7}`, "rating must be at most 5"},
		{"sale without buyer", NewSaleHandler(nil).ConfirmSale, `{"product_id":"p"}`, "buyerid is required"},
		{"product without title", NewProductHandler(nil).CreateProduct, `{"price":10}`, "title is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(e, tt.handler, jsonRequest(http.MethodPost, "/", tt.body), "user-1")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Message)
		})
	}
}

func TestMalformedJSON(t *testing.T) {
	rec := call(newEcho(), NewMessageHandler(nil).SendMessage, jsonRequest(http.MethodPost, "/", `{"product_id":`), "user-1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decodeBody(t, rec).Error.Code)
}

type memProducts struct {
	products []*entity.Product
}

func (m *memProducts) Create(context.Context, *entity.Product) error { return nil }
func (m *memProducts) GetByID(context.Context, string) (*entity.Product, error) {
	return nil, nil
}
func (m *memProducts) List(_ context.Context, f entity.ProductFilter) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range m.products {
		if f.Category == "" || p.Category == f.Category {
			out = append(out, p)
		}
	}
	return out, nil
}
func (m *memProducts) Update(context.Context, *entity.Product) error { return nil }
func (m *memProducts) Delete(context.Context, string) error          { return nil }
func (m *memProducts) UpdateStatus(context.Context, string, entity.StatusUpdate) error {
	return nil
}

func TestListProducts_Paginates(t *testing.T) {
	repo := &memProducts{}
	for _, id := range []string{"a", "b", "c"} {
		repo.products = append(repo.products, &entity.Product{ID: id, Category: "Vélos", Status: entity.ProductStatusActive})
	}
	repo.products = append(repo.products, &entity.Product{ID: "hidden", Category: "Vélos", Status: entity.ProductStatusHidden})
	h := NewProductHandler(usecase.NewProductUseCase(repo, nil))

	req := httptest.NewRequest(http.MethodGet, "/v1/products?category=V%C3%A9los&page=2&limit=2", nil)
	rec := call(newEcho(), h.ListProducts, req, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data struct {
			Items      []entity.Product `json:"items"`
			Total      int64            `json:"total"`
			TotalPages int              `json:"totalPages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.Data.Total)
	assert.Equal(t, 2, body.Data.TotalPages)
	require.Len(t, body.Data.Items, 1)
	assert.Equal(t, "c", body.Data.Items[0].ID)
}

type recordingImages struct {
	folder, contentType string
	data                []byte
}

func (r *recordingImages) Upload(_ context.Context, file io.Reader, contentType, folder string) (string, error) {
	r.folder, r.contentType = folder, contentType
	r.data, _ = io.ReadAll(file)
	return "https://storage.googleapis.com/bucket/" + folder + "/img.png", nil
}

func (r *recordingImages) Delete(context.Context, string) error { return nil }

func multipartImage(t *testing.T, folder, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if folder != "" {
		require.NoError(t, w.WriteField("folder", folder))
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="photo"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/uploads/images", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	images := &recordingImages{}
	h := NewUploadHandler(images)

	rec := call(newEcho(), h.UploadImage, multipartImage(t, "products", "image/png", []byte("png-bytes")), "user-1")

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "products/user-1", images.folder)
	assert.Equal(t, "image/png", images.contentType)
	assert.Equal(t, []byte("png-bytes"), images.data)
	assert.Contains(t, rec.Body.String(), "products/user-1/img.png")
}

func TestUploadImage_Rejections(t *testing.T) {
	e := newEcho()

	rec := call(e, NewUploadHandler(&recordingImages{}).UploadImage, multipartImage(t, "", "application/pdf", []byte("%PDF")), "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(e, NewUploadHandler(&recordingImages{}).UploadImage, multipartImage(t, "secrets", "image/png", []byte("x")), "user-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(e, NewUploadHandler(nil).UploadImage, multipartImage(t, "chat", "image/png", []byte("x")), "user-1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
