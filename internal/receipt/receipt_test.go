package receipt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitbill/internal/models"
)

func TestHTTPExtractor(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantErr      bool
		validateFunc func(t *testing.T, r *models.ExtractionResult)
	}{
		{
			name:   "successful extraction",
			status: http.StatusOK,
			body: `{"success":true,"data":{"title":"Cafe","items":[
				{"name":"Latte","quantity":2,"unitPrice":"4.50","totalPrice":"9.00","confidence":"high"}],
				"subtotal":"9.00","taxAmount":"0.72","serviceCharge":"0","tipAmount":"0","totalAmount":"9.72","confidence":"high"}}`,
			validateFunc: func(t *testing.T, r *models.ExtractionResult) {
				require.True(t, r.Success)
				require.NotNil(t, r.Data)
				assert.Equal(t, "Cafe", r.Data.Title)
				require.Len(t, r.Data.Items, 1)
				assert.True(t, r.Data.Items[0].TotalPrice.Equal(decimal.RequireFromString("9")))
				assert.Equal(t, models.ConfidenceHigh, r.Data.Items[0].Confidence)
			},
		},
		{
			name:   "unreadable receipt",
			status: http.StatusOK,
			body:   `{"success":false,"error":"image too blurry"}`,
			validateFunc: func(t *testing.T, r *models.ExtractionResult) {
				assert.False(t, r.Success)
				assert.Equal(t, "image too blurry", r.Error)
			},
		},
		{
			name:   "success without data",
			status: http.StatusOK,
			body:   `{"success":true}`,
			validateFunc: func(t *testing.T, r *models.ExtractionResult) {
				assert.False(t, r.Success)
				assert.NotEmpty(t, r.Error)
			},
		},
		{
			name:    "server error",
			status:  http.StatusBadGateway,
			body:    "upstream down",
			wantErr: true,
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    "{",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
				var req extractRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "http://img/r.jpg", req.ImageURL)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			e := NewHTTPExtractor(srv.URL, "secret", time.Second)
			result, err := e.Extract(context.Background(), "http://img/r.jpg")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateFunc(t, result)
		})
	}
}

func TestDisabled(t *testing.T) {
	result, err := Disabled{}.Extract(context.Background(), "x")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, ErrNotConfigured.Error(), result.Error)
}
