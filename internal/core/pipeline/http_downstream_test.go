package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/rx-intake/internal/entity"
)

func TestHTTPDownstream_Submit(t *testing.T) {
	var got entity.ValidatedRecord
	var gotHeader, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-Id")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"prescription_id":"rx-1","quote_id":"q-9"}`))
	}))
	defer srv.Close()

	d := NewHTTPDownstream(srv.URL, time.Second, map[string]string{"Authorization": "Bearer t"}, nil)
	rec := entity.ValidatedRecord{Draft: entity.PrescriptionDraft{PatientName: "Maria Silva"}, Confidence: 0.9}

	receipt, err := d.Submit(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, Receipt{PrescriptionID: "rx-1", QuoteID: "q-9"}, receipt)
	assert.Equal(t, "Maria Silva", got.Draft.PatientName)
	assert.Equal(t, "Bearer t", gotHeader)
	assert.NotEmpty(t, gotReqID)
}

func TestHTTPDownstream_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewHTTPDownstream(srv.URL, time.Second, nil, nil)
	_, err := d.Submit(context.Background(), entity.ValidatedRecord{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPDownstream_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	receipt, err := NewHTTPDownstream(srv.URL, time.Second, nil, nil).Submit(context.Background(), entity.ValidatedRecord{})
	require.NoError(t, err)
	assert.Equal(t, Receipt{}, receipt)
}
