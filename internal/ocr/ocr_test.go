package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExtractor(t *testing.T) {
	e, err := NewExtractor("local", "", "", nil)
	require.NoError(t, err)
	assert.IsType(t, &Tesseract{}, e)

	e, err = NewExtractor("mistral", "key", "", nil)
	require.NoError(t, err)
	assert.IsType(t, &MistralOCR{}, e)

	_, err = NewExtractor("mistral", "", "", nil)
	assert.Error(t, err)

	_, err = NewExtractor("textract", "", "", nil)
	assert.Error(t, err)
}

func TestMistralExtractText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req mistralOCRRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "image_url", req.Document.Type)

		json.NewEncoder(w).Encode(mistralOCRResponse{Pages: []mistralOCRPage{
			{Index: 0, Markdown: "IBUPROFENO 400 MG"},
		}})
	}))
	defer srv.Close()

	m := NewMistralOCR("test-key", "")
	m.endpoint = srv.URL

	text, err := m.ExtractText(context.Background(), []string{"https://media.example/one.jpg", "https://media.example/two.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "IBUPROFENO 400 MG\n\nIBUPROFENO 400 MG", text)
}

func TestMistralExtractTextAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewMistralOCR("bad-key", "")
	m.endpoint = srv.URL

	_, err := m.ExtractText(context.Background(), []string{"https://media.example/one.jpg"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
