package ocr

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOCRSpace_ExtractText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "spa", r.FormValue("language"))
		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "foto.jpg", fh.Filename)
		assert.Equal(t, []byte{0xff, 0xd8, 0xff}, b)
		_, _ = w.Write([]byte(`{"ParsedResults":[{"ParsedText":"CUPROSAN 50 WP\r\nFungicida\r\n"}],"OCRExitCode":1,"IsErroredOnProcessing":false}`))
	}))
	defer srv.Close()

	text, err := NewOCRSpace(srv.URL, "secret").ExtractText(context.Background(), []byte{0xff, 0xd8, 0xff}, "foto.jpg")
	require.NoError(t, err)
	assert.Equal(t, "CUPROSAN 50 WP\nFungicida", text)
}

func TestOCRSpace_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/err":
			_, _ = w.Write([]byte(`{"IsErroredOnProcessing":true,"ErrorMessage":["Unable to recognize the file type"]}`))
		default:
			_, _ = w.Write([]byte(`{"ParsedResults":[{"ParsedText":"  "}],"IsErroredOnProcessing":false}`))
		}
	}))
	defer srv.Close()

	_, err := NewOCRSpace(srv.URL+"/err", "k").ExtractText(context.Background(), []byte("x"), "")
	assert.ErrorContains(t, err, "Unable to recognize")
	_, err = NewOCRSpace(srv.URL+"/empty", "k").ExtractText(context.Background(), []byte("x"), "")
	assert.ErrorIs(t, err, ErrNoText)
}

func TestMockExtractor(t *testing.T) {
	m := NewMock()
	text, err := m.ExtractText(context.Background(), []byte("Lote: A123"), "")
	require.NoError(t, err)
	assert.Equal(t, "Lote: A123", text)

	text, err = m.ExtractText(context.Background(), []byte{0x89, 'P', 'N', 'G', 0, 0}, "x.png")
	require.NoError(t, err)
	assert.Equal(t, SampleLabel, text)

	_, err = m.ExtractText(context.Background(), nil, "")
	assert.ErrorIs(t, err, ErrNoText)
}
