package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"cuaderno/pkg/metrics"
)

var ErrNoText = errors.New("no se ha podido leer texto en la imagen")

// Extractor turns an image of a label into plain text.
type Extractor interface {
	ExtractText(ctx context.Context, image []byte, filename string) (string, error)
}

// ocrSpace talks to an OCR.space compatible endpoint.
type ocrSpace struct {
	endpoint string
	key      string
	hc       *http.Client
}

func NewOCRSpace(endpoint, key string) Extractor {
	return &ocrSpace{endpoint: endpoint, key: key, hc: &http.Client{Timeout: 60 * time.Second}}
}

func (o *ocrSpace) ExtractText(ctx context.Context, image []byte, filename string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"language":          "spa",
		"isOverlayRequired": "false",
		"scale":             "true",
		"OCREngine":         "2",
	} {
		if err := mw.WriteField(k, v); err != nil {
			return "", err
		}
	}
	if filename == "" {
		filename = "etiqueta.jpg"
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(image); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("apikey", o.key)
	resp, err := o.hc.Do(req)
	if err != nil {
		metrics.Upstream("ocr", err)
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err == nil && resp.StatusCode >= 300 {
		err = fmt.Errorf("ocr: status %d", resp.StatusCode)
	}
	metrics.Upstream("ocr", err)
	if err != nil {
		return "", err
	}

	res := gjson.ParseBytes(b)
	if res.Get("IsErroredOnProcessing").Bool() {
		return "", fmt.Errorf("ocr: %s", strings.Join(stringsOf(res.Get("ErrorMessage")), "; "))
	}
	var parts []string
	for _, p := range res.Get("ParsedResults.#.ParsedText").Array() {
		if t := strings.TrimSpace(p.String()); t != "" {
			parts = append(parts, t)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoText
	}
	return strings.ReplaceAll(strings.Join(parts, "\n"), "\r\n", "\n"), nil
}

func stringsOf(r gjson.Result) []string {
	if !r.IsArray() {
		return []string{r.String()}
	}
	var out []string
	for _, v := range r.Array() {
		out = append(out, v.String())
	}
	return out
}

// SampleLabel is what the mock extractor reads from binary images.
const SampleLabel = `CUPROSAN 50 WP
Fungicida
Composición: Oxicloruro de cobre 50% p/p (expresado en Cu)
Formulación: polvo mojable (WP)
Nº Registro: 12345
Dosis: 2-3 kg/ha
Plazo de seguridad: 15 días
Lote: L2403B
Titular: Agroquímicos del Duero S.A.`

type mock struct{}

// NewMock returns an extractor for development: text uploads are echoed
// back and anything else reads as SampleLabel.
func NewMock() Extractor { return mock{} }

func (mock) ExtractText(_ context.Context, image []byte, _ string) (string, error) {
	if len(bytes.TrimSpace(image)) == 0 {
		return "", ErrNoText
	}
	if utf8.Valid(image) && !bytes.ContainsRune(image, 0) {
		return string(image), nil
	}
	return SampleLabel, nil
}
