package serviceImp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cuaderno/database"
	"cuaderno/pkg/apperr"
	"cuaderno/pkg/ocr"
	"cuaderno/pkg/ocr/repositoryImp"
	"cuaderno/pkg/ocr/service"
)

type limits struct{ err error }

func (l *limits) CheckOCR(context.Context, string) error { return l.err }

type failingExtractor struct{ err error }

func (f failingExtractor) ExtractText(context.Context, []byte, string) (string, error) {
	return "", f.err
}

type registry map[string]*ocr.RegistryEntry

func (r registry) Lookup(_ context.Context, n string) (*ocr.RegistryEntry, error) {
	if e, ok := r[n]; ok {
		return e, nil
	}
	return nil, ocr.ErrNotRegistered
}

func newSvc(t *testing.T, ext ocr.Extractor, reg ocr.Registry, l *limits) service.OCRService {
	db, err := database.OpenMemory(t.Name())
	require.NoError(t, err)
	return NewOCRService(repositoryImp.New(db), ext, reg, l, zap.NewNop())
}

func TestScan_ImageThroughExtractor(t *testing.T) {
	reg := registry{"12345": {NumeroRegistro: "12345", Nombre: "CUPROSAN 50 WP", Titular: "Agroquímicos del Duero S.A.", Estado: "Vigente"}}
	s := newSvc(t, ocr.NewMock(), reg, &limits{})
	ctx := context.Background()

	res, err := s.Scan(ctx, "u1", service.ScanInput{Image: []byte{0xff, 0xd8, 0xff, 0xe0}, Filename: "etiqueta.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "ocr", res.Scan.Fuente)
	assert.NotZero(t, res.Scan.ID)
	assert.Equal(t, "Vigente", res.Registro.Estado)
	assert.Equal(t, "CUPROSAN 50 WP", res.Producto.Nombre)
	assert.Equal(t, "12345", res.Producto.NumeroRegistro)
	assert.Equal(t, 15, *res.Producto.PlazoSeguridadDias)

	scans, err := s.ListScans(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Equal(t, "12345", scans[0].Etiqueta.NumeroRegistro)

	others, err := s.ListScans(ctx, "u2", 0)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestScan_TextSkipsExtractor(t *testing.T) {
	s := newSvc(t, failingExtractor{errors.New("must not be called")}, nil, &limits{})
	res, err := s.Scan(context.Background(), "u1", service.ScanInput{Text: "Nº Registro: 25001\nDosis: 1 l/ha"})
	require.NoError(t, err)
	assert.Equal(t, "texto", res.Scan.Fuente)
	assert.Equal(t, "25001", res.Etiqueta.NumeroRegistro)
	assert.Nil(t, res.Registro)
}

func TestScan_Errors(t *testing.T) {
	ctx := context.Background()

	s := newSvc(t, ocr.NewMock(), nil, &limits{})
	_, err := s.Scan(ctx, "u1", service.ScanInput{})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	s = newSvc(t, ocr.NewMock(), nil, &limits{err: apperr.FeatureDisabled("ocr")})
	_, err = s.Scan(ctx, "u1", service.ScanInput{Text: "x"})
	assert.True(t, apperr.IsCode(err, apperr.CodeFeatureDisabled))

	s = newSvc(t, failingExtractor{errors.New("timeout")}, nil, &limits{})
	_, err = s.Scan(ctx, "u1", service.ScanInput{Image: []byte{1, 2, 3}})
	assert.True(t, apperr.IsCode(err, apperr.CodeUpstream))

	s = newSvc(t, failingExtractor{ocr.ErrNoText}, nil, &limits{})
	_, err = s.Scan(ctx, "u1", service.ScanInput{Image: []byte{1, 2, 3}})
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}
