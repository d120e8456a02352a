package serviceImp

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"cuaderno/entities"
	"cuaderno/pkg/apperr"
	"cuaderno/pkg/ocr"
	"cuaderno/pkg/ocr/repository"
	"cuaderno/pkg/ocr/service"
)

const maxTextRunes = 20000

type PlanLimits interface {
	CheckOCR(ctx context.Context, uid string) error
}

type ocrSvc struct {
	r        repository.ScanRepository
	ext      ocr.Extractor
	registry ocr.Registry // optional
	limits   PlanLimits
	log      *zap.Logger
}

func NewOCRService(r repository.ScanRepository, ext ocr.Extractor, registry ocr.Registry, limits PlanLimits, log *zap.Logger) service.OCRService {
	return &ocrSvc{r: r, ext: ext, registry: registry, limits: limits, log: log}
}

func (s *ocrSvc) Scan(ctx context.Context, uid string, in service.ScanInput) (*service.ScanResult, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" && len(in.Image) == 0 {
		return nil, apperr.Validation("envía una imagen o el texto de la etiqueta").
			WithDetail("image", "obligatoria si no hay texto")
	}
	if err := s.limits.CheckOCR(ctx, uid); err != nil {
		return nil, err
	}

	fuente := "texto"
	if text == "" {
		fuente = "ocr"
		var err error
		text, err = s.ext.ExtractText(ctx, in.Image, in.Filename)
		if errors.Is(err, ocr.ErrNoText) {
			return nil, apperr.Validation(err.Error())
		}
		if err != nil {
			s.log.Warn("ocr extraction failed", zap.String("uid", uid), zap.Error(err))
			return nil, apperr.Upstream("servicio OCR", err)
		}
	}
	if r := []rune(text); len(r) > maxTextRunes {
		text = string(r[:maxTextRunes])
	}

	label := ocr.ParseLabel(text)
	res := &service.ScanResult{}
	if s.registry != nil && label.NumeroRegistro != "" {
		entry, err := s.registry.Lookup(ctx, label.NumeroRegistro)
		switch {
		case err == nil:
			res.Registro = entry
			// the registry name wins over whatever OCR read
			if entry.Nombre != "" {
				label.NombreComercial = entry.Nombre
			}
			if label.Titular == "" {
				label.Titular = entry.Titular
			}
		case errors.Is(err, ocr.ErrNotRegistered):
			s.log.Info("label not in registry", zap.String("numero", label.NumeroRegistro))
		default:
			s.log.Warn("registry lookup failed", zap.Error(err))
		}
	}

	scan := &entities.LabelScan{
		UserID:   uid,
		Filename: in.Filename,
		Texto:    text,
		Etiqueta: label,
		Fuente:   fuente,
	}
	if err := s.r.Create(ctx, scan); err != nil {
		return nil, err
	}
	s.log.Info("label scanned", zap.String("uid", uid), zap.Uint("id", scan.ID),
		zap.String("fuente", fuente), zap.Float64("confianza", label.Confianza))

	res.Scan = scan
	res.Etiqueta = label
	res.Producto = ocr.ToProducto(label)
	return res, nil
}

func (s *ocrSvc) ListScans(ctx context.Context, uid string, limit int) ([]entities.LabelScan, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.r.ListByUser(ctx, uid, limit)
}
