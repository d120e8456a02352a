package serviceImp

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"cuaderno/entities"
	"cuaderno/pkg/apperr"
	"cuaderno/pkg/geo"
	"cuaderno/pkg/parcela/repository"
	"cuaderno/pkg/parcela/service"
	"cuaderno/pkg/sigpac"
)

const (
	maxNombre     = 100
	maxSuperficie = 10000.0 // ha
	defaultLimit  = 100
	maxLimit      = 500
)

// PlanLimits is the part of the subscription service parcelas need.
type PlanLimits interface {
	CheckParcelas(ctx context.Context, uid string, add int, addHa float64) error
}

type parcelaSvc struct {
	r      repository.ParcelaRepository
	limits PlanLimits
	log    *zap.Logger
}

func NewParcelaService(r repository.ParcelaRepository, limits PlanLimits, log *zap.Logger) service.ParcelaService {
	return &parcelaSvc{r: r, limits: limits, log: log}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("parcela no encontrada")
	}
	return err
}

func (s *parcelaSvc) Get(ctx context.Context, uid, id string) (*entities.Parcela, error) {
	p, err := s.r.FindByID(ctx, id, uid)
	if err != nil {
		return nil, notFound(err)
	}
	return p, nil
}

func (s *parcelaSvc) List(ctx context.Context, uid string, f repository.ListFilter) ([]entities.Parcela, error) {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.r.List(ctx, uid, f)
}

func (s *parcelaSvc) Create(ctx context.Context, uid, org string, in service.CreateInput) (*entities.Parcela, error) {
	p := &entities.Parcela{
		PropietarioID:    uid,
		OrganizacionID:   org,
		Nombre:           strings.TrimSpace(in.Nombre),
		TipoCultivo:      strings.TrimSpace(in.TipoCultivo),
		Variedad:         strings.TrimSpace(in.Variedad),
		ReferenciaSigpac: strings.TrimSpace(in.ReferenciaSigpac),
		Provincia:        strings.TrimSpace(in.Provincia),
		Municipio:        strings.TrimSpace(in.Municipio),
		Notas:            in.Notas,
		Activa:           true,
	}
	verr := apperr.Validation("datos de parcela no válidos")
	geomChanged := validateCommon(verr, p, in.Superficie, in.Geometria, in.Centroide)
	if len(verr.Details) > 0 {
		return nil, verr
	}
	if err := s.fill(ctx, p, in.Superficie, geomChanged, in.Centroide); err != nil {
		return nil, err
	}
	if err := s.limits.CheckParcelas(ctx, uid, 1, p.Superficie); err != nil {
		return nil, err
	}
	if err := s.r.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info("parcela created", zap.String("uid", uid), zap.String("id", p.ID), zap.Float64("ha", p.Superficie))
	return p, nil
}

func (s *parcelaSvc) Update(ctx context.Context, uid, id string, in service.UpdateInput) (*entities.Parcela, error) {
	p, err := s.r.FindByID(ctx, id, uid)
	if err != nil {
		return nil, notFound(err)
	}
	prevHa := p.Superficie
	if in.Nombre != nil {
		p.Nombre = strings.TrimSpace(*in.Nombre)
	}
	if in.TipoCultivo != nil {
		p.TipoCultivo = strings.TrimSpace(*in.TipoCultivo)
	}
	if in.Variedad != nil {
		p.Variedad = strings.TrimSpace(*in.Variedad)
	}
	if in.ReferenciaSigpac != nil {
		p.ReferenciaSigpac = strings.TrimSpace(*in.ReferenciaSigpac)
	}
	if in.Provincia != nil {
		p.Provincia = strings.TrimSpace(*in.Provincia)
	}
	if in.Municipio != nil {
		p.Municipio = strings.TrimSpace(*in.Municipio)
	}
	if in.Notas != nil {
		p.Notas = *in.Notas
	}
	if in.Activa != nil {
		p.Activa = *in.Activa
	}

	verr := apperr.Validation("datos de parcela no válidos")
	geomChanged := validateCommon(verr, p, in.Superficie, in.Geometria, in.Centroide)
	if len(verr.Details) > 0 {
		return nil, verr
	}
	if err := s.fill(ctx, p, in.Superficie, geomChanged, in.Centroide); err != nil {
		return nil, err
	}
	if p.Superficie > prevHa {
		if err := s.limits.CheckParcelas(ctx, uid, 0, p.Superficie-prevHa); err != nil {
			return nil, err
		}
	}
	if err := s.r.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// validateCommon checks the fields shared by create and update and applies
// the geometry to p. A JSON null clears it, and the centroide with it unless
// one is given. It reports whether a new geometry was parsed.
func validateCommon(verr *apperr.Error, p *entities.Parcela, sup *float64, rawGeom json.RawMessage, centro *geo.Point) bool {
	checkNombre(verr, "", p.Nombre)
	if sup != nil {
		checkSuperficie(verr, "", *sup)
	}
	checkSigpac(verr, "", p.ReferenciaSigpac)
	checkCentroide(verr, "", centro)
	switch {
	case rawGeom == nil:
		return false
	case string(rawGeom) == "null":
		p.Geometria = nil
		if centro == nil {
			p.Centroide = nil
		}
		return false
	}
	g, err := geo.ParseGeometry(rawGeom)
	if err != nil {
		verr.WithDetail("geometria", err.Error())
		return false
	}
	p.Geometria = g
	return true
}

// CheckFields validates a whole parcela record, as pushed by a sync client,
// with the same rules as the REST handlers. Detail keys get prefix.
func CheckFields(verr *apperr.Error, prefix string, p *entities.Parcela) {
	checkNombre(verr, prefix, p.Nombre)
	checkSuperficie(verr, prefix, p.Superficie)
	checkSigpac(verr, prefix, p.ReferenciaSigpac)
	if p.Geometria != nil {
		if err := p.Geometria.Validate(); err != nil {
			verr.WithDetail(prefix+"geometria", err.Error())
		}
	}
	checkCentroide(verr, prefix, p.Centroide)
}

func checkNombre(verr *apperr.Error, prefix, nombre string) {
	switch n := utf8.RuneCountInString(strings.TrimSpace(nombre)); {
	case n == 0:
		verr.WithDetail(prefix+"nombre", "obligatorio")
	case n > maxNombre:
		verr.WithDetail(prefix+"nombre", "máximo 100 caracteres")
	}
}

func checkSuperficie(verr *apperr.Error, prefix string, ha float64) {
	if ha < 0 || ha > maxSuperficie || math.IsNaN(ha) {
		verr.WithDetail(prefix+"superficie", "debe estar entre 0 y 10000 ha")
	}
}

func checkSigpac(verr *apperr.Error, prefix, ref string) {
	if ref == "" {
		return
	}
	if _, err := sigpac.Parse(ref); err != nil {
		verr.WithDetail(prefix+"referencia_sigpac", err.Error())
	}
}

func checkCentroide(verr *apperr.Error, prefix string, c *geo.Point) {
	if c == nil {
		return
	}
	if err := c.Validate(); err != nil {
		verr.WithDetail(prefix+"centroide", err.Error())
	}
}

// fill derives superficie, centroide and provincia when not given.
func (s *parcelaSvc) fill(ctx context.Context, p *entities.Parcela, sup *float64, geomChanged bool, centro *geo.Point) error {
	switch {
	case sup != nil:
		p.Superficie = *sup
	case geomChanged && p.Geometria != nil:
		ha, err := s.r.AreaHa(ctx, p.Geometria)
		if err != nil {
			return err
		}
		p.Superficie = round(ha, 4)
	}
	switch {
	case centro != nil:
		p.Centroide = centro
	case geomChanged && p.Geometria != nil:
		c, err := geo.Centroid(p.Geometria)
		if err == nil {
			p.Centroide = &c
		}
	}
	if p.Provincia == "" && p.ReferenciaSigpac != "" {
		if ref, err := sigpac.Parse(p.ReferenciaSigpac); err == nil {
			prov, _ := sigpac.LookupProvincia(ref.Provincia)
			p.Provincia = prov.Nombre
		}
	}
	return nil
}

func (s *parcelaSvc) Delete(ctx context.Context, uid, id string) error {
	if err := s.r.Delete(ctx, id, uid); err != nil {
		return notFound(err)
	}
	s.log.Info("parcela deleted", zap.String("uid", uid), zap.String("id", id))
	return nil
}

func (s *parcelaSvc) Area(ctx context.Context, raw json.RawMessage) (*service.AreaResult, error) {
	if len(raw) == 0 {
		return nil, apperr.Validation("geometria es obligatoria").WithDetail("geometria", "obligatoria")
	}
	g, err := geo.ParseGeometry(raw)
	if err != nil {
		return nil, apperr.Validation(err.Error()).WithDetail("geometria", err.Error())
	}
	ha, err := s.r.AreaHa(ctx, g)
	if err != nil {
		return nil, err
	}
	c, err := geo.Centroid(g)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}
	return &service.AreaResult{Hectareas: round(ha, 4), Metros2: round(ha*10000, 1), Centroide: c}, nil
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
