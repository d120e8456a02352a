package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"cuaderno/entities"
	"cuaderno/pkg/actividad/repository"
	"cuaderno/pkg/actividad/service"
	"cuaderno/pkg/apperr"
	"cuaderno/pkg/geo"
)

const (
	defaultLimit = 200
	maxLimit     = 1000
)

// ParcelaFinder resolves a parcela owned by uid.
type ParcelaFinder interface {
	FindByID(ctx context.Context, id, uid string) (*entities.Parcela, error)
}

type PlanLimits interface {
	CheckActividades(ctx context.Context, uid string, add int) error
}

// MeteoSnapshot describes current conditions at a point, used to fill
// condiciones_meteo on treatments recorded today.
type MeteoSnapshot interface {
	Snapshot(ctx context.Context, p geo.Point) (string, error)
}

type actividadSvc struct {
	r        repository.ActividadRepository
	parcelas ParcelaFinder
	limits   PlanLimits
	meteo    MeteoSnapshot
	log      *zap.Logger
	now      func() time.Time
}

func NewActividadService(r repository.ActividadRepository, parcelas ParcelaFinder, limits PlanLimits, meteo MeteoSnapshot, log *zap.Logger) service.ActividadService {
	return &actividadSvc{r: r, parcelas: parcelas, limits: limits, meteo: meteo, log: log, now: time.Now}
}

// ParseFecha accepts YYYY-MM-DD or RFC3339 and returns UTC.
func ParseFecha(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha %q no válida (YYYY-MM-DD)", s)
	}
	return t.UTC(), nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("actividad no encontrada")
	}
	return err
}

func (s *actividadSvc) ownParcela(ctx context.Context, uid, id string) (*entities.Parcela, error) {
	p, err := s.parcelas.FindByID(ctx, id, uid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("parcela no encontrada")
	}
	return p, err
}

// validate checks a fully populated actividad.
func validate(a *entities.Actividad) *apperr.Error {
	verr := apperr.Validation("datos de actividad no válidos")
	CheckFields(verr, "", a)
	if len(verr.Details) > 0 {
		return verr
	}
	return nil
}

// CheckFields adds a detail to verr, keyed with prefix, for every rule a
// stored actividad breaks. Sync pushes are checked with it record by record.
func CheckFields(verr *apperr.Error, prefix string, a *entities.Actividad) {
	if strings.TrimSpace(a.ParcelaID) == "" {
		verr.WithDetail(prefix+"parcela_id", "obligatorio")
	}
	if !a.Tipo.Valid() {
		verr.WithDetail(prefix+"tipo", fmt.Sprintf("tipo %q no válido", a.Tipo))
	}
	if a.Fecha.IsZero() {
		verr.WithDetail(prefix+"fecha", "obligatoria")
	}
	if a.Estado != "" && !a.Estado.Valid() {
		verr.WithDetail(prefix+"estado", fmt.Sprintf("estado %q no válido", a.Estado))
	}
	if a.Tipo == entities.Tratamiento {
		named := 0
		for _, p := range a.Productos {
			if strings.TrimSpace(p.Nombre) != "" {
				named++
			}
		}
		if named == 0 {
			verr.WithDetail(prefix+"productos", "un tratamiento necesita al menos un producto")
		}
	}
	for i, p := range a.Productos {
		if p.Dosis != nil && *p.Dosis < 0 {
			verr.WithDetail(fmt.Sprintf("%sproductos[%d].dosis", prefix, i), "no puede ser negativa")
		}
		if p.PlazoSeguridadDias != nil && *p.PlazoSeguridadDias < 0 {
			verr.WithDetail(fmt.Sprintf("%sproductos[%d].plazo_seguridad_dias", prefix, i), "no puede ser negativo")
		}
	}
	if a.Cantidad != nil && *a.Cantidad < 0 {
		verr.WithDetail(prefix+"cantidad", "no puede ser negativa")
	}
	if a.Coordenadas != nil {
		if err := a.Coordenadas.Validate(); err != nil {
			verr.WithDetail(prefix+"coordenadas", err.Error())
		}
	}
}

func (s *actividadSvc) Create(ctx context.Context, uid string, in service.CreateInput) (*entities.Actividad, error) {
	a := &entities.Actividad{
		ParcelaID:        strings.TrimSpace(in.ParcelaID),
		PropietarioID:    uid,
		Tipo:             entities.TipoActividad(strings.ToUpper(strings.TrimSpace(in.Tipo))),
		Descripcion:      in.Descripcion,
		Productos:        in.Productos,
		Cantidad:         in.Cantidad,
		Unidad:           in.Unidad,
		Coordenadas:      in.Coordenadas,
		Estado:           entities.EstadoActividad(strings.ToUpper(strings.TrimSpace(in.Estado))),
		Operario:         in.Operario,
		Maquinaria:       in.Maquinaria,
		CondicionesMeteo: in.CondicionesMeteo,
	}
	var fechaErr error
	if in.Fecha != "" {
		a.Fecha, fechaErr = ParseFecha(in.Fecha)
	}
	verr := validate(a)
	if fechaErr != nil {
		if verr == nil {
			verr = apperr.Validation("datos de actividad no válidos")
		}
		verr.WithDetail("fecha", fechaErr.Error())
	}
	if verr != nil {
		return nil, verr
	}

	p, err := s.ownParcela(ctx, uid, a.ParcelaID)
	if err != nil {
		return nil, err
	}
	if err := s.limits.CheckActividades(ctx, uid, 1); err != nil {
		return nil, err
	}
	if a.Estado == "" {
		a.Estado = entities.DefaultEstado(a.Fecha, s.now())
	}
	if a.Productos == nil {
		a.Productos = []entities.Producto{}
	}
	s.fillMeteo(ctx, a, p)

	if err := s.r.Create(ctx, a); err != nil {
		return nil, err
	}
	s.log.Info("actividad created", zap.String("uid", uid), zap.String("id", a.ID), zap.String("tipo", string(a.Tipo)))
	return a, nil
}

func (s *actividadSvc) fillMeteo(ctx context.Context, a *entities.Actividad, p *entities.Parcela) {
	if s.meteo == nil || a.CondicionesMeteo != "" || a.Tipo != entities.Tratamiento {
		return
	}
	y1, m1, d1 := a.Fecha.Date()
	y2, m2, d2 := s.now().UTC().Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		return
	}
	at := a.Coordenadas
	if at == nil {
		at = p.Centroide
	}
	if at == nil {
		return
	}
	snap, err := s.meteo.Snapshot(ctx, *at)
	if err != nil {
		s.log.Debug("meteo snapshot unavailable", zap.Error(err))
		return
	}
	a.CondicionesMeteo = snap
}

func (s *actividadSvc) Update(ctx context.Context, uid, id string, in service.UpdateInput) (*entities.Actividad, error) {
	a, err := s.r.FindByID(ctx, id, uid)
	if err != nil {
		return nil, notFound(err)
	}
	if in.ParcelaID != nil && *in.ParcelaID != a.ParcelaID {
		if _, err := s.ownParcela(ctx, uid, *in.ParcelaID); err != nil {
			return nil, err
		}
		a.ParcelaID = *in.ParcelaID
	}
	if in.Tipo != nil {
		a.Tipo = entities.TipoActividad(strings.ToUpper(strings.TrimSpace(*in.Tipo)))
	}
	if in.Fecha != nil {
		f, err := ParseFecha(*in.Fecha)
		if err != nil {
			return nil, apperr.Validation(err.Error()).WithDetail("fecha", err.Error())
		}
		a.Fecha = f
	}
	if in.Descripcion != nil {
		a.Descripcion = *in.Descripcion
	}
	if in.Productos != nil {
		a.Productos = *in.Productos
	}
	if in.Cantidad != nil {
		a.Cantidad = in.Cantidad
	}
	if in.Unidad != nil {
		a.Unidad = *in.Unidad
	}
	if in.Coordenadas != nil {
		a.Coordenadas = in.Coordenadas
	}
	if in.Estado != nil {
		a.Estado = entities.EstadoActividad(strings.ToUpper(strings.TrimSpace(*in.Estado)))
	}
	if in.Operario != nil {
		a.Operario = *in.Operario
	}
	if in.Maquinaria != nil {
		a.Maquinaria = *in.Maquinaria
	}
	if in.CondicionesMeteo != nil {
		a.CondicionesMeteo = *in.CondicionesMeteo
	}
	if verr := validate(a); verr != nil {
		return nil, verr
	}
	if err := s.r.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *actividadSvc) Get(ctx context.Context, uid, id string) (*entities.Actividad, error) {
	a, err := s.r.FindByID(ctx, id, uid)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (s *actividadSvc) List(ctx context.Context, uid string, f repository.ListFilter) ([]entities.Actividad, error) {
	if f.Tipo != "" && !f.Tipo.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("tipo %q no válido", f.Tipo))
	}
	if f.Estado != "" && !f.Estado.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("estado %q no válido", f.Estado))
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	return s.r.List(ctx, uid, f)
}

func (s *actividadSvc) ListByParcela(ctx context.Context, uid, parcelaID string) ([]entities.Actividad, error) {
	if _, err := s.ownParcela(ctx, uid, parcelaID); err != nil {
		return nil, err
	}
	return s.r.List(ctx, uid, repository.ListFilter{ParcelaID: parcelaID, Limit: maxLimit})
}

func (s *actividadSvc) Delete(ctx context.Context, uid, id string) error {
	return notFound(s.r.Delete(ctx, id, uid))
}

func (s *actividadSvc) SetEstado(ctx context.Context, uid, id, estado string) (*entities.Actividad, error) {
	e := entities.EstadoActividad(strings.ToUpper(strings.TrimSpace(estado)))
	if !e.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("estado %q no válido", estado)).WithDetail("estado", "PLANIFICADA, EN_CURSO, COMPLETADA o CANCELADA")
	}
	if err := s.r.PatchEstado(ctx, id, uid, e); err != nil {
		return nil, notFound(err)
	}
	return s.Get(ctx, uid, id)
}

func (s *actividadSvc) Resumen(ctx context.Context, uid, parcelaID string, year int) (*repository.Resumen, error) {
	if parcelaID != "" {
		if _, err := s.ownParcela(ctx, uid, parcelaID); err != nil {
			return nil, err
		}
	}
	return s.r.Resumen(ctx, uid, parcelaID, year)
}
