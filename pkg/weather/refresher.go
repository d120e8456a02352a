package weather

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"cuaderno/entities"
	"cuaderno/pkg/apperr"
	"cuaderno/pkg/metrics"
	"cuaderno/pkg/subscription"
	"cuaderno/pkg/weather/repository"
)

// FeatureChecker tells whether a user's plan includes a feature.
type FeatureChecker interface {
	RequireFeature(ctx context.Context, uid, feature string) error
}

// Refresher periodically recomputes and stores the alerts of every located
// parcela whose owner has the weather_alerts feature.
type Refresher struct {
	svc      *Service
	repo     repository.AlertRepository
	features FeatureChecker
	log      *zap.Logger
	cron     *cron.Cron
	now      func() time.Time
}

func NewRefresher(svc *Service, repo repository.AlertRepository, features FeatureChecker, log *zap.Logger) *Refresher {
	return &Refresher{svc: svc, repo: repo, features: features, log: log, now: time.Now}
}

// Start schedules RunOnce with a cron spec ("@every 3h", "0 */6 * * *").
// "off" or "" leaves the refresher disabled.
func (r *Refresher) Start(spec string) error {
	if spec == "" || spec == "off" {
		r.log.Info("weather refresher disabled")
		return nil
	}
	cl := cronLogger{r.log.Sugar()}
	r.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := r.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := r.RunOnce(ctx); err != nil {
			r.log.Error("weather refresh failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}
	r.cron.Start()
	r.log.Info("weather refresher scheduled", zap.String("spec", spec))
	return nil
}

// Stop waits for a running refresh to finish.
func (r *Refresher) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
}

// RunOnce refreshes all eligible parcelas and returns the number of alerts stored.
func (r *Refresher) RunOnce(ctx context.Context) (int, error) {
	parcelas, err := r.repo.ParcelasConCentroide(ctx)
	if err != nil {
		return 0, err
	}
	today := r.now().UTC().Truncate(24 * time.Hour)
	allowed := map[string]bool{}
	stored := 0
	for i := range parcelas {
		p := &parcelas[i]
		ok, seen := allowed[p.PropietarioID]
		if !seen {
			ferr := r.features.RequireFeature(ctx, p.PropietarioID, subscription.FeatureWeatherAlerts)
			if ferr != nil && !apperr.IsCode(ferr, apperr.CodeFeatureDisabled) {
				return stored, ferr
			}
			ok = ferr == nil
			allowed[p.PropietarioID] = ok
		}
		if !ok {
			continue
		}
		loc, _ := LocationOf(p)
		alerts, f, err := r.svc.Alerts(ctx, loc, DefaultDays)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return stored, err
			}
			r.log.Warn("weather alerts unavailable", zap.String("parcela", p.ID), zap.Error(err))
			continue
		}
		rows := make([]entities.WeatherAlert, 0, len(alerts))
		perTipo := map[string]int{}
		for _, a := range alerts {
			d, err := time.Parse("2006-01-02", a.Fecha)
			if err != nil {
				continue
			}
			rows = append(rows, entities.WeatherAlert{
				ParcelaID:     p.ID,
				PropietarioID: p.PropietarioID,
				Fecha:         d,
				Tipo:          a.Tipo,
				Severidad:     a.Severidad,
				Mensaje:       a.Mensaje,
				Valor:         a.Valor,
				Fuente:        f.Fuente,
			})
			perTipo[a.Tipo]++
		}
		if err := r.repo.Replace(ctx, p.ID, today, rows); err != nil {
			return stored, err
		}
		for tipo, n := range perTipo {
			metrics.AlertsStored(tipo, n)
		}
		stored += len(rows)
	}
	r.log.Info("weather alerts refreshed", zap.Int("parcelas", len(parcelas)), zap.Int("alerts", stored))
	return stored, nil
}

// cronLogger routes cron's logs through zap.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, kv ...interface{}) { l.s.Debugw("cron: "+msg, kv...) }

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.s.Errorw("cron: "+msg, append(kv, "error", err)...)
}
