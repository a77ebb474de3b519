package services

import (
	"log/slog"

	"github.com/teachkit/correction-service/internal/cache"
	"github.com/teachkit/correction-service/internal/config"
	"github.com/teachkit/correction-service/internal/events"
	"github.com/teachkit/correction-service/internal/repositories"
	"github.com/teachkit/correction-service/internal/validator"
)

// ServiceManager bundles the engine's services for handler wiring.
type ServiceManager interface {
	Correction() CorrectionService
	Activity() ActivityService
	Export() ExportService
}

type serviceManager struct {
	correction CorrectionService
	activity   ActivityService
	export     ExportService
}

func NewServiceManager(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	v *validator.Validator,
	floors config.GradingConfig,
) ServiceManager {
	return &serviceManager{
		correction: NewCorrectionService(repo, cacheService, publisher, logger, v, floors),
		activity:   NewActivityService(repo, cacheService, publisher, logger, v),
		export:     NewExportService(repo, publisher, logger),
	}
}

func (m *serviceManager) Correction() CorrectionService { return m.correction }
func (m *serviceManager) Activity() ActivityService     { return m.activity }
func (m *serviceManager) Export() ExportService         { return m.export }
