package costing

import (
	"github.com/smallbiznis/procura/internal/cache"
	costingdomain "github.com/smallbiznis/procura/internal/costing/domain"
	"github.com/smallbiznis/procura/internal/costing/repository"
	"github.com/smallbiznis/procura/internal/costing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("costing.service",
	fx.Provide(
		repository.NewSnapshotRepository,
		func(r *repository.SnapshotRepository) costingdomain.Repository { return r },
		func(r *repository.SnapshotRepository) cache.Flusher { return r },
		service.NewService,
	),
)
