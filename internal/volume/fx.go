package volume

import (
	"github.com/smallbiznis/procura/internal/volume/service"
	"go.uber.org/fx"
)

var Module = fx.Module("volume.service",
	fx.Provide(service.NewService),
)
