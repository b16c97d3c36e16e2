package offer

import (
	"github.com/smallbiznis/procura/internal/offer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("offer.service",
	fx.Provide(service.NewService),
)
