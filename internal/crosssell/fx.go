package crosssell

import (
	"github.com/mercadolito/strategia/internal/crosssell/service"
	"go.uber.org/fx"
)

var Module = fx.Module("crosssell.service",
	fx.Provide(service.NewService),
)
