package marcapropia

import (
	"github.com/mercadolito/strategia/internal/marcapropia/service"
	"go.uber.org/fx"
)

var Module = fx.Module("marcapropia.service",
	fx.Provide(service.NewService),
)
