package fidelizacion

import (
	"github.com/mercadolito/strategia/internal/fidelizacion/service"
	"go.uber.org/fx"
)

var Module = fx.Module("fidelizacion.service",
	fx.Provide(service.NewService),
)
