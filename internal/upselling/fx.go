package upselling

import (
	"github.com/mercadolito/strategia/internal/upselling/service"
	"go.uber.org/fx"
)

var Module = fx.Module("upselling.service",
	fx.Provide(service.NewService),
)
