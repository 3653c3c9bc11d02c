package runstore

import (
	"github.com/mercadolito/strategia/internal/runstore/service"
	"go.uber.org/fx"
)

var Module = fx.Module("runstore.service",
	fx.Provide(service.NewService),
)
