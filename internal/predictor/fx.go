package predictor

import (
	"github.com/mercadolito/strategia/internal/predictor/service"
	"go.uber.org/fx"
)

var Module = fx.Module("predictor.service",
	fx.Provide(service.NewService),
)
