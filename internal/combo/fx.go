package combo

import (
	"github.com/mercadolito/strategia/internal/combo/service"
	"go.uber.org/fx"
)

var Module = fx.Module("combo.service",
	fx.Provide(service.NewService),
)
