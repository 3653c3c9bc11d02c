package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mercadolito/strategia/internal/combo"
	"github.com/mercadolito/strategia/internal/config"
	"github.com/mercadolito/strategia/internal/crosssell"
	"github.com/mercadolito/strategia/internal/dataset"
	"github.com/mercadolito/strategia/internal/fidelizacion"
	"github.com/mercadolito/strategia/internal/marcapropia"
	"github.com/mercadolito/strategia/internal/observability"
	"github.com/mercadolito/strategia/internal/predictor"
	"github.com/mercadolito/strategia/internal/runstore"
	runstoredomain "github.com/mercadolito/strategia/internal/runstore/domain"
	"github.com/mercadolito/strategia/internal/upselling"
	"github.com/mercadolito/strategia/internal/validator"
	validatordomain "github.com/mercadolito/strategia/internal/validator/domain"
	"github.com/mercadolito/strategia/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,

		// Simulation domains
		predictor.Module,
		combo.Module,
		marcapropia.Module,
		crosssell.Module,
		upselling.Module,
		fidelizacion.Module,

		validator.Module,
		runstore.Module,

		fx.Invoke(RunEngine),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

type EngineParam struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *zap.Logger
	Config     config.Config
	Validator  validatordomain.Service
	Store      runstoredomain.Service
}

// RunEngine executes the full pipeline once and shuts the app down: load
// datasets, run every strategy, export artifacts, persist the run.
func RunEngine(p EngineParam) {
	log := p.Logger.Named("engine")

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				code := 0
				if err := runOnce(p, log); err != nil {
					log.Error("engine run failed", zap.Error(err))
					code = 1
				}
				_ = p.Shutdowner.Shutdown(fx.ExitCode(code))
			}()
			return nil
		},
	})
}

func runOnce(p EngineParam, log *zap.Logger) error {
	ctx := context.Background()

	inputs, err := dataset.LoadInputs(p.Config.DataDir)
	if err != nil {
		return err
	}
	log.Info("datasets loaded",
		zap.String("dir", p.Config.DataDir),
		zap.Int("tickets", inputs.Tickets.Len()),
		zap.Int("detail_lines", inputs.Detail.Len()),
		zap.Int("rules", inputs.Rules.Len()),
		zap.Int("pareto_categories", inputs.Pareto.Len()),
	)

	report, err := p.Validator.RunAllStrategies(ctx, inputs)
	if err != nil {
		return err
	}

	if err := p.Validator.ExportResults(report, p.Config.OutputDir); err != nil {
		return err
	}

	if p.Config.PersistenceEnabled() {
		if _, err := p.Store.SaveRun(ctx, report, inputs.Tickets.Len()); err != nil {
			return err
		}
	}
	return nil
}
