package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// StrategyConfig exposes every heuristic constant and default parameter the
// simulators use. The numeric defaults are business assumptions carried over
// from the validated model; do not change them without domain sign-off.
type StrategyConfig struct {
	// Seed drives every pseudo-random draw in the engine. Two runs over
	// identical input must produce bit-identical results.
	Seed int64 `mapstructure:"seed"`

	// AnnualTicketBaseline is the yearly ticket volume the cross-sell
	// projection assumes when scaling rule supports to ticket counts.
	AnnualTicketBaseline float64 `mapstructure:"annualTicketBaseline"`

	// DefaultConfidence is the assumed coverage score for simulators that
	// have no record-backed coverage measure of their own.
	DefaultConfidence float64 `mapstructure:"defaultConfidence"`

	Predictor    PredictorConfig    `mapstructure:"predictor"`
	Combo        ComboConfig        `mapstructure:"combo"`
	MarcaPropia  MarcaPropiaConfig  `mapstructure:"marcaPropia"`
	CrossSell    CrossSellConfig    `mapstructure:"crossSell"`
	Upselling    UpsellingConfig    `mapstructure:"upselling"`
	Fidelizacion FidelizacionConfig `mapstructure:"fidelizacion"`
}

// PredictorConfig sets the gradient-boosting hyperparameters of the
// baseline ticket model.
type PredictorConfig struct {
	Estimators   int     `mapstructure:"estimators"`
	MaxDepth     int     `mapstructure:"maxDepth"`
	LearningRate float64 `mapstructure:"learningRate"`
	Subsample    float64 `mapstructure:"subsample"`
}

// ComboConfig parameterizes the bundled-promotion simulator.
type ComboConfig struct {
	Keywords           []string `mapstructure:"keywords"`
	TargetAdoptionRate float64  `mapstructure:"targetAdoptionRate"`
	PromoInvestment    float64  `mapstructure:"promoInvestment"`
	MinCohortRecords   int      `mapstructure:"minCohortRecords"`
	ControlRatio       int      `mapstructure:"controlRatio"`
	MaxControlSample   int      `mapstructure:"maxControlSample"`
}

// MarcaPropiaConfig parameterizes the private-label estimator.
type MarcaPropiaConfig struct {
	ConversionRate     float64            `mapstructure:"conversionRate"`
	MarginGainPoints   float64            `mapstructure:"marginGainPoints"`
	PriceReductionPct  float64            `mapstructure:"priceReductionPct"`
	Investment         float64            `mapstructure:"investment"`
	ElasticityFallback float64            `mapstructure:"elasticityFallback"`
	Elasticities       map[string]float64 `mapstructure:"elasticities"`
	DefaultMarginPct   float64            `mapstructure:"defaultMarginPct"`
}

// CrossSellConfig parameterizes the layout-change simulator.
type CrossSellConfig struct {
	MinLift              float64 `mapstructure:"minLift"`
	MaxCurrentConfidence float64 `mapstructure:"maxCurrentConfidence"`
	ConfidenceMultiplier float64 `mapstructure:"confidenceMultiplier"`
	ConfidenceCap        float64 `mapstructure:"confidenceCap"`
	TopPairs             int     `mapstructure:"topPairs"`
	AvgConsequentPrice   float64 `mapstructure:"avgConsequentPrice"`
	AvgMarginRate        float64 `mapstructure:"avgMarginRate"`
	Investment           float64 `mapstructure:"investment"`
}

// UpsellingConfig parameterizes the checkout-upselling simulator. The
// bounds split tickets into Conveniencia / Estándar / Abastecimiento /
// Grande, inclusive-lower exclusive-upper.
type UpsellingConfig struct {
	ConvenienciaBound   float64 `mapstructure:"convenienciaBound"`
	EstandarBound       float64 `mapstructure:"estandarBound"`
	AbastecimientoBound float64 `mapstructure:"abastecimientoBound"`

	SuccessRate        float64 `mapstructure:"successRate"`
	AvgUpsellValue     float64 `mapstructure:"avgUpsellValue"`
	TrainingInvestment float64 `mapstructure:"trainingInvestment"`
	MarginRate         float64 `mapstructure:"marginRate"`
}

// FidelizacionConfig parameterizes the loyalty-program simulator.
type FidelizacionConfig struct {
	// CustomerProxyRatio converts monthly ticket volume into a distinct
	// shopper estimate in the absence of customer identifiers.
	CustomerProxyRatio float64 `mapstructure:"customerProxyRatio"`
	// BaselineVisitFrequency is the assumed visits per customer per month.
	BaselineVisitFrequency float64 `mapstructure:"baselineVisitFrequency"`

	EnrollmentRate  float64 `mapstructure:"enrollmentRate"`
	FrequencyLift   float64 `mapstructure:"frequencyLift"`
	TicketLift      float64 `mapstructure:"ticketLift"`
	DiscountPct     float64 `mapstructure:"discountPct"`
	SetupInvestment float64 `mapstructure:"setupInvestment"`
}

func DefaultStrategyConfig() StrategyConfig {
	return StrategyConfig{
		Seed:                 42,
		AnnualTicketBaseline: 306_000,
		DefaultConfidence:    0.75,
		Predictor: PredictorConfig{
			Estimators:   200,
			MaxDepth:     6,
			LearningRate: 0.1,
			Subsample:    0.8,
		},
		Combo: ComboConfig{
			Keywords:           []string{"FERNET", "COCA"},
			TargetAdoptionRate: 0.15,
			PromoInvestment:    150_000,
			MinCohortRecords:   10,
			ControlRatio:       3,
			MaxControlSample:   10_000,
		},
		MarcaPropia: MarcaPropiaConfig{
			ConversionRate:     0.25,
			MarginGainPoints:   6.0,
			PriceReductionPct:  0.08,
			Investment:         500_000,
			ElasticityFallback: -1.3,
			Elasticities: map[string]float64{
				"BEBIDAS":    -1.8,
				"ALMACEN":    -1.2,
				"CARNICERIA": -0.8,
				"LACTEOS":    -1.0,
				"LIMPIEZA":   -1.5,
			},
			DefaultMarginPct: 0.30,
		},
		CrossSell: CrossSellConfig{
			MinLift:              5.0,
			MaxCurrentConfidence: 0.30,
			ConfidenceMultiplier: 1.5,
			ConfidenceCap:        0.50,
			TopPairs:             10,
			AvgConsequentPrice:   2_800,
			AvgMarginRate:        0.32,
			Investment:           80_000,
		},
		Upselling: UpsellingConfig{
			ConvenienciaBound:   5_000,
			EstandarBound:       15_000,
			AbastecimientoBound: 30_000,
			SuccessRate:         0.10,
			AvgUpsellValue:      800,
			TrainingInvestment:  120_000,
			MarginRate:          0.38,
		},
		Fidelizacion: FidelizacionConfig{
			CustomerProxyRatio:     0.60,
			BaselineVisitFrequency: 1.2,
			EnrollmentRate:         0.35,
			FrequencyLift:          0.15,
			TicketLift:             0.10,
			DiscountPct:            0.02,
			SetupInvestment:        300_000,
		},
	}
}

// LoadStrategyConfig reads strategy.yml from the given path (or the working
// directory when empty), falling back to coded defaults for every key the
// file omits.
func LoadStrategyConfig(path string) (StrategyConfig, error) {
	v := viper.New()
	v.SetConfigName("strategy")
	v.SetConfigType("yml")
	if path != "" {
		v.AddConfigPath(filepath.Dir(path))
	}
	v.AddConfigPath("/etc/strategia")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STRATEGIA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultStrategyConfig()
	setStrategyDefaults(v, defaults)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return StrategyConfig{}, err
		}
	}

	cfg := defaults
	if err := v.UnmarshalKey("strategy", &cfg); err != nil {
		return StrategyConfig{}, err
	}
	if err := ValidateStrategyConfig(cfg); err != nil {
		return StrategyConfig{}, err
	}
	return cfg, nil
}

func setStrategyDefaults(v *viper.Viper, defaults StrategyConfig) {
	v.SetDefault("strategy.seed", defaults.Seed)
	v.SetDefault("strategy.annualTicketBaseline", defaults.AnnualTicketBaseline)
	v.SetDefault("strategy.defaultConfidence", defaults.DefaultConfidence)
	v.SetDefault("strategy.predictor", defaults.Predictor)
	v.SetDefault("strategy.combo", defaults.Combo)
	v.SetDefault("strategy.marcaPropia", defaults.MarcaPropia)
	v.SetDefault("strategy.crossSell", defaults.CrossSell)
	v.SetDefault("strategy.upselling", defaults.Upselling)
	v.SetDefault("strategy.fidelizacion", defaults.Fidelizacion)
}

// ValidateStrategyConfig rejects parameter sets no simulator could run on.
func ValidateStrategyConfig(cfg StrategyConfig) error {
	if cfg.Seed <= 0 {
		return errors.New("strategy.seed must be positive")
	}
	if cfg.AnnualTicketBaseline <= 0 {
		return errors.New("strategy.annualTicketBaseline must be positive")
	}
	if len(cfg.Combo.Keywords) == 0 {
		return errors.New("strategy.combo.keywords cannot be empty")
	}
	if cfg.Combo.MinCohortRecords <= 0 || cfg.Combo.ControlRatio <= 0 || cfg.Combo.MaxControlSample <= 0 {
		return errors.New("strategy.combo sampling bounds must be positive")
	}
	for category, elasticity := range cfg.MarcaPropia.Elasticities {
		if elasticity >= 0 {
			return fmt.Errorf("strategy.marcaPropia.elasticities[%s] must be negative", category)
		}
	}
	if cfg.MarcaPropia.ElasticityFallback >= 0 {
		return errors.New("strategy.marcaPropia.elasticityFallback must be negative")
	}
	if cfg.Predictor.Estimators <= 0 || cfg.Predictor.MaxDepth <= 0 {
		return errors.New("strategy.predictor estimators and maxDepth must be positive")
	}
	if cfg.Predictor.Subsample <= 0 || cfg.Predictor.Subsample > 1 {
		return errors.New("strategy.predictor.subsample must be in (0, 1]")
	}
	if !(cfg.Upselling.ConvenienciaBound < cfg.Upselling.EstandarBound &&
		cfg.Upselling.EstandarBound < cfg.Upselling.AbastecimientoBound) {
		return errors.New("strategy.upselling segment bounds must be strictly increasing")
	}
	if cfg.Fidelizacion.CustomerProxyRatio <= 0 || cfg.Fidelizacion.BaselineVisitFrequency <= 0 {
		return errors.New("strategy.fidelizacion proxy ratio and baseline frequency must be positive")
	}
	return nil
}
