package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Inventory InventoryConfig `yaml:"inventory" mapstructure:"inventory"`
	Watershed WatershedConfig `yaml:"watershed" mapstructure:"watershed"`
	Water     WaterConfig     `yaml:"water" mapstructure:"water"`
	Habitat   HabitatConfig   `yaml:"habitat" mapstructure:"habitat"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the input layers. Driver selects the source backend:
// "gpkg" reads GeoPackages, "shapefile" a directory of shapefiles, and
// "postgis" a PostGIS database.
type DataConfig struct {
	Driver             string   `yaml:"driver" mapstructure:"driver"`
	USFSGeoPackage     string   `yaml:"usfs_gpkg" mapstructure:"usfs_gpkg"`
	AnalysisGeoPackage string   `yaml:"analysis_gpkg" mapstructure:"analysis_gpkg"`
	ShapefileDir       string   `yaml:"shapefile_dir" mapstructure:"shapefile_dir"`
	DatabaseURL        string   `yaml:"database_url" mapstructure:"database_url"`
	Schema             string   `yaml:"schema" mapstructure:"schema"`
	RoadlessLayer      string   `yaml:"roadless_layer" mapstructure:"roadless_layer"`
	LabelColumns       []string `yaml:"label_columns" mapstructure:"label_columns"`
}

// OutputConfig locates the table output tree.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// InventoryConfig configures the roadless-area inventory analysis.
type InventoryConfig struct {
	Subdir string `yaml:"subdir" mapstructure:"subdir"`
}

// WatershedConfig configures the HUC12 risk-index analysis.
type WatershedConfig struct {
	ModelLayer string `yaml:"model_layer" mapstructure:"model_layer"`
	Subdir     string `yaml:"subdir" mapstructure:"subdir"`
	// RiskFields are the modeled index columns aggregated to roadless areas.
	RiskFields []string `yaml:"risk_fields" mapstructure:"risk_fields"`
	// ExcludeRankFields drops the *_R percentile-rank variants from outputs.
	ExcludeRankFields bool `yaml:"exclude_rank_fields" mapstructure:"exclude_rank_fields"`
}

// WaterConfig configures the Forest-to-Faucets water-usage analysis.
type WaterConfig struct {
	F2FLayer string   `yaml:"f2f_layer" mapstructure:"f2f_layer"`
	Subdir   string   `yaml:"subdir" mapstructure:"subdir"`
	Measures []string `yaml:"measures" mapstructure:"measures"`
}

// HabitatConfig configures the critical-habitat reporting analysis.
type HabitatConfig struct {
	Layer       string `yaml:"layer" mapstructure:"layer"`
	AdminLayer  string `yaml:"admin_layer" mapstructure:"admin_layer"`
	StatesLayer string `yaml:"states_layer" mapstructure:"states_layer"`
	Subdir      string `yaml:"subdir" mapstructure:"subdir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ROADLESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.driver", "gpkg")
	v.SetDefault("data.usfs_gpkg", "data/processed/usfs.gpkg")
	v.SetDefault("data.analysis_gpkg", "data/processed/roadless_analysis.gpkg")
	// Empty defaults so AutomaticEnv knows the keys; without them the env
	// overrides are invisible to Unmarshal.
	v.SetDefault("data.shapefile_dir", "")
	v.SetDefault("data.database_url", "")
	v.SetDefault("data.schema", "public")
	v.SetDefault("data.roadless_layer", "roadless_area")
	v.SetDefault("data.label_columns", []string{"REGION", "FOREST", "STATE", "NAME"})
	v.SetDefault("output.dir", "05-outputs/tables")
	v.SetDefault("inventory.subdir", "roadless_tables")
	v.SetDefault("watershed.model_layer", "F2F2_HUC12_RA")
	v.SetDefault("watershed.subdir", "roadless_f2f2_huc12_risk_tables")
	v.SetDefault("watershed.risk_fields", []string{
		"WFP", "IDRISK",
		"R_AG", "R_RIP", "R_IMPV", "R_NATCOV", "R_Q",
		"IMP", "IMP_R",
		"APCW", "APCW_R",
		"WFP_IMP_R", "IDRISK_R",
	})
	v.SetDefault("watershed.exclude_rank_fields", false)
	v.SetDefault("water.f2f_layer", "F2F_RA")
	v.SetDefault("water.subdir", "roadless_f2f_tables")
	v.SetDefault("water.measures", []string{"Total_SW", "Total_GW", "Public_sup", "Public_sup_GW"})
	v.SetDefault("habitat.layer", "crithab_poly_ra")
	v.SetDefault("habitat.admin_layer", "usfs_admin_boundary_RA")
	v.SetDefault("habitat.states_layer", "States_RA")
	v.SetDefault("habitat.subdir", "roadless_critical_habitat_tables")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
