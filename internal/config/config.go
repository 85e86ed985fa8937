package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/ccsdb/internal/utils"
)

// Global configuration structure.
type Global struct {
	// Dataset location. DataDir may be a local directory or an http(s) base URL.
	DataDir      string `mapstructure:"data_dir" yaml:"data_dir"`
	Variant      string `mapstructure:"variant" yaml:"variant"`
	VariantsFile string `mapstructure:"variants_file" yaml:"variants_file"`

	// Auxiliary resources, relative to DataDir unless absolute.
	CompoundList  string `mapstructure:"compound_list" yaml:"compound_list"`
	PathwayList   string `mapstructure:"pathway_list" yaml:"pathway_list"`
	PeriodicTable string `mapstructure:"periodic_table" yaml:"periodic_table"`

	PageSize      int     `mapstructure:"page_size" yaml:"page_size"`
	MassTolerance float64 `mapstructure:"mass_tolerance" yaml:"mass_tolerance"`

	// External services
	StructureImageBase   string `mapstructure:"structure_image_base" yaml:"structure_image_base"`
	StructurePlaceholder string `mapstructure:"structure_placeholder" yaml:"structure_placeholder"`
	ImageRetryDelayMs    int    `mapstructure:"image_retry_delay_ms" yaml:"image_retry_delay_ms"`
	DiagramServiceURL    string `mapstructure:"diagram_service_url" yaml:"diagram_service_url"`
	HTTPTimeoutSec       int    `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`

	ListenAddr string `mapstructure:"listen_addr" yaml:"listen_addr"`
	LogLevel   string `mapstructure:"log_level" yaml:"log_level"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.ccsdb/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := utils.EnsureDir(dir); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	return utils.SafeWriteFile(path, b)
}

// Load loads configuration from file, env, and defaults.
// Precedence: env (including .env) > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// A missing .env is normal; only the process environment is used then.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CCSDB")
	v.AutomaticEnv()

	v.SetDefault("data_dir", ".")
	v.SetDefault("variant", "metabolite")
	v.SetDefault("variants_file", "")
	v.SetDefault("compound_list", "metaboliteResources/compoundList.json")
	v.SetDefault("pathway_list", "metaboliteResources/pathwayList.txt")
	v.SetDefault("periodic_table", "")
	v.SetDefault("page_size", 10)
	v.SetDefault("mass_tolerance", 1.5)
	v.SetDefault("structure_image_base", "https://pubchem.ncbi.nlm.nih.gov/rest/pug/compound/")
	v.SetDefault("structure_placeholder", "metaboliteResources/images/default.jpg")
	v.SetDefault("image_retry_delay_ms", 500)
	v.SetDefault("diagram_service_url", "https://adbio.pnnl.gov/bioviz/services/kgml/")
	v.SetDefault("http_timeout_sec", 20)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.PageSize <= 0 {
		c.PageSize = 10
	}
	return &c, nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".ccsdb"), nil
}
