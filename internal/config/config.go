package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port    string `mapstructure:"port"`
		Env     string `mapstructure:"env"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"app"`
	// Storage selects the document store: "postgres" or "memory".
	Storage struct {
		Driver string `mapstructure:"driver"`
		Assets string `mapstructure:"assets"`
	} `mapstructure:"storage"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		GroupID string   `mapstructure:"group_id"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
	} `mapstructure:"auth"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	S3 struct {
		Bucket    string `mapstructure:"bucket"`
		Region    string `mapstructure:"region"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		PublicURL string `mapstructure:"public_url"`
	} `mapstructure:"s3"`
	Plans struct {
		File string `mapstructure:"file"`
	} `mapstructure:"plans"`
	Wizard struct {
		DraftTTL time.Duration `mapstructure:"draft_ttl"`
	} `mapstructure:"wizard"`
	Render struct {
		CountViews bool          `mapstructure:"count_views"`
		CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"render"`
	Jaeger struct {
		OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
		SampleRatio  float64 `mapstructure:"sample_ratio"`
	} `mapstructure:"jaeger"`
}

// LoadConfig reads .env, then config.yaml from the given directories (the
// working directory when none is given), then the environment.
func LoadConfig(paths ...string) (cfg Config, err error) {
	v := viper.New()
	if len(paths) == 0 {
		paths = []string{"."}
	}

	if err = godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	setDefaults(v)

	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.base_url", "APP_BASE_URL")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.assets", "STORAGE_ASSETS")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	v.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")

	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")

	v.BindEnv("s3.bucket", "AWS_S3_BUCKET")
	v.BindEnv("s3.region", "AWS_REGION")
	v.BindEnv("s3.access_key", "AWS_ACCESS_KEY_ID")
	v.BindEnv("s3.secret_key", "AWS_SECRET_ACCESS_KEY")

	v.BindEnv("plans.file", "PLANS_FILE")
	v.BindEnv("jaeger.otlp_endpoint", "OTLP_ENDPOINT")

	err = v.Unmarshal(&cfg)
	return
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("storage.assets", "cloudinary")
	v.SetDefault("kafka.group_id", "portfolio-processor-group")
	v.SetDefault("auth.token_lifespan", 24*time.Hour)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("wizard.draft_ttl", 72*time.Hour)
	v.SetDefault("render.count_views", true)
	v.SetDefault("render.cache_ttl", 10*time.Minute)
	v.SetDefault("jaeger.sample_ratio", 1.0)
}
