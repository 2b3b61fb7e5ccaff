package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	API    APIConfig
	MoMo   MoMoConfig
	Orange OrangeConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type APIConfig struct {
	Key string
}

// MoMoConfig holds MTN Mobile Money collection credentials.
type MoMoConfig struct {
	BaseURL           string
	SubscriptionKey   string
	APIUser           string
	APIKey            string
	TargetEnvironment string // "sandbox" or "production"
	CallbackHost      string
}

// Configured reports whether the credentials needed for live collection
// calls are present. Absence is an expected state: payments are simulated.
func (m *MoMoConfig) Configured() bool {
	return m.SubscriptionKey != "" && m.APIUser != "" && m.APIKey != ""
}

// Sandbox reports whether the client targets MTN's sandbox environment.
func (m *MoMoConfig) Sandbox() bool {
	return m.TargetEnvironment != "production"
}

// OrangeConfig holds Orange Money WebPayment credentials.
type OrangeConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	MerchantKey  string
	ReturnURL    string
	CancelURL    string
	NotifURL     string
	Production   bool
}

func (o *OrangeConfig) Configured() bool {
	return o.ClientID != "" && o.ClientSecret != "" && o.MerchantKey != ""
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("MOMO_BASE_URL", "https://sandbox.momodeveloper.mtn.com")
	viper.SetDefault("MOMO_TARGET_ENVIRONMENT", "sandbox")
	viper.SetDefault("MOMO_CALLBACK_HOST", "localhost")
	viper.SetDefault("ORANGE_BASE_URL", "https://api.orange.com")
	viper.SetDefault("ORANGE_PRODUCTION", false)

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		API: APIConfig{
			Key: viper.GetString("API_KEY"),
		},
		MoMo: MoMoConfig{
			BaseURL:           viper.GetString("MOMO_BASE_URL"),
			SubscriptionKey:   viper.GetString("MOMO_SUBSCRIPTION_KEY"),
			APIUser:           viper.GetString("MOMO_API_USER"),
			APIKey:            viper.GetString("MOMO_API_KEY"),
			TargetEnvironment: viper.GetString("MOMO_TARGET_ENVIRONMENT"),
			CallbackHost:      viper.GetString("MOMO_CALLBACK_HOST"),
		},
		Orange: OrangeConfig{
			BaseURL:      viper.GetString("ORANGE_BASE_URL"),
			ClientID:     viper.GetString("ORANGE_CLIENT_ID"),
			ClientSecret: viper.GetString("ORANGE_CLIENT_SECRET"),
			MerchantKey:  viper.GetString("ORANGE_MERCHANT_KEY"),
			ReturnURL:    viper.GetString("ORANGE_RETURN_URL"),
			CancelURL:    viper.GetString("ORANGE_CANCEL_URL"),
			NotifURL:     viper.GetString("ORANGE_NOTIF_URL"),
			Production:   viper.GetBool("ORANGE_PRODUCTION"),
		},
	}

	if !cfg.MoMo.Configured() {
		log.Println("WARNING: MTN MoMo credentials are not set, MTN payments will be simulated")
	}
	if !cfg.Orange.Configured() {
		log.Println("WARNING: Orange Money credentials are not set, Orange payments will be simulated")
	}

	return cfg, nil
}
