package shared

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"bank_reviews/internal/domain"
)

// DefaultBanks is used when BANKS_FILE is not set.
func DefaultBanks() []domain.BankApp {
	return []domain.BankApp{
		{Name: "CBE", AppID: "com.combanketh.mobilebanking"},
		{Name: "BOA", AppID: "com.boa.boaMobileBanking"},
		{Name: "Dashen", AppID: "com.dashen.dashensuperapp"},
	}
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

// DSN renders the go-sql-driver/mysql connection string.
func (c DBConfig) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.DBName = c.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

type ScraperConfig struct {
	BaseURL        string
	ReviewsPerBank int
	Lang           string
	Country        string
	Sort           string
	RPS            int
}

type SentimentConfig struct {
	BaseURL     string
	Token       string
	Model       string
	BatchSize   int
	Parallelism int
	MaxRunes    int
	RPS         int
}

// Paths are the default file locations of each stage's input and output.
type Paths struct {
	Raw       string
	Cleaned   string
	Sentiment string
	Themes    string
	Keywords  string
	Charts    string
}

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	DB          DBConfig
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration
	Scraper     ScraperConfig
	Sentiment   SentimentConfig
	MinLength   int
	Banks       []domain.BankApp
	Paths       Paths
}

type banksFile struct {
	Banks []domain.BankApp `toml:"banks"`
}

func Load() (Config, error) {
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ""),
		DB: DBConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     atoi("DB_PORT", 3306),
			User:     env("DB_USER", "root"),
			Password: env("DB_PASSWORD", "root"),
			Name:     env("DB_NAME", "bank_reviews"),
		},
		RedisAddr: env("REDIS_ADDR", ""),
		RedisPass: env("REDIS_PASSWORD", ""),
		RedisDB:   atoi("REDIS_DB", 0),
		CacheTTL:  time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
		Scraper: ScraperConfig{
			BaseURL:        env("SCRAPER_BASE_URL", "http://localhost:3000"),
			ReviewsPerBank: atoi("REVIEWS_PER_BANK", 400),
			Lang:           env("SCRAPER_LANG", "en"),
			Country:        env("SCRAPER_COUNTRY", "et"),
			Sort:           env("SCRAPER_SORT", "MOST_RELEVANT"),
			RPS:            atoi("SCRAPER_RPS", 1),
		},
		Sentiment: SentimentConfig{
			BaseURL:     env("HF_BASE_URL", "https://api-inference.huggingface.co/models"),
			Token:       env("HF_TOKEN", ""),
			Model:       env("SENTIMENT_MODEL", "distilbert-base-uncased-finetuned-sst-2-english"),
			BatchSize:   atoi("SENTIMENT_BATCH_SIZE", 32),
			Parallelism: atoi("SENTIMENT_PARALLELISM", 1),
			MaxRunes:    atoi("SENTIMENT_MAX_RUNES", 2000),
			RPS:         atoi("SENTIMENT_RPS", 5),
		},
		MinLength: atoi("PREPROCESS_MIN_LENGTH", 0),
		Banks:     DefaultBanks(),
		Paths: Paths{
			Raw:       env("RAW_DATA_PATH", "data/raw/bank_reviews_raw.csv"),
			Cleaned:   env("CLEANED_DATA_PATH", "data/processed/bank_reviews_cleaned.csv"),
			Sentiment: env("SENTIMENT_DATA_PATH", "data/processed/reviews_with_sentiment.csv"),
			Themes:    env("THEMES_DATA_PATH", "data/processed/reviews_with_sentiment_themes.csv"),
			Keywords:  env("KEYWORDS_DATA_PATH", "data/processed/theme_keywords.csv"),
			Charts:    env("CHARTS_DIR", "visualizations"),
		},
	}
	if f := os.Getenv("BANKS_FILE"); f != "" {
		banks, err := LoadBanks(f)
		if err != nil {
			return Config{}, err
		}
		c.Banks = banks
	}
	if c.Sentiment.Token == "" {
		log.Warn().Msg("HF_TOKEN is empty")
	}
	return c, nil
}

// LoadBanks reads a TOML file with [[banks]] tables of name/app_id.
func LoadBanks(path string) ([]domain.BankApp, error) {
	var f banksFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("read banks file %s: %w", path, err)
	}
	seen := make(map[string]struct{}, len(f.Banks))
	for _, b := range f.Banks {
		if b.Name == "" || b.AppID == "" {
			return nil, fmt.Errorf("banks file %s: name and app_id are required", path)
		}
		if _, dup := seen[b.Name]; dup {
			return nil, fmt.Errorf("banks file %s: duplicate bank %q", path, b.Name)
		}
		seen[b.Name] = struct{}{}
	}
	if len(f.Banks) == 0 {
		return nil, fmt.Errorf("banks file %s: no banks", path)
	}
	return f.Banks, nil
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
