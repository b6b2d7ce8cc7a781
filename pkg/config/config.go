package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Search   SearchConfig   `yaml:"search"`
	Engine   EngineConfig   `yaml:"engine"`
	Logger   LoggerConfig   `yaml:"logger"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name      string `yaml:"name"`
	Version   string `yaml:"version"`
	JWTSecret string `yaml:"jwt_secret"`
	MachineID int64  `yaml:"machine_id"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTP HTTPConfig `yaml:"http"`
}

// HTTPConfig HTTP服务配置
type HTTPConfig struct {
	Network string `yaml:"network"`
	Addr    string `yaml:"addr"`
	Timeout string `yaml:"timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	MongoDB    MongoDBConfig    `yaml:"mongodb"`
	PostgreSQL PostgreSQLConfig `yaml:"postgresql"`
}

// MongoDBConfig MongoDB配置
type MongoDBConfig struct {
	URI    string `yaml:"uri"`
	DBName string `yaml:"db_name"`
}

// PostgreSQLConfig PostgreSQL配置
type PostgreSQLConfig struct {
	DSN    string `yaml:"dsn"`
	DBName string `yaml:"db_name"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

// SearchConfig Elasticsearch配置
type SearchConfig struct {
	Addresses []string `yaml:"addresses"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
}

// EngineConfig 外部推荐引擎配置
type EngineConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig 加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func LoadConfig(serviceName string) *Config {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	v.AddConfigPath("../..")
	v.AddConfigPath("../../..")

	v.AutomaticEnv()

	setDefaults(v, serviceName)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using default values")
		} else {
			panic(fmt.Sprintf("failed to read config file: %v", err))
		}
	}

	return &Config{
		App: AppConfig{
			Name:      serviceName,
			Version:   v.GetString("app.version"),
			JWTSecret: v.GetString("app.jwt_secret"),
			MachineID: v.GetInt64("app.machine_id"),
		},
		Server: ServerConfig{
			HTTP: HTTPConfig{
				Network: "tcp",
				Addr:    v.GetString("server.http.addr"),
				Timeout: v.GetString("server.http.timeout"),
			},
		},
		Database: DatabaseConfig{
			MongoDB: MongoDBConfig{
				URI:    v.GetString("database.mongodb.uri"),
				DBName: v.GetString("database.mongodb.db_name"),
			},
			PostgreSQL: PostgreSQLConfig{
				DSN:    v.GetString("database.postgresql.dsn"),
				DBName: v.GetString("database.postgresql.db_name"),
			},
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Kafka: KafkaConfig{
			Brokers: v.GetStringSlice("kafka.brokers"),
			GroupID: v.GetString("kafka.group_id"),
		},
		Search: SearchConfig{
			Addresses: v.GetStringSlice("search.addresses"),
			Username:  v.GetString("search.username"),
			Password:  v.GetString("search.password"),
		},
		Engine: EngineConfig{
			BaseURL: v.GetString("engine.base_url"),
			Timeout: v.GetString("engine.timeout"),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("logger.level"),
			Format: v.GetString("logger.format"),
		},
	}
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper, serviceName string) {
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.jwt_secret", "triphub-dev")
	v.SetDefault("app.machine_id", 0)

	v.SetDefault("server.http.addr", ":21020")
	v.SetDefault("server.http.timeout", "30s")

	v.SetDefault("database.mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("database.mongodb.db_name", "triphub_catalog")
	v.SetDefault("database.postgresql.dsn", "host=localhost user=postgres password=postgres dbname=triphub_recommend port=5432 sslmode=disable TimeZone=Asia/Shanghai")
	v.SetDefault("database.postgresql.db_name", "triphub_recommend")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.group_id", serviceName+"-group")

	v.SetDefault("search.addresses", []string{"http://localhost:9200"})

	v.SetDefault("engine.base_url", "http://localhost:8500")
	v.SetDefault("engine.timeout", "3s")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}
