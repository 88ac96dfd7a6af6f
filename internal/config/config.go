package config

import (
	"fmt"
	"log"
	"sync"

	"eventreg/entity"

	"github.com/ilyakaznacheev/cleanenv"
)

type Listen struct {
	BindIp string `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port   string `yaml:"port" env-default:"8080"`
}

type MySqlConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	HostName string `yaml:"host" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env-default:"3306"`
	UserName string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"eventreg"`
}

type MongoConfig struct {
	Enabled  bool   `yaml:"enabled" env-default:"false"`
	Host     string `yaml:"host" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"eventreg"`
}

type TelegramConfig struct {
	Enabled    bool   `yaml:"enabled" env-default:"false"`
	ApiKey     string `yaml:"api_key" env-default:""`
	AlertLevel string `yaml:"alert_level" env-default:"error"`
}

type KafkaConfig struct {
	Enabled         bool     `yaml:"enabled" env-default:"false"`
	Brokers         []string `yaml:"brokers"`
	Topic           string   `yaml:"topic" env-default:"eventreg.review-events"`
	PollIntervalSec int      `yaml:"poll_interval_sec" env-default:"5"`
	BatchSize       int      `yaml:"batch_size" env-default:"100"`
}

type UploadsConfig struct {
	Dir       string `yaml:"dir" env-default:"uploads"`
	MaxSizeMB int    `yaml:"max_size_mb" env-default:"10"`
}

type AdmissionConfig struct {
	ReleaseOnPendingReject bool `yaml:"release_on_pending_reject" env-default:"false"`
}

type Config struct {
	Listen      Listen          `yaml:"listen"`
	MySql       MySqlConfig     `yaml:"mysql"`
	Mongo       MongoConfig     `yaml:"mongo"`
	Telegram    TelegramConfig  `yaml:"telegram"`
	Kafka       KafkaConfig     `yaml:"kafka"`
	Uploads     UploadsConfig   `yaml:"uploads"`
	Admission   AdmissionConfig `yaml:"admission"`
	StaticUsers []entity.User   `yaml:"static_users"`
	Env         string          `yaml:"env" env-default:"local"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	var err error
	once.Do(func() {
		instance = &Config{}
		if err = cleanenv.ReadConfig(path, instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			err = fmt.Errorf("config: %s; %s", err, desc)
			instance = nil
			log.Fatal(err)
		}
	})
	return instance
}
