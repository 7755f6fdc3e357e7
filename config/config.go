package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Version  string `yaml:"Version" validate:"required"`
	LogLevel string `yaml:"LogLevel" validate:"required"`

	// Admin handle shown to users when something needs a human
	Contact string `yaml:"Contact" validate:"required"`

	*Telegram `yaml:"Telegram" validate:"required"`
	*DB       `yaml:"DB" validate:"required"`

	// Buildings offered in the picker, in display order. A building may be
	// listed here without a chat mapping; selecting it just re-prompts.
	Buildings []string `yaml:"Buildings" validate:"required,min=1"`

	// Community chat per building and admin chat per building, both optional
	// per building.
	Chats      map[string]int64 `yaml:"Chats"`
	AdminChats map[string]int64 `yaml:"AdminChats"`
}

type Telegram struct {
	Token string `yaml:"Token" validate:"required"`
}

type DB struct {
	Host     string `yaml:"Host" validate:"required"`
	Port     int    `yaml:"Port" validate:"required"`
	User     string `yaml:"User" validate:"required"`
	Password string `yaml:"Password" validate:"required"`
	Name     string `yaml:"Name" validate:"required"`
	SSL      bool   `yaml:"SSL"`
}

// Create PostgreSQL database connection string
func (db *DB) ConnectionString() string {
	uri := fmt.Sprintf("host=%s port=%d user=%s dbname=%s password=%s",
		db.Host, db.Port,
		db.User, db.Name,
		db.Password,
	)

	if db.SSL {
		uri += " sslmode=require"
	} else {
		uri += " sslmode=disable"
	}

	return uri
}

// Init new config with validation
func NewConfig(p string) (*Config, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	validate := validator.New()
	if err := validate.Struct(&c); err != nil {
		return nil, err
	}

	return &c, nil
}
