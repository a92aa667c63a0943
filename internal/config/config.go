package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen  string `yaml:"listen"`
	DataDir string `yaml:"data_dir"`

	ItemsPath string `yaml:"items_path"`
	ZonesPath string `yaml:"zones_path"`

	Currency             string `yaml:"currency"`
	ShopAccount          string `yaml:"shop_account"`
	ShopOpeningBalance   int64  `yaml:"shop_opening_balance"`
	PlayerOpeningBalance int64  `yaml:"player_opening_balance"`

	RestockTickMs  int `yaml:"restock_tick_ms"`
	InventorySlots int `yaml:"inventory_slots"`

	Admins []string `yaml:"admins"`

	AuditLog bool `yaml:"audit_log"`
}

func Defaults() Config {
	return Config{
		Listen:               ":8080",
		DataDir:              "./data",
		ItemsPath:            "./configs/items.json",
		ZonesPath:            "./configs/zones.json",
		Currency:             "coin",
		ShopAccount:          "server-shop",
		ShopOpeningBalance:   1_000_000_000,
		PlayerOpeningBalance: 100,
		RestockTickMs:        1000,
		InventorySlots:       50,
		AuditLog:             true,
	}
}

func Load(path string) (Config, error) {
	c := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("shop.yaml: %w", err)
	}
	if err := c.validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) validate() error {
	if c.ShopAccount == "" {
		return fmt.Errorf("shop_account must not be empty")
	}
	if c.RestockTickMs <= 0 {
		return fmt.Errorf("restock_tick_ms must be > 0")
	}
	if c.InventorySlots <= 0 {
		return fmt.Errorf("inventory_slots must be > 0")
	}
	return nil
}

// IsAdmin reports whether the player name is on the admin list.
func (c Config) IsAdmin(name string) bool {
	for _, a := range c.Admins {
		if a == name {
			return true
		}
	}
	return false
}
