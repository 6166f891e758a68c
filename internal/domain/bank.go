package domain

import "time"

// BankApp is one configured (bank, app identifier) pair fed to the collector.
type BankApp struct {
	Name  string `toml:"name"`
	AppID string `toml:"app_id"`
}

type Bank struct {
	ID        int64
	Name      string
	AppName   string // store app identifier, e.g. com.combanketh.mobilebanking
	CreatedAt time.Time
}
