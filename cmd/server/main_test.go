package main

import (
	"testing"

	"kedaipos/backend/internal/config"
)

const strongSecret = "0123456789abcdef0123456789abcdef"

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	cases := map[string]config.Config{
		"short secret":       {AuthSecret: "short", ManagerPIN: "739154", CashierPIN: "4821"},
		"sequential manager": {AuthSecret: strongSecret, ManagerPIN: "345678", CashierPIN: "4821"},
		"repeated manager":   {AuthSecret: strongSecret, ManagerPIN: "777777", CashierPIN: "4821"},
		"short manager":      {AuthSecret: strongSecret, ManagerPIN: "7391", CashierPIN: "4821"},
		"letters in manager": {AuthSecret: strongSecret, ManagerPIN: "73915a", CashierPIN: "4821"},
		"missing cashier":    {AuthSecret: strongSecret, ManagerPIN: "739154"},
		"shared pin":         {AuthSecret: strongSecret, ManagerPIN: "739154", CashierPIN: "739154"},
	}
	for name, cfg := range cases {
		if err := validateSecurityConfig(cfg); err == nil {
			t.Fatalf("%s: expected weak security config to be rejected", name)
		}
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{AuthSecret: strongSecret, ManagerPIN: "739154", CashierPIN: "4821"})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}
