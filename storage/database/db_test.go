package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo-lessons/core"
)

func TestURL(t *testing.T) {
	conf := &core.Config{Database: core.DatabaseConfig{
		Engine:        "postgres",
		Host:          "db",
		Port:          5432,
		Name:          "masomo_lessons",
		User:          "masomo",
		Password:      "p@ss",
		AdminUser:     "postgres",
		AdminPassword: "root",
	}}

	tests := []struct {
		name       string
		dbName     string
		admin      bool
		disableTLS bool
		want       string
	}{
		{name: "app user", dbName: "masomo_lessons", want: "postgres://masomo:p%40ss@db:5432/masomo_lessons?sslmode=require&timezone=utc"},
		{name: "admin user", dbName: "postgres", admin: true, want: "postgres://postgres:root@db:5432/postgres?sslmode=require&timezone=utc"},
		{name: "no TLS", dbName: "masomo_lessons", disableTLS: true, want: "postgres://masomo:p%40ss@db:5432/masomo_lessons?sslmode=disable&timezone=utc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf.Database.DisableTLS = tt.disableTLS
			assert.Equal(t, tt.want, URL(tt.dbName, tt.admin, conf))
		})
	}
}
