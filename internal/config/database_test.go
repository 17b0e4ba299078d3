package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "mysql counts matched rows",
			cfg:  DatabaseConfig{Driver: "mysql", Host: "db", Port: "3306", User: "lib", Password: "secret", DBName: "library"},
			want: "lib:secret@tcp(db:3306)/library?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true",
		},
		{
			name: "postgres",
			cfg:  DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "lib", Password: "secret", DBName: "library", SSLMode: "disable"},
			want: "host=db port=5432 user=lib password=secret dbname=library sslmode=disable TimeZone=UTC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildDSN(tt.cfg))
		})
	}
}
