package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/loggers/logbook/internal/config"
	"github.com/loggers/logbook/internal/domain/identity"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			// Clear any existing environment variables
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.LedgerSize, convey.ShouldEqual, 1000)
				convey.So(cfg.LedgerBackend, convey.ShouldEqual, "memory")
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("LOGBOOK_ADDR", ":8080")
			_ = os.Setenv("LOGBOOK_LEDGER_SIZE", "50")
			_ = os.Setenv("LOGBOOK_STATIONARY_LIMIT_S", "600")
			_ = os.Setenv("LOGBOOK_LOG_FORMAT", "json")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LedgerSize, convey.ShouldEqual, 50)
				convey.So(cfg.StationaryLimitS, convey.ShouldEqual, 600)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
ledger_backend: redis
redis_addr: "cache:6379"
movement_threshold_m: 150
tables:
  roster: [Machinegun817, Jediknight]
  aliases:
    - identity: six
      fragments: [hhc, "229", six]
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("LOGBOOK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LedgerBackend, convey.ShouldEqual, config.LedgerRedis)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "cache:6379")
				convey.So(cfg.MovementThresholdM, convey.ShouldEqual, 150)
			})

			convey.Convey("Then inline tables are decoded in order", func() {
				convey.So(cfg.Tables.Roster, convey.ShouldResemble, []string{"Machinegun817", "Jediknight"})
				convey.So(cfg.Tables.Aliases, convey.ShouldResemble, identity.Table{
					{Identity: "six", Fragments: []string{"hhc", "229", "six"}},
				})
				convey.So(cfg.Tables.KnownPlayers, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
ledger_size: 300
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("LOGBOOK_CONFIG", tmpFile)
			_ = os.Setenv("LOGBOOK_ADDR", ":8080") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080") // Overridden by env
				convey.So(cfg.LedgerSize, convey.ShouldEqual, 300) // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			invalidYaml := `invalid: yaml: content: [`
			tmpFile := createTempConfigFile(invalidYaml)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("LOGBOOK_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("LOGBOOK_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("LOGBOOK_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("LOGBOOK_LEDGER_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestLoadTables(t *testing.T) {
	convey.Convey("Given a tables loader", t, func() {
		ctx := context.Background()
		base := config.Tables{Roster: []string{"Base"}}

		convey.Convey("When no path is configured", func() {
			tables, err := config.LoadTables(ctx, "", base)

			convey.Convey("Then the base tables are used with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(tables.Roster, convey.ShouldResemble, []string{"Base"})
				convey.So(tables.Aliases, convey.ShouldResemble, identity.DefaultTable())
			})
		})

		convey.Convey("When a tables file overrides some keys", func() {
			path := createTempConfigFile(`
roster: [Jediknight]
aliases:
  - identity: maverick
    fragments: [mav, "1"]
  - identity: goose
    fragments: [goose]
`)
			defer func() { _ = os.Remove(path) }()

			tables, err := config.LoadTables(ctx, path, base)

			convey.Convey("Then file keys win and the rest fall back", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(tables.Roster, convey.ShouldResemble, []string{"Jediknight"})
				convey.So(len(tables.Aliases), convey.ShouldEqual, 2)
				convey.So(tables.Aliases[0].Identity, convey.ShouldEqual, "maverick")
				convey.So(tables.Aliases[1].Identity, convey.ShouldEqual, "goose")
				convey.So(tables.KnownPlayers, convey.ShouldNotBeEmpty)
			})
		})

		convey.Convey("When the file changes between calls", func() {
			path := createTempConfigFile("roster: [One]\n")
			defer func() { _ = os.Remove(path) }()
			source := config.NewTableSource(path, base)

			first, err := source.Tables(ctx)
			convey.So(err, convey.ShouldBeNil)
			convey.So(os.WriteFile(path, []byte("roster: [Two]\n"), 0o600), convey.ShouldBeNil)
			second, err := source.Tables(ctx)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then each call sees the current file", func() {
				convey.So(first.Roster, convey.ShouldResemble, []string{"One"})
				convey.So(second.Roster, convey.ShouldResemble, []string{"Two"})
			})
		})

		convey.Convey("When the tables file is missing", func() {
			_, err := config.LoadTables(ctx, "/non/existent/tables.yaml", base)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"LOGBOOK_CONFIG",
		"LOGBOOK_ADDR",
		"LOGBOOK_LEDGER_SIZE",
		"LOGBOOK_STATIONARY_LIMIT_S",
		"LOGBOOK_LOG_FORMAT",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "logbook-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
