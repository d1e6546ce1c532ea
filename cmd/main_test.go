package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/loggers/logbook/internal/config"
	"github.com/loggers/logbook/internal/domain/types"
	"github.com/loggers/logbook/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const debriefing = `<?xml version="1.0" encoding="utf-8"?>
<TacviewDebriefing generator="Tacview 1.9 for DCS World">
  <Mission><Title>Red Flag</Title><Date>2024-06-01</Date><Duration>1800</Duration></Mission>
  <Events>
    <Event><Time>0</Time><Location><Latitude>42</Latitude><Longitude>41</Longitude></Location>
      <PrimaryObject><Pilot>Maverick</Pilot><Name>F-14B Tomcat</Name><Type>Air+FixedWing</Type><Coalition>Allies</Coalition></PrimaryObject>
      <Action>HasTakenOff</Action></Event>
    <Event><Time>600</Time><Location><Latitude>42.3</Latitude><Longitude>41.3</Longitude></Location>
      <PrimaryObject><Name>MiG-29A</Name><Type>Air+FixedWing</Type><Coalition>Enemies</Coalition></PrimaryObject>
      <Action>HasBeenDestroyed</Action>
      <SecondaryObject><Pilot>Maverick</Pilot><Name>F-14B Tomcat</Name><Type>Air+FixedWing</Type><Coalition>Allies</Coalition></SecondaryObject></Event>
    <Event><Time>1500</Time><Location><Latitude>42.6</Latitude><Longitude>41.6</Longitude></Location>
      <PrimaryObject><Pilot>Maverick</Pilot><Name>F-14B Tomcat</Name><Type>Air+FixedWing</Type><Coalition>Allies</Coalition></PrimaryObject>
      <Action>HasLanded</Action></Event>
  </Events>
</TacviewDebriefing>`

var configEnvVars = []string{
	config.EnvPrefix + "CONFIG",
	config.EnvPrefix + "LEDGER_BACKEND",
	config.EnvPrefix + "LOG_FORMAT",
}

func clearEnv() {
	for _, v := range configEnvVars {
		_ = os.Unsetenv(v)
	}
}

func writeTemp(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decodeResults(out string) []types.Result {
	var results []types.Result
	dec := json.NewDecoder(strings.NewReader(out))
	for {
		var r types.Result
		if err := dec.Decode(&r); err != nil {
			if errors.Is(err, io.EOF) {
				return results
			}
			panic(err)
		}
		results = append(results, r)
	}
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given the logbook root command", t, func() {
		root := newRootCmd()

		convey.Convey("Then it exposes serve and process", func() {
			names := []string{}
			for _, c := range root.Commands() {
				names = append(names, c.Name())
			}
			convey.So(names, convey.ShouldContain, "serve")
			convey.So(names, convey.ShouldContain, "process")
		})

		convey.Convey("Then it accepts a config flag", func() {
			convey.So(root.PersistentFlags().Lookup("config"), convey.ShouldNotBeNil)
		})

		convey.Convey("When process is given no files", func() {
			clearEnv()
			_, _, err := run("process")

			convey.Convey("Then it fails argument validation", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When serve is given arguments", func() {
			_, _, err := run("serve", "extra")

			convey.Convey("Then it is rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestProcessCommand(t *testing.T) {
	convey.Convey("Given a debriefing on disk", t, func() {
		clearEnv()
		defer clearEnv()
		path := writeTemp(t, "red-flag.xml", debriefing)

		convey.Convey("When it is processed twice in one invocation", func() {
			stdout, _, err := run("process", path, path)
			convey.So(err, convey.ShouldBeNil)
			results := decodeResults(stdout)

			convey.Convey("Then both results are printed", func() {
				convey.So(len(results), convey.ShouldEqual, 2)
			})

			convey.Convey("Then the first carries the stats", func() {
				first := results[0]
				convey.So(first.Duplicate, convey.ShouldBeFalse)
				convey.So(first.File, convey.ShouldEqual, "red-flag.xml")
				convey.So(first.Mission.Name, convey.ShouldEqual, "Red Flag")
				convey.So(first.Pilots["maverick"].AirKills, convey.ShouldEqual, 1)
				convey.So(first.Pilots["maverick"].RTB, convey.ShouldEqual, 1)
			})

			convey.Convey("Then the second is reported as a duplicate", func() {
				convey.So(results[1].Duplicate, convey.ShouldBeTrue)
				convey.So(results[1].Fingerprint, convey.ShouldEqual, "Red Flag @ 2024-06-01")
			})
		})

		convey.Convey("When one of the files is missing", func() {
			stdout, _, err := run("process", path, filepath.Join(t.TempDir(), "missing.xml"))

			convey.Convey("Then the good file is still printed", func() {
				convey.So(len(decodeResults(stdout)), convey.ShouldEqual, 1)
			})

			convey.Convey("Then the command fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "1 of 2 files failed")
			})
		})

		convey.Convey("When a config file selects JSON logs", func() {
			cfgPath := writeTemp(t, "logbook.yaml", "log_format: json\nlog_level: info\n")
			_, stderr, err := run("process", "--config", cfgPath, path)

			convey.Convey("Then the logs are JSON", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(stderr, convey.ShouldContainSubstring, `"msg":"mission processed"`)
			})
		})

		convey.Convey("When the configuration is invalid", func() {
			_ = os.Setenv(config.EnvPrefix+"LEDGER_BACKEND", "etcd")
			_, _, err := run("process", path)

			convey.Convey("Then the command fails before processing", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestServeWiring(t *testing.T) {
	convey.Convey("Given a service built from default configuration", t, func() {
		ctx := context.Background()
		cfg := config.New()
		svc, err := buildService(ctx, cfg, logger.Discard())
		convey.So(err, convey.ShouldBeNil)
		defer svc.Stop()

		mux := newMux(ctx, cfg, svc)

		convey.Convey("Then the API and docs routes are mounted", func() {
			for _, target := range []string{"/healthz", "/stats", "/leaderboard", "/openapi.yaml", "/api-docs"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("When a mission is uploaded", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/missions?name=red-flag.xml", strings.NewReader(debriefing)))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			convey.Convey("Then the pilot shows up on the leaderboard", func() {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rank/maverick", http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
				convey.So(w.Body.String(), convey.ShouldContainSubstring, `"rank":1`)
			})
		})

		convey.Convey("When the metrics updater runs until cancelled", func() {
			updateCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()

			convey.Convey("Then it returns without panicking", func() {
				convey.So(func() { startServiceMetricsUpdater(updateCtx, svc) }, convey.ShouldNotPanic)
			})
		})
	})
}
