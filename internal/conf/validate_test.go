package conf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSettings() *Settings {
	return &Settings{
		Sources: SourcesConfig{Forest: "forest.csv", Grassland: "grassland.csv"},
		Loader: LoaderConfig{
			InvalidDates: InvalidDatesReject,
			DateLayouts:  DefaultDateLayouts,
			HTTPTimeout:  time.Second,
			Delimiter:    ",",
		},
		Dashboard: DashboardConfig{
			EmptySelection:   EmptySelectionNone,
			TopN:             10,
			GeoSampleSize:    500,
			HistogramBins:    20,
			DefaultSelection: 5,
		},
		WebServer: WebServerConfig{Port: 8080, ShutdownTimeout: time.Second, ReloadPerMinute: 1},
		Session:   SessionConfig{TTL: time.Minute, MaxSessions: 10},
		Events:    EventsConfig{BufferSize: 10, Workers: 1},
	}
}

func TestValidateSettings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"valid", func(*Settings) {}, ""},
		{"empty sources allowed", func(s *Settings) { s.Sources = SourcesConfig{} }, ""},
		{"bad date policy", func(s *Settings) { s.Loader.InvalidDates = "skip" }, "invalid_dates"},
		{"no layouts", func(s *Settings) { s.Loader.DateLayouts = nil }, "date_layouts"},
		{"multi char delimiter", func(s *Settings) { s.Loader.Delimiter = ";;" }, "delimiter"},
		{"bad empty selection", func(s *Settings) { s.Dashboard.EmptySelection = "some" }, "empty_selection"},
		{"zero bins", func(s *Settings) { s.Dashboard.HistogramBins = 0 }, "histogram_bins"},
		{"negative default selection", func(s *Settings) { s.Dashboard.DefaultSelection = -1 }, "default_selection"},
		{"bad port", func(s *Settings) { s.WebServer.Port = 70000 }, "port"},
		{"bad body limit", func(s *Settings) { s.WebServer.BodyLimit = "lots" }, "body_limit"},
		{"zero session ttl", func(s *Settings) { s.Session.TTL = 0 }, "ttl"},
		{"sentry without dsn", func(s *Settings) { s.Sentry.Enabled = true }, "dsn is required"},
		{"zero event workers", func(s *Settings) { s.Events.Workers = 0 }, "events.workers"},
		{"mqtt without broker", func(s *Settings) {
			s.MQTT = MQTTConfig{Enabled: true, Topic: "birdview"}
		}, "mqtt.broker is required"},
		{"mqtt broker without host", func(s *Settings) {
			s.MQTT = MQTTConfig{Enabled: true, Broker: "localhost", Topic: "birdview"}
		}, "not a valid broker URL"},
		{"mqtt valid", func(s *Settings) {
			s.MQTT = MQTTConfig{Enabled: true, Broker: "tcp://localhost:1883", Topic: "birdview"}
		}, ""},
		{"notification without urls", func(s *Settings) { s.Notification.Enabled = true }, "notification.urls"},
		{"bad module level", func(s *Settings) {
			s.Logging.ModuleLevels = map[string]string{"dataset": "loud"}
		}, "module_levels.dataset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := validSettings()
			tt.mutate(s)
			err := ValidateSettings(s)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateSource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source  string
		wantErr bool
	}{
		{"data/forest.csv", false},
		{"/abs/path/forest.csv", false},
		{"file:///abs/forest.csv", false},
		{"file://", true},
		{"https://example.org/forest.csv", false},
		{"http:///nohost.csv", true},
		{"sqlite://birds.db?table=forest", false},
		{"sqlite://birds.db", true},
		{"mysql://u:p@tcp(localhost:3306)/birds?table=forest", false},
		{"mysql://?table=x", true},
		{"s3://bucket/forest.csv", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			t.Parallel()
			err := validateSource(tt.source)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
