package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config contains the settings for the capture pipeline and its sinks.
// Values may be loaded from a YAML file and overridden by command-line flags.
type Config struct {
	Camera Camera `yaml:"camera"`
	Model  Model  `yaml:"model"`
	Policy Policy `yaml:"policy"`
	MQTT   MQTT   `yaml:"mqtt"`
	Serve  Serve  `yaml:"serve"`
}

// Camera contains the frame source settings. Gain and exposure are part of
// the deployed calibration: the model was trained on frames captured with
// these exact values, so they are configuration, not tuning knobs.
type Camera struct {
	Driver   string `yaml:"driver"`   // "shm", "serial" or "replay"
	ShmName  string `yaml:"shmName"`  // shared memory name for the shm driver
	Port     string `yaml:"port"`     // serial port for the serial driver
	Dir      string `yaml:"dir"`      // frame dump directory for the replay driver
	Width    int    `yaml:"width"`    // frame width in pixels
	Height   int    `yaml:"height"`   // frame height in pixels
	Gain     int    `yaml:"gain"`     // fixed sensor gain (calibration)
	Exposure int    `yaml:"exposure"` // fixed sensor exposure (calibration)
}

// Model contains the inference engine settings.
type Model struct {
	Path      string `yaml:"path"`      // path to the quantized .tflite artifact
	ArenaKiB  int    `yaml:"arenaKiB"`  // tensor arena size in KiB
	Threads   int    `yaml:"threads"`   // engine worker threads
	ClosedIdx int    `yaml:"closedIdx"` // index of the closed-class output
	OpenIdx   int    `yaml:"openIdx"`   // index of the open-class output
}

// Policy contains the decision policy settings.
type Policy struct {
	ClosedThreshold float64 `yaml:"closedThreshold"` // closed-class score threshold
	IntervalMs      int     `yaml:"intervalMs"`      // cycle cadence in milliseconds
}

// MQTT contains the notification broker settings. An empty host disables
// the MQTT sink.
type MQTT struct {
	Host     string `yaml:"host"`     // host of the mqtt broker
	Port     int    `yaml:"port"`     // port of the mqtt broker
	Topic    string `yaml:"topic"`    // topic decisions are published to
	ClientID string `yaml:"clientId"` // mqtt client id to use
}

// Serve contains the observability listener addresses.
type Serve struct {
	HTTPAddr    string `yaml:"httpAddr"`    // status/preview server address
	MetricsAddr string `yaml:"metricsAddr"` // prometheus metrics address
	PprofAddr   string `yaml:"pprofAddr"`   // pprof profiling address
}

// Default returns a Config populated with the reference deployment values.
func Default() *Config {
	return &Config{
		Camera: Camera{
			Driver:   "shm",
			ShmName:  "/door_camera_stream",
			Width:    96,
			Height:   96,
			Gain:     4,
			Exposure: 300,
		},
		Model: Model{
			Path:      "door_status_model.tflite",
			ArenaKiB:  384,
			Threads:   1,
			ClosedIdx: 0,
			OpenIdx:   1,
		},
		Policy: Policy{
			ClosedThreshold: 0.55,
			IntervalMs:      1000,
		},
		MQTT: MQTT{
			Port:     1883,
			Topic:    "doorwatch/decision",
			ClientID: "doorwatch",
		},
		Serve: Serve{
			HTTPAddr:    ":8081",
			MetricsAddr: ":9090",
			PprofAddr:   ":6060",
		},
	}
}

// Load reads configuration from the given YAML file path. A missing file
// returns defaults without error so the binary runs flag-only.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config read error: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("config parse error: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("invalid frame geometry %dx%d", c.Camera.Width, c.Camera.Height)
	}
	switch c.Camera.Driver {
	case "shm", "serial", "replay":
	default:
		return fmt.Errorf("unknown camera driver %q", c.Camera.Driver)
	}
	if c.Model.ArenaKiB <= 0 {
		return fmt.Errorf("arena size must be positive, got %d KiB", c.Model.ArenaKiB)
	}
	if c.Model.ClosedIdx == c.Model.OpenIdx {
		return fmt.Errorf("closed and open output indices must differ")
	}
	if c.Policy.ClosedThreshold <= 0 || c.Policy.ClosedThreshold >= 1 {
		return fmt.Errorf("closed threshold must be in (0, 1), got %v", c.Policy.ClosedThreshold)
	}
	if c.Policy.IntervalMs <= 0 {
		c.Policy.IntervalMs = 1000
	}
	if c.Model.Threads <= 0 {
		c.Model.Threads = 1
	}
	return nil
}
