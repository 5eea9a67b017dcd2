// Package config loads the YAML configuration. Every field has a default, so an absent file
// or a partial one is fine.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/andresmejia3/sightline/internal/reps"
	"gopkg.in/yaml.v3"
)

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Camera   CameraConfig   `yaml:"camera"`
	Stream   StreamConfig   `yaml:"stream"`
	Exercise ExerciseConfig `yaml:"exercise"`
	Emotion  EmotionConfig  `yaml:"emotion"`
	Pose     PoseConfig     `yaml:"pose"`
	Alphabet AlphabetConfig `yaml:"alphabet"`
	Object   ObjectConfig   `yaml:"object"`
	Events   EventsConfig   `yaml:"events"`
	Python   string         `yaml:"python"` // interpreter used for the engines
	Database string         `yaml:"database"`
}

// ServerConfig contains HTTP settings
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	StaticDir string `yaml:"static_dir"` // built single-page app, must contain index.html
	CORS      bool   `yaml:"cors"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CameraConfig selects the capture backend
type CameraConfig struct {
	Backend     string `yaml:"backend"` // ffmpeg, opencv or file
	Device      string `yaml:"device"`  // ffmpeg input (/dev/video0) or a video file for the file backend
	InputFormat string `yaml:"input_format"`
	Index       int    `yaml:"index"` // opencv device index
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	FPS         int    `yaml:"fps"`
	RetryS      int    `yaml:"retry_s"` // reopen interval while the device is missing
}

// StreamConfig contains encoder settings
type StreamConfig struct {
	JPEGQuality int `yaml:"jpeg_quality"`
	MaxFPS      int `yaml:"max_fps"` // per session, 0 = uncapped
}

// ExerciseConfig holds the rep-counting thresholds.
type ExerciseConfig struct {
	MinVisibility float64         `yaml:"min_visibility"`
	Squat         reps.Thresholds `yaml:"squat"`
	Curl          reps.Thresholds `yaml:"curl"`
}

// Thresholds returns the per-exercise thresholds keyed by exercise name.
func (e ExerciseConfig) Thresholds() map[string]reps.Thresholds {
	return map[string]reps.Thresholds{
		reps.Squat.Name: e.Squat,
		reps.Curl.Name:  e.Curl,
	}
}

// EmotionConfig configures the face locator and the emotion engine
type EmotionConfig struct {
	Script       string  `yaml:"script"`
	Cascade      string  `yaml:"cascade"`
	MinFaceScore float32 `yaml:"min_face_score"`
}

// PoseConfig configures the pose engine
type PoseConfig struct {
	Script string `yaml:"script"`
}

// AlphabetConfig configures the sign reader
type AlphabetConfig struct {
	Language      string  `yaml:"language"`
	MinConfidence float64 `yaml:"min_confidence"` // 0-100
	ROIFraction   float64 `yaml:"roi_fraction"`
}

// ObjectConfig configures the DNN object detector
type ObjectConfig struct {
	Model         string  `yaml:"model"`
	Config        string  `yaml:"config"`
	Labels        string  `yaml:"labels"`
	MinConfidence float64 `yaml:"min_confidence"` // 0-1
}

// EventsConfig configures rep event delivery
type EventsConfig struct {
	MQTTBroker string `yaml:"mqtt_broker"` // empty disables MQTT
	MQTTTopic  string `yaml:"mqtt_topic"`
	Buffer     int    `yaml:"buffer"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 5000, StaticDir: "dist", CORS: true},
		Camera: CameraConfig{
			Backend: "ffmpeg", Device: "/dev/video0", InputFormat: "v4l2",
			Width: 640, Height: 480, FPS: 30, RetryS: 2,
		},
		Stream: StreamConfig{JPEGQuality: 80, MaxFPS: 30},
		Exercise: ExerciseConfig{
			MinVisibility: 0.5,
			Squat:         reps.Thresholds{Down: 100, Up: 160},
			Curl:          reps.Thresholds{Down: 50, Up: 150},
		},
		Emotion:  EmotionConfig{Script: "python/emotion_worker.py", Cascade: "cascade/facefinder", MinFaceScore: 5.0},
		Pose:     PoseConfig{Script: "python/pose_worker.py"},
		Alphabet: AlphabetConfig{Language: "eng", MinConfidence: 60, ROIFraction: 0.6},
		Object: ObjectConfig{
			Model: "models/ssd.pb", Config: "models/ssd.pbtxt", Labels: "models/labels.txt",
			MinConfidence: 0.5,
		},
		Events: EventsConfig{MQTTTopic: "sightline", Buffer: 64},
		Python: "python3",
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration and reports every problem at once.
func Validate(cfg *Config) error {
	var errs []error
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in [1,65535], got %d", cfg.Server.Port))
	}
	switch strings.ToLower(cfg.Camera.Backend) {
	case "ffmpeg", "opencv", "file":
	default:
		errs = append(errs, fmt.Errorf("camera.backend must be ffmpeg, opencv or file, got %q", cfg.Camera.Backend))
	}
	if cfg.Camera.Width <= 0 || cfg.Camera.Height <= 0 {
		errs = append(errs, fmt.Errorf("camera size must be positive, got %dx%d", cfg.Camera.Width, cfg.Camera.Height))
	}
	if cfg.Camera.FPS < 1 {
		errs = append(errs, fmt.Errorf("camera.fps must be positive, got %d", cfg.Camera.FPS))
	}
	if cfg.Camera.RetryS < 1 {
		errs = append(errs, fmt.Errorf("camera.retry_s must be at least 1, got %d", cfg.Camera.RetryS))
	}
	if cfg.Stream.JPEGQuality < 1 || cfg.Stream.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("stream.jpeg_quality must be in [1,100], got %d", cfg.Stream.JPEGQuality))
	}
	if cfg.Stream.MaxFPS < 0 {
		errs = append(errs, fmt.Errorf("stream.max_fps must not be negative"))
	}
	if v := cfg.Exercise.MinVisibility; !(v >= 0 && v <= 1) {
		errs = append(errs, fmt.Errorf("exercise.min_visibility must be in [0,1], got %v", v))
	}
	if err := cfg.Exercise.Squat.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("exercise.squat: %w", err))
	}
	if err := cfg.Exercise.Curl.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("exercise.curl: %w", err))
	}
	if v := cfg.Alphabet.MinConfidence; !(v >= 0 && v <= 100) {
		errs = append(errs, fmt.Errorf("alphabet.min_confidence must be in [0,100], got %v", v))
	}
	if v := cfg.Object.MinConfidence; !(v >= 0 && v <= 1) {
		errs = append(errs, fmt.Errorf("object.min_confidence must be in [0,1], got %v", v))
	}
	if cfg.Events.Buffer < 1 {
		errs = append(errs, fmt.Errorf("events.buffer must be at least 1, got %d", cfg.Events.Buffer))
	}
	return errors.Join(errs...)
}

// DatabaseURL resolves the connection string: explicit value, then SIGHTLINE_DB, then the
// POSTGRES_* variables. Empty means history is disabled.
func DatabaseURL(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if url := os.Getenv("SIGHTLINE_DB"); url != "" {
		return url
	}
	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		name := os.Getenv("POSTGRES_DB")
		port := os.Getenv("POSTGRES_PORT")
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
	}
	return ""
}
