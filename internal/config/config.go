// Package config loads service settings from a JSON file, a .env file and
// the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/sarthakdhakal/signspeak/internal/audio"
	"github.com/sarthakdhakal/signspeak/internal/classifier"
	"github.com/sarthakdhakal/signspeak/internal/detector"
	"github.com/sarthakdhakal/signspeak/internal/frame"
	"github.com/sarthakdhakal/signspeak/internal/speech"
)

// Audio store names.
const (
	StoreDir    = "dir"
	StoreSQLite = "sqlite"
	StoreS3     = "s3"
)

// Duration is a time.Duration that unmarshals from "30s" style strings or
// a number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", b)
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

type Server struct {
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	WebDir         string   `json:"web_dir"`
	RequestTimeout Duration `json:"request_timeout"`
	// RateLimit is the number of /predict requests allowed per IP per
	// minute. Zero disables limiting.
	RateLimit int   `json:"rate_limit"`
	MaxBody   int64 `json:"max_body"`
}

// Addr returns host:port.
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

type Model struct {
	Path          string `json:"path"`
	MetadataPath  string `json:"metadata_path"`
	SharedLibrary string `json:"shared_library"`
	InputName     string `json:"input_name"`
	OutputName    string `json:"output_name"`
	InputSize     int    `json:"input_size"`
}

type Detector struct {
	ScriptPath    string   `json:"script_path"`
	PythonPath    string   `json:"python_path"`
	MinConfidence float64  `json:"min_confidence"`
	IdleTimeout   Duration `json:"idle_timeout"`
	Padding       float64  `json:"padding"`
	RequireHand   bool     `json:"require_hand"`
}

type Speech struct {
	Backend  string `json:"backend"`
	Language string `json:"language"`
	BaseURL  string `json:"base_url"`
	APIKey   string `json:"api_key"`
	Voice    string `json:"voice"`
	Model    string `json:"model"`
	Binary   string `json:"binary"`

	elevenLabsKey string
	openAIKey     string
}

type S3 struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	UseSSL    bool   `json:"use_ssl"`
	Prefix    string `json:"prefix"`
	PublicURL string `json:"public_url"`
}

type Audio struct {
	Store  string   `json:"store"`
	Dir    string   `json:"dir"`
	DBPath string   `json:"db_path"`
	TTL    Duration `json:"ttl"`
	S3     S3       `json:"s3"`
}

type Config struct {
	Debug    bool     `json:"debug"`
	Server   Server   `json:"server"`
	Model    Model    `json:"model"`
	Detector Detector `json:"detector"`
	Speech   Speech   `json:"speech"`
	Audio    Audio    `json:"audio"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Host:           "0.0.0.0",
			Port:           5000,
			RequestTimeout: Duration(30 * time.Second),
			MaxBody:        10 << 20,
		},
		Model: Model{
			Path:      "models/sign_language_mobilenet.onnx",
			InputSize: frame.InputSize,
		},
		Detector: Detector{
			MinConfidence: 0.5,
			IdleTimeout:   Duration(5 * time.Minute),
			Padding:       frame.DefaultPadding,
		},
		Speech: Speech{
			Backend:  speech.BackendGoogle,
			Language: "en",
		},
		Audio: Audio{
			Store:  StoreDir,
			Dir:    "static",
			DBPath: "clips.db",
			TTL:    Duration(10 * time.Minute),
		},
	}
}

// Load reads the JSON file at path over the defaults, then applies
// environment overrides. An empty path or a missing file leaves the
// defaults in place.
func Load(path string) (Config, error) {
	c := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return c, fmt.Errorf("read config: %w", err)
		default:
			if err := json.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := c.applyEnv(); err != nil {
		return c, err
	}
	c.fillDefaults()

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("SIGNSPEAK_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid SIGNSPEAK_DEBUG %q: %w", v, err)
		}
		c.Debug = debug
	}

	setString(&c.Model.Path, "SIGNSPEAK_MODEL")
	setString(&c.Model.SharedLibrary, "ONNXRUNTIME_LIB")
	setString(&c.Speech.Backend, "SIGNSPEAK_SPEECH_BACKEND")
	setString(&c.Audio.Store, "SIGNSPEAK_AUDIO_STORE")
	setString(&c.Speech.elevenLabsKey, "ELEVENLABS_API_KEY")
	setString(&c.Speech.openAIKey, "OPENAI_API_KEY")

	setString(&c.Audio.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.Audio.S3.AccessKey, "S3_ACCESS_KEY")
	setString(&c.Audio.S3.SecretKey, "S3_SECRET_KEY")
	setString(&c.Audio.S3.Bucket, "S3_BUCKET")
	setString(&c.Audio.S3.Region, "S3_REGION")
	setString(&c.Audio.S3.PublicURL, "S3_PUBLIC_URL")

	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// fillDefaults restores defaults for fields a config file zeroed out.
func (c *Config) fillDefaults() {
	d := Default()
	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.MaxBody <= 0 {
		c.Server.MaxBody = d.Server.MaxBody
	}
	if c.Model.InputSize <= 0 {
		c.Model.InputSize = d.Model.InputSize
	}
	if c.Speech.Backend == "" {
		c.Speech.Backend = d.Speech.Backend
	}
	if c.Speech.Language == "" {
		c.Speech.Language = d.Speech.Language
	}
	if c.Audio.Store == "" {
		c.Audio.Store = d.Audio.Store
	}
	if c.Audio.Dir == "" {
		c.Audio.Dir = d.Audio.Dir
	}
	if c.Audio.DBPath == "" {
		c.Audio.DBPath = d.Audio.DBPath
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Detector.Padding < 0 {
		return fmt.Errorf("detector.padding must not be negative")
	}
	switch c.Speech.Backend {
	case speech.BackendGoogle, speech.BackendElevenLabs, speech.BackendOpenAI, speech.BackendPiper:
	default:
		return fmt.Errorf("unknown speech.backend %q", c.Speech.Backend)
	}
	switch c.Audio.Store {
	case StoreDir, StoreSQLite:
	case StoreS3:
		if c.Audio.S3.Endpoint == "" || c.Audio.S3.Bucket == "" {
			return fmt.Errorf("audio.store s3 requires endpoint and bucket")
		}
	default:
		return fmt.Errorf("unknown audio.store %q", c.Audio.Store)
	}
	return nil
}

// Key returns the configured API key, falling back to the backend's
// conventional environment variable.
func (s Speech) Key() string {
	if s.APIKey != "" {
		return s.APIKey
	}
	switch s.Backend {
	case speech.BackendElevenLabs:
		return s.elevenLabsKey
	case speech.BackendOpenAI:
		return s.openAIKey
	}
	return ""
}

// SpeechConfig converts the speech section for speech.New.
func (c Config) SpeechConfig() speech.Config {
	return speech.Config{
		Backend:  c.Speech.Backend,
		Language: c.Speech.Language,
		BaseURL:  c.Speech.BaseURL,
		APIKey:   c.Speech.Key(),
		Voice:    c.Speech.Voice,
		Model:    c.Speech.Model,
		Binary:   c.Speech.Binary,
	}
}

// ONNXConfig converts the model section for classifier.NewONNXClassifier.
func (c Config) ONNXConfig() classifier.ONNXConfig {
	return classifier.ONNXConfig{
		ModelPath:         c.Model.Path,
		MetadataPath:      c.Model.MetadataPath,
		SharedLibraryPath: c.Model.SharedLibrary,
		InputName:         c.Model.InputName,
		OutputName:        c.Model.OutputName,
		InputSize:         c.Model.InputSize,
	}
}

// DetectorConfig converts the detector section.
func (c Config) DetectorConfig() detector.Config {
	d := detector.DefaultConfig()
	d.ScriptPath = c.Detector.ScriptPath
	d.PythonPath = c.Detector.PythonPath
	if c.Detector.MinConfidence > 0 {
		d.MinConfidence = c.Detector.MinConfidence
	}
	d.IdleTimeout = c.Detector.IdleTimeout.Std()
	return d
}

// S3Config converts the s3 section for audio.NewS3Store.
func (c Config) S3Config() audio.S3Config {
	s := c.Audio.S3
	return audio.S3Config{
		Endpoint:  s.Endpoint,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
		Bucket:    s.Bucket,
		Region:    s.Region,
		UseSSL:    s.UseSSL,
		Prefix:    s.Prefix,
		PublicURL: s.PublicURL,
	}
}
