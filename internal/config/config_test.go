package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Server.Addr() != "0.0.0.0:5000" {
		t.Errorf("Addr() = %q, want 0.0.0.0:5000", c.Server.Addr())
	}
	if c.Model.Path != "models/sign_language_mobilenet.onnx" {
		t.Errorf("Model.Path = %q", c.Model.Path)
	}
	if c.Audio.Store != StoreDir || c.Audio.Dir != "static" {
		t.Errorf("Audio = %+v", c.Audio)
	}
	if c.Server.MaxBody != 10<<20 {
		t.Errorf("MaxBody = %d", c.Server.MaxBody)
	}
	if c.Detector.Padding != 0.3 {
		t.Errorf("Padding = %v", c.Detector.Padding)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Server.Port != 5000 {
		t.Errorf("Port = %d, want default", c.Server.Port)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `{
		"debug": true,
		"server": {"port": 8080, "request_timeout": "5s", "rate_limit": 60},
		"detector": {"idle_timeout": 90, "require_hand": true},
		"speech": {"backend": "piper", "model": "en_US-amy-medium.onnx"},
		"audio": {"store": "sqlite", "ttl": "1h"}
	}`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !c.Debug {
		t.Error("Debug should be true")
	}
	if c.Server.Port != 8080 || c.Server.Host != "0.0.0.0" {
		t.Errorf("Server = %+v", c.Server)
	}
	if c.Server.RequestTimeout.Std() != 5*time.Second {
		t.Errorf("RequestTimeout = %v", c.Server.RequestTimeout.Std())
	}
	if c.Detector.IdleTimeout.Std() != 90*time.Second {
		t.Errorf("IdleTimeout = %v", c.Detector.IdleTimeout.Std())
	}
	if !c.Detector.RequireHand {
		t.Error("RequireHand should be true")
	}
	if c.Audio.Store != StoreSQLite || c.Audio.TTL.Std() != time.Hour {
		t.Errorf("Audio = %+v", c.Audio)
	}
	if c.Audio.Dir != "static" {
		t.Errorf("Audio.Dir = %q, want default", c.Audio.Dir)
	}
	if got := c.SpeechConfig(); got.Backend != "piper" || got.Language != "en" {
		t.Errorf("SpeechConfig() = %+v", got)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SIGNSPEAK_MODEL", "/opt/model.onnx")
	t.Setenv("SIGNSPEAK_SPEECH_BACKEND", "elevenlabs")
	t.Setenv("ELEVENLABS_API_KEY", "xi-key")

	path := writeConfig(t, `{"server": {"port": 7000}, "model": {"path": "file.onnx"}}`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.Server.Port != 9000 {
		t.Errorf("Port = %d, env should win", c.Server.Port)
	}
	if c.Model.Path != "/opt/model.onnx" {
		t.Errorf("Model.Path = %q", c.Model.Path)
	}
	if c.SpeechConfig().APIKey != "xi-key" {
		t.Errorf("APIKey = %q", c.SpeechConfig().APIKey)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "bad json", body: `{"server":`},
		{name: "bad duration", body: `{"server": {"request_timeout": "soon"}}`},
		{name: "unknown backend", body: `{"speech": {"backend": "espeak"}}`},
		{name: "unknown store", body: `{"audio": {"store": "redis"}}`},
		{name: "s3 without bucket", body: `{"audio": {"store": "s3", "s3": {"endpoint": "minio:9000"}}}`},
		{name: "bad port env", body: `{}`, env: map[string]string{"PORT": "http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	if err := os.WriteFile(envFile, []byte("SIGNSPEAK_TEST_DOTENV=loaded\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SIGNSPEAK_TEST_DOTENV", "")
	os.Unsetenv("SIGNSPEAK_TEST_DOTENV")

	if err := LoadDotEnv(envFile, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("SIGNSPEAK_TEST_DOTENV"); got != "loaded" {
		t.Errorf("SIGNSPEAK_TEST_DOTENV = %q, want loaded", got)
	}
}

func TestConversions(t *testing.T) {
	c := Default()
	c.Detector.IdleTimeout = Duration(time.Minute)
	c.Audio.S3 = S3{Endpoint: "minio:9000", Bucket: "clips", UseSSL: true}

	if d := c.DetectorConfig(); d.IdleTimeout != time.Minute || d.MaxHands != 1 || d.MinConfidence != 0.5 {
		t.Errorf("DetectorConfig() = %+v", d)
	}
	if o := c.ONNXConfig(); o.ModelPath != c.Model.Path || o.InputSize != 224 {
		t.Errorf("ONNXConfig() = %+v", o)
	}
	if s := c.S3Config(); s.Endpoint != "minio:9000" || !s.UseSSL {
		t.Errorf("S3Config() = %+v", s)
	}
}
