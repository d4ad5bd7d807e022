package server

import (
	"bytes"
	"encoding/json"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	"github.com/sarthakdhakal/signspeak/internal/audio"
	"github.com/sarthakdhakal/signspeak/internal/classifier"
	"github.com/sarthakdhakal/signspeak/internal/detector"
	"github.com/sarthakdhakal/signspeak/internal/recognize"
	"github.com/sarthakdhakal/signspeak/internal/speech"
	"github.com/sarthakdhakal/signspeak/internal/testutil"
)

func newPipelineServer(t *testing.T) (*httptest.Server, *detector.MockDetector) {
	t.Helper()
	log := zaptest.NewLogger(t)

	clips, err := audio.NewSQLiteStore(filepath.Join(t.TempDir(), "clips.db"), time.Hour, "/audio", log)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { clips.Close() })

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})

	rec, err := recognize.New(recognize.Deps{
		Detector:    det,
		Classifier:  classifier.NewMockClassifier("5"),
		Synthesizer: speech.NewMockSynthesizer(),
		Store:       clips,
		Logger:      log,
		Options:     recognize.DefaultOptions(),
	})
	if err != nil {
		t.Fatalf("recognize.New() error = %v", err)
	}

	ts := httptest.NewServer(New(Config{Recognizer: rec, Clips: clips, Logger: log}))
	t.Cleanup(ts.Close)
	return ts, det
}

func TestAPI_PredictWorkflow(t *testing.T) {
	ts, det := newPipelineServer(t)
	client := ts.Client()

	img := testutil.SolidFrame(320, 240, color.RGBA{180, 120, 90, 255})
	dataURL, err := testutil.JPEGDataURL(img)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := json.Marshal(map[string]string{"image": dataURL})

	// 1. Predict
	resp, err := client.Post(ts.URL+"/predict", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /predict error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var predicted struct {
		ID         string `json:"id"`
		Prediction string `json:"prediction"`
		Audio      string `json:"audio"`
	}
	json.NewDecoder(resp.Body).Decode(&predicted)
	resp.Body.Close()

	if predicted.Prediction != "5" {
		t.Errorf("prediction = %s, want 5", predicted.Prediction)
	}
	if want := "/audio/" + predicted.ID + ".mp3"; predicted.Audio != want {
		t.Errorf("audio = %s, want %s", predicted.Audio, want)
	}
	if det.Calls() != 1 {
		t.Errorf("detector calls = %d, want 1", det.Calls())
	}

	// 2. Fetch the clip
	resp, err = client.Get(ts.URL + predicted.Audio)
	if err != nil {
		t.Fatalf("GET audio error = %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET audio status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Errorf("Content-Type = %s, want audio/mpeg", ct)
	}
	if !strings.HasPrefix(string(data), "ID3") {
		t.Errorf("clip body = %q", data)
	}

	// 3. Unknown clip
	resp, _ = client.Get(ts.URL + "/audio/does-not-exist.mp3")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET missing clip status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestAPI_WebSocket(t *testing.T) {
	ts, _ := newPipelineServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	frames := []struct {
		msg  string
		want string
	}{
		{msg: `{"image": "` + testutil.MustPNGDataURL(testutil.SolidFrame(64, 64, color.White)) + `"}`, want: "5"},
		{msg: `{"image": "not-a-data-url"}`, want: "Error"},
		{msg: `garbage`, want: "Error"},
	}

	for _, f := range frames {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(f.msg)); err != nil {
			t.Fatalf("write error = %v", err)
		}
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, reply, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read error = %v", err)
		}

		var got struct {
			Prediction string `json:"prediction"`
			Audio      string `json:"audio"`
		}
		if err := json.Unmarshal(reply, &got); err != nil {
			t.Fatalf("decode reply %q: %v", reply, err)
		}
		if got.Prediction != f.want {
			t.Errorf("prediction = %s, want %s", got.Prediction, f.want)
		}
		if f.want == "Error" && got.Audio != "" {
			t.Errorf("audio = %q, want empty on error", got.Audio)
		}
	}
}
