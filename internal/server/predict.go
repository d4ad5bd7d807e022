package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/sarthakdhakal/signspeak/internal/frame"
	"github.com/sarthakdhakal/signspeak/internal/recognize"
)

// ErrorLabel is the prediction reported for any failed request.
const ErrorLabel = "Error"

type predictRequest struct {
	Image string `json:"image"`
}

// predictResponse is the body of every /predict reply and websocket
// message. Prediction and Audio are always present.
type predictResponse struct {
	ID         string     `json:"id,omitempty"`
	Prediction string     `json:"prediction"`
	Audio      string     `json:"audio"`
	Confidence float32    `json:"confidence,omitempty"`
	Box        *frame.Box `json:"box,omitempty"`
	FullFrame  bool       `json:"full_frame,omitempty"`
	Error      string     `json:"error,omitempty"`
}

func errorResponse(kind recognize.Kind) predictResponse {
	return predictResponse{Prediction: ErrorLabel, Audio: "", Error: string(kind)}
}

// handlePredict handles POST /predict. Pipeline failures are reported in
// the body with status 200.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBody))
	if err != nil {
		s.log.Warn("read predict body", zap.Error(err))
		writeJSON(w, errorResponse(recognize.KindBadRequest))
		return
	}

	writeJSON(w, s.predict(r.Context(), body))
}

// predict parses a {"image": ...} payload and runs recognition.
func (s *Server) predict(ctx context.Context, body []byte) (resp predictResponse) {
	reqID := middleware.GetReqID(ctx)

	defer func() {
		if p := recover(); p != nil {
			s.log.Error("predict panic", zap.String("request_id", reqID), zap.Any("panic", p))
			resp = errorResponse(recognize.KindUnknown)
		}
	}()

	var req predictRequest
	if err := json.Unmarshal(body, &req); err != nil || strings.TrimSpace(req.Image) == "" {
		if err == nil {
			err = errors.New("missing image")
		}
		s.log.Info("bad predict request", zap.String("request_id", reqID), zap.Error(err))
		return errorResponse(recognize.KindBadRequest)
	}

	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	res, err := s.config.Recognizer.Recognize(ctx, req.Image)
	if err != nil {
		kind := recognize.KindOf(err)
		s.log.Warn("prediction failed",
			zap.String("request_id", reqID),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return errorResponse(kind)
	}

	return predictResponse{
		ID:         res.ID,
		Prediction: res.Label,
		Audio:      res.AudioURL,
		Confidence: res.Confidence,
		Box:        res.HandBox,
		FullFrame:  res.FullFrame,
	}
}
