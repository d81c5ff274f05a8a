package http

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour
)

// withIdempotency оборачивает POST-обработчик обработкой Idempotency-Key.
// Повтор того же запроса с тем же ключом воспроизводит сохранённый ответ;
// тот же ключ c другим телом — конфликт. Без заголовка запрос идёт как обычно.
func (h *Handler) withIdempotency(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.idem == nil {
			next(w, r)
			return
		}

		key := r.Header.Get(headerIdempotencyKey)
		if key == "" {
			next(w, r)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		reqHash := idempotencyRequestHash(r.Method, r.URL.Path, body)

		record, err := h.idem.CreateProcessing(key, reqHash, time.Now().UTC().Add(idempotencyTTL))
		if err != nil {
			h.replayIdempotency(w, record, err)
			return
		}

		rec := newResponseRecorder(w)
		next(rec, r)

		if rec.status >= http.StatusBadRequest {
			if markErr := h.idem.MarkFailed(key, rec.body.Bytes(), rec.status); markErr != nil {
				h.logger.WithError(markErr).WithField("idempotency_key", key).Warn("failed to store idempotent failure response")
			}
			return
		}
		if markErr := h.idem.MarkDone(key, rec.body.Bytes(), rec.status); markErr != nil {
			h.logger.WithError(markErr).WithField("idempotency_key", key).Warn("failed to store idempotent success response")
		}
	}
}

func (h *Handler) replayIdempotency(w http.ResponseWriter, record domain.IdempotencyRecord, createErr error) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		h.writeError(w, http.StatusConflict, "idempotency key is already used with different request payload")
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
			if len(record.ResponseBody) == 0 || record.HTTPStatus == 0 {
				h.writeError(w, http.StatusInternalServerError, "idempotency cache is empty")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(record.HTTPStatus)
			if _, err := w.Write(record.ResponseBody); err != nil {
				h.logger.WithError(err).WithField("idempotency_key", record.Key).Warn("failed to replay idempotent response")
			}
		case domain.IdempotencyStatusProcessing:
			h.writeError(w, http.StatusConflict, "request with the same idempotency key is already processing")
		default:
			h.writeError(w, http.StatusInternalServerError, "unknown idempotency record status")
		}
	default:
		h.logger.WithError(createErr).Warn("failed to initialize idempotency record")
		h.writeError(w, http.StatusInternalServerError, "failed to initialize idempotency request")
	}
}

func idempotencyRequestHash(method, path string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(method))
	sum.Write([]byte{'|'})
	sum.Write([]byte(path))
	sum.Write([]byte{'|'})
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}

// responseRecorder дублирует ответ в буфер,
// чтобы его можно было сохранить для повтора.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}
