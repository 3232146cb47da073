package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/pacstage/pkg/deps"
	"github.com/matzehuels/pacstage/pkg/download"
	pserrors "github.com/matzehuels/pacstage/pkg/errors"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Services are the operations the API exposes. Downloader may be nil, in
// which case POST /v1/download answers 501.
type Services struct {
	Resolver   *deps.Resolver
	Sorter     *deps.Sorter
	Downloader *download.Coordinator
	Logger     *log.Logger
}

// NewRouter returns the HTTP handler serving the API.
func NewRouter(s Services) http.Handler {
	if s.Logger == nil {
		s.Logger = log.New(io.Discard)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/version", versionHandler())
		r.Group(func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			r.Post("/missing", missingHandler(s))
			r.Post("/known", knownHandler(s))
			r.Post("/order", orderHandler(s))
			r.Post("/download", downloadHandler(s))
		})
	})
	return r
}

// Serve runs the API on addr until ctx is cancelled, then shuts down
// gracefully.
func Serve(ctx context.Context, addr string, s Services) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).Round(time.Millisecond),
				"id", middleware.GetReqID(r.Context()))
		})
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    pserrors.Code `json:"code"`
	Message string        `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := pserrors.GetCode(err)
	switch {
	case errors.Is(err, deps.ErrMaxDepth):
		code = pserrors.ErrCodeUnresolved
	case errors.Is(err, context.DeadlineExceeded):
		code = pserrors.ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		code = pserrors.ErrCodeCancelled
	case code == "":
		code = pserrors.ErrCodeInternal
	}
	writeJSON(w, statusOf(code), errorBody{Code: code, Message: pserrors.UserMessage(err)})
}

func statusOf(code pserrors.Code) int {
	switch code {
	case pserrors.ErrCodeInvalidInput, pserrors.ErrCodeInvalidPackage,
		pserrors.ErrCodeInvalidFormat, pserrors.ErrCodeInvalidConfig:
		return http.StatusBadRequest
	case pserrors.ErrCodeUnresolved:
		return http.StatusUnprocessableEntity
	case pserrors.ErrCodeNotFound:
		return http.StatusNotFound
	case pserrors.ErrCodeCancelled:
		return http.StatusConflict
	case pserrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case pserrors.ErrCodeDownloadAborted, pserrors.ErrCodeNetwork:
		return http.StatusBadGateway
	case pserrors.ErrCodeMirrorUnavailable:
		return http.StatusServiceUnavailable
	case pserrors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return pserrors.Wrap(pserrors.ErrCodeInvalidFormat, err, "invalid request body: %v", err)
	}
	return nil
}
