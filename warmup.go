// Package warmup implements the request engine of a cache warmer: it
// authenticates a signed warmup event, fetches the target URL once and
// answers with a flat diagnostic document.
package warmup

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/edge-optimizer/warmup-engine/pkg/extension"
	"github.com/edge-optimizer/warmup-engine/pkg/extension/cachepolicy"
	"github.com/edge-optimizer/warmup-engine/pkg/extension/measure"
	"github.com/edge-optimizer/warmup-engine/pkg/extension/performance"
	"github.com/edge-optimizer/warmup-engine/pkg/extension/security"
	flatresult "github.com/edge-optimizer/warmup-engine/pkg/flat-result"
	reqheaders "github.com/edge-optimizer/warmup-engine/pkg/request-headers"
	resourcetype "github.com/edge-optimizer/warmup-engine/pkg/resource-type"
	"github.com/edge-optimizer/warmup-engine/pkg/token"
)

const (
	DefaultArea         = "local"
	DefaultSecretEnv    = "EO_REQUEST_SECRET"
	DefaultFetchTimeout = 10 * time.Second
	DefaultMaxRedirects = 10
)

type Config struct {
	// Area names where the engine runs, e.g. a region or PoP code.
	Area string
	// Secret shared with the orchestrator for signing requests.
	// An empty secret makes every request fail with missing_secret.
	Secret string
	// SecretEnv is the environment variable the secret was read from,
	// used in the missing_secret message.
	SecretEnv string
	// MarkerValue is sent in the x-eo-re header of every warmup request.
	MarkerValue string
	// Extensions to run on every result. DefaultExtensions is used if nil.
	Extensions *extension.Registry
	// Client for the outbound fetch. One honoring FetchTimeout and
	// MaxRedirects is created if nil.
	Client       *http.Client
	FetchTimeout time.Duration
	MaxRedirects int
	// Logger to use. The global zerolog logger is used if nil.
	Logger *zerolog.Logger
	// Clock and execution id source, replaceable in tests.
	Now            func() time.Time
	NewExecutionID func() string
}

type Engine struct {
	area       string
	secret     string
	secretEnv  string
	marker     string
	client     *http.Client
	builder    *flatresult.Builder
	extensions *extension.Registry
	log        zerolog.Logger
	now        func() time.Time
	newID      func() string
	handler    http.Handler
}

// DefaultExtensions returns the shipped analyzers with their default enablement.
func DefaultExtensions() (*extension.Registry, error) {
	return extension.NewRegistry(
		security.Binding(),
		performance.Binding(),
		cachepolicy.Binding(),
		measure.Binding(),
	)
}

// CreateEngine sets up an engine from config, filling in defaults.
func CreateEngine(config Config) (*Engine, error) {
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = log.Logger
	} else {
		logger = *config.Logger
	}

	e := &Engine{
		area:       config.Area,
		secret:     config.Secret,
		secretEnv:  config.SecretEnv,
		marker:     config.MarkerValue,
		client:     config.Client,
		extensions: config.Extensions,
		now:        config.Now,
		newID:      config.NewExecutionID,
	}
	if e.area == "" {
		e.area = DefaultArea
	}
	if e.secretEnv == "" {
		e.secretEnv = DefaultSecretEnv
	}
	if e.marker == "" {
		e.marker = reqheaders.DefaultMarkerValue
	}
	if e.extensions == nil {
		reg, err := DefaultExtensions()
		if err != nil {
			return nil, err
		}
		e.extensions = reg
	}
	if e.client == nil {
		timeout := config.FetchTimeout
		if timeout == 0 {
			timeout = DefaultFetchTimeout
		}
		maxRedirects := config.MaxRedirects
		if maxRedirects == 0 {
			maxRedirects = DefaultMaxRedirects
		}
		e.client = newClient(timeout, maxRedirects)
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}

	// create a child logger and add defaults
	e.log = logger.With().Str("area", e.area).Logger()
	e.builder = flatresult.NewBuilder(e.extensions)

	e.handler = hlog.NewHandler(e.log)(
		hlog.RequestIDHandler("req_id", "X-Request-Id")(
			hlog.AccessHandler(logAccess)(
				http.HandlerFunc(e.serve))))

	e.log.Debug().Strs("extensions", e.extensions.Active()).Msg("Engine created")
	return e, nil
}

// ServeHTTP implements the http.Handler interface.
func (e *Engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.handler.ServeHTTP(w, r)
}

// invocation carries what is known so far, so the error path can report it.
type invocation struct {
	start       time.Time
	executionID string
	req         WarmupRequest
	parsed      bool
}

func (e *Engine) serve(w http.ResponseWriter, r *http.Request) {
	inv := invocation{start: e.now(), executionID: e.newID()}
	l := hlog.FromRequest(r)

	req, failure := parseInput(r, e.marker)
	if failure != nil {
		e.respondError(w, r, inv, failure)
		return
	}
	inv.req, inv.parsed = req, true

	if err := e.authenticate(req); err != nil {
		e.respondError(w, r, inv, err)
		return
	}

	info := resourcetype.Classify(req.URLType, req.TargetURL)

	l.Trace().Str("url", req.TargetURL).Msg("Fetching")
	res, err := e.fetch(r.Context(), req)
	if err != nil {
		l.Error().Err(err).Str("url", req.TargetURL).Msg("Warmup request failed")
		e.respondError(w, r, inv, requestException(err))
		return
	}

	duration := msBetween(inv.start, res.doneAt)
	ttfb := msBetween(inv.start, res.headersAt)
	result := e.builder.Build(r.Context(), flatresult.Params{
		StatusCode:      res.statusCode,
		StatusMessage:   res.statusMessage,
		TargetURL:       req.TargetURL,
		RequestNumber:   req.RequestNumber,
		RequestUUID:     req.RequestUUID,
		RequestRoundID:  req.RequestRoundID,
		Resource:        &info,
		Area:            e.area,
		ExecutionID:     inv.executionID,
		Start:           inv.start,
		End:             e.now(),
		Protocol:        res.protocol,
		TLSVersion:      res.tlsVersion,
		DurationMS:      &duration,
		TTFBMS:          &ttfb,
		BodyBytes:       &res.bodyBytes,
		RedirectCount:   res.redirects,
		RequestHeaders:  req.Headers,
		ResponseHeaders: res.header,
	})

	cdn, _ := result.Get("eo.meta.cdn-cache-status")
	l.Debug().
		Str("url", req.TargetURL).
		Int("status", res.statusCode).
		Interface("cdnCacheStatus", cdn).
		Float64("ttfbMs", flatresult.Round2(ttfb)).
		Int64("bytes", res.bodyBytes).
		Msg("Warmed")
	e.respond(w, r, http.StatusOK, result)
}

// authenticate runs the validation states in order; the first failure wins.
func (e *Engine) authenticate(req WarmupRequest) *Failure {
	if req.TargetURL == "" {
		return missingURL()
	}
	if e.secret == "" {
		return missingSecret(e.secretEnv)
	}
	if req.Token == "" {
		return missingToken()
	}
	if !token.Verify(req.Token, req.TargetURL, e.secret) {
		return invalidToken()
	}
	return nil
}

// respondError is the single exit for every failure.
func (e *Engine) respondError(w http.ResponseWriter, r *http.Request, inv invocation, err error) {
	var failure *Failure
	if !errors.As(err, &failure) {
		failure = requestException(err)
	}
	hlog.FromRequest(r).Debug().Err(failure).Int("status", failure.Status).Msg("Responding with error")

	duration := msBetween(inv.start, e.now())
	p := flatresult.Params{
		StatusCode:    failure.Status,
		StatusMessage: strings.ToUpper(string(failure.Reason)),
		RequestNumber: DefaultRequestNumber,
		Area:          e.area,
		ExecutionID:   inv.executionID,
		Start:         inv.start,
		End:           e.now(),
		DurationMS:    &duration,
		Error: &flatresult.ErrorInfo{
			Reason:  string(failure.Reason),
			Message: failure.Message,
			Detail:  failure.Detail,
		},
	}
	if inv.parsed {
		p.TargetURL = inv.req.TargetURL
		p.RequestNumber = inv.req.RequestNumber
		p.RequestUUID = inv.req.RequestUUID
		p.RequestRoundID = inv.req.RequestRoundID
		p.RequestHeaders = inv.req.Headers
	}
	e.respond(w, r, failure.Status, e.builder.Build(r.Context(), p))
}

func (e *Engine) respond(w http.ResponseWriter, r *http.Request, status int, result *flatresult.Result) {
	w.Header().Set("Content-Type", "application/json;charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := result.Encode(w); err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("Could not write result")
	}
}

func logAccess(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("Request handled")
}

func msBetween(from, to time.Time) float64 {
	return float64(to.Sub(from)) / float64(time.Millisecond)
}
