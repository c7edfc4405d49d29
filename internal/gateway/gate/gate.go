package gate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"obsidian/internal/pkg/circuit"

	gateapi "github.com/gateio/gateapi-go/v7"
)

const (
	gateSettle          = "usdt"
	gateMaxHistoryLimit = 2000
	defaultGateREST     = "https://api.gateio.ws/api/v4"

	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// ErrUnavailable is returned while the circuit breaker holds the REST client
// open after repeated failures.
var ErrUnavailable = fmt.Errorf("gate: exchange temporarily unavailable (circuit open)")

// Gateway talks to Gate.io USDT-settled perpetual futures over REST.
// It implements both market.Source and exchange.Exchange.
type Gateway struct {
	cfg     Config
	rest    *gateapi.APIClient
	breaker *circuit.CircuitBreaker
	steps   priceSteps
}

func New(cfg Config) (*Gateway, error) {
	final := cfg.withDefaults()

	conf := gateapi.NewConfiguration()
	conf.BasePath = final.RESTBaseURL
	if conf.BasePath == "" {
		conf.BasePath = defaultGateREST
	}
	conf.HTTPClient = &http.Client{Timeout: final.HTTPTimeout}

	return &Gateway{
		cfg:     final,
		rest:    gateapi.NewAPIClient(conf),
		breaker: circuit.NewCircuitBreaker("gate-rest", breakerThreshold, breakerCooldown),
	}, nil
}

func (g *Gateway) Name() string { return "gate" }

// auth attaches the v4 API credentials to the request context.
func (g *Gateway) auth(ctx context.Context) context.Context {
	return context.WithValue(ctx, gateapi.ContextGateAPIV4, gateapi.GateAPIV4{
		Key:    g.cfg.Key,
		Secret: g.cfg.Secret,
	})
}

// call funnels every REST invocation through the circuit breaker.
func (g *Gateway) call(fn func() error) error {
	if !g.breaker.Allow() {
		return ErrUnavailable
	}
	err := fn()
	if err != nil && !IsNotFound(err) {
		g.breaker.RecordFailure()
		return err
	}
	g.breaker.RecordSuccess()
	return err
}

func normalizeContract(contract string) string {
	return strings.ToUpper(strings.TrimSpace(contract))
}
