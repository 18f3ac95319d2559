package actor

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/cartridge/replay/internal/codec"
	"github.com/cartridge/replay/internal/config"
	"github.com/cartridge/replay/internal/policy"
	"github.com/cartridge/replay/internal/spec"
	replayv1 "github.com/cartridge/replay/pkg/api/replay/v1"
)

// Actor feeds synthetic steps into a replay service
type Actor struct {
	cfg    *config.Actor
	client replayv1.ReplayClient
	conn   *grpc.ClientConn
	logger zerolog.Logger

	limiter *rate.Limiter
	sent    int
}

// Dial connects to the replay service with the cbor codec selected for
// every call.
func Dial(addr string) (*grpc.ClientConn, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codec.Name)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to replay at %s: %w", addr, err)
	}
	return conn, nil
}

// New creates an actor that dials cfg.ReplayAddr.
func New(cfg *config.Actor, logger zerolog.Logger) (*Actor, error) {
	conn, err := Dial(cfg.ReplayAddr)
	if err != nil {
		return nil, err
	}
	a := NewWithClient(cfg, replayv1.NewReplayClient(conn), logger)
	a.conn = conn
	return a, nil
}

// NewWithClient creates an actor on an existing client.
func NewWithClient(cfg *config.Actor, client replayv1.ReplayClient, logger zerolog.Logger) *Actor {
	if cfg.ActorID == "" {
		cfg.ActorID = uuid.NewString()
	}
	return &Actor{
		cfg:     cfg,
		client:  client,
		logger:  logger.With().Str("actor_id", cfg.ActorID).Logger(),
		limiter: rate.NewLimiter(rate.Limit(cfg.BatchesPerSecond), 1),
	}
}

// Close cleans up resources
func (a *Actor) Close() error {
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

// Sent returns the number of batches the replay service accepted.
func (a *Actor) Sent() int {
	return a.sent
}

// Run fetches the buffer layout and sends one batch per limiter tick until
// MaxBatches is reached or ctx is done.
func (a *Actor) Run(ctx context.Context) error {
	layout, err := a.getSpec(ctx)
	if err != nil {
		return err
	}
	p, err := a.newPolicy(layout)
	if err != nil {
		return fmt.Errorf("failed to create policy: %w", err)
	}

	a.logger.Info().
		Str("spec", layout.DataSpec.String()).
		Uint32("batch_size", layout.BatchSize).
		Uint32("capacity", layout.Capacity).
		Str("policy", a.cfg.Policy).
		Msg("Actor starting main loop")

	for {
		if a.cfg.MaxBatches >= 0 && a.sent >= a.cfg.MaxBatches {
			a.logger.Info().Int("batches", a.sent).Msg("Reached maximum batches, stopping")
			return nil
		}
		if err := a.limiter.Wait(ctx); err != nil {
			// Wait fails early when the next token lands past the deadline.
			<-ctx.Done()
			return ctx.Err()
		}

		items, err := policy.Batch(p, int(layout.BatchSize))
		if err != nil {
			return fmt.Errorf("failed to build batch: %w", err)
		}
		lastID, err := a.addBatch(ctx, items)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		a.sent++
		if a.sent%100 == 0 {
			a.logger.Info().Int("batches", a.sent).Int64("last_id", lastID).Msg("Progress")
		}
	}
}

func (a *Actor) getSpec(ctx context.Context) (*replayv1.SpecResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()

	layout, err := a.client.GetSpec(ctx, &replayv1.GetSpecRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to get spec: %w", err)
	}
	return layout, nil
}

func (a *Actor) addBatch(ctx context.Context, items spec.Record) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()

	resp, err := a.client.AddBatch(ctx, &replayv1.AddBatchRequest{Items: items})
	if err != nil {
		return 0, fmt.Errorf("failed to add batch: %w", err)
	}
	return resp.LastId, nil
}

func (a *Actor) newPolicy(layout *replayv1.SpecResponse) (policy.Policy, error) {
	switch a.cfg.Policy {
	case "counter":
		return policy.NewCounter(layout.DataSpec, policy.DefaultStride)
	case "random":
		seed := a.cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return policy.NewRandom(layout.DataSpec, policy.RandomOptions{
			Low:      a.cfg.Low,
			High:     a.cfg.High,
			IntLimit: a.cfg.IntLimit,
		}, rand.New(rand.NewSource(seed)))
	default:
		return nil, fmt.Errorf("unknown policy %q", a.cfg.Policy)
	}
}
