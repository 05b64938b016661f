package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	gnarklog "github.com/consensys/gnark/logger"
	"github.com/geanlabs/zkheaders/chain"
	"github.com/geanlabs/zkheaders/config"
	"github.com/geanlabs/zkheaders/headerchain"
	"github.com/geanlabs/zkheaders/storage/memory"
	"github.com/geanlabs/zkheaders/types"
)

func main() {
	var (
		headers    int
		paramsPath string
		seed       int64
		outPath    string
		logLevel   string
	)

	flag.IntVar(&headers, "headers", 4, "Number of headers to prove after genesis")
	flag.StringVar(&paramsPath, "params", "", "Chain params YAML file (defaults when empty)")
	flag.Int64Var(&seed, "seed", time.Now().UnixNano(), "Seed for payloads and validator rotation")
	flag.StringVar(&outPath, "out", "", "Write the final proof envelope to this file")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	// Setup logger
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	if level != slog.LevelDebug {
		gnarklog.Disable()
	}

	params := config.Default()
	if paramsPath != "" {
		var err error
		if params, err = config.LoadParams(paramsPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load params: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, params, headers, seed, outPath); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, params config.Params, headers int, seed int64, outPath string) error {
	logger.Info("compiling",
		"max_validators", params.MaxValidators,
		"epoch_size", params.EpochSize,
		"universe", params.UniverseSize(),
	)
	start := time.Now()
	program, err := headerchain.Compile(headerchain.Config{Params: params, Logger: logger})
	if err != nil {
		return fmt.Errorf("compile: %w", err)
	}
	logger.Info("compiled", "elapsed", time.Since(start))

	c := chain.New(chain.Config{Program: program, Store: memory.New(), Logger: logger})

	start = time.Now()
	head, err := c.Init()
	if err != nil {
		return err
	}
	logger.Info("proved genesis", "elapsed", time.Since(start))

	rng := rand.New(rand.NewSource(seed))
	parent := head.PublicInput
	for range headers {
		num := parent.NumUint64() + 1
		var rotate []types.Field
		if types.IsEpochBoundary(params, num) {
			if rotate, err = types.RandomValidators(params, rng, params.MaxValidators); err != nil {
				return err
			}
		}
		h, err := chain.NextHeader(params, parent, types.NewField(rng.Uint64()), rotate)
		if err != nil {
			return err
		}

		start = time.Now()
		if head, err = c.Extend(ctx, h); err != nil {
			return err
		}
		if !headerchain.Verify(head, program.VerifyingKey()) {
			return fmt.Errorf("proof of header %d does not verify", num)
		}
		logger.Info("proved header", "num", num, "id", fmt.Sprintf("%x", head.ID()), "elapsed", time.Since(start))
		parent = h
	}

	if outPath == "" {
		return nil
	}
	data, err := head.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write proof: %w", err)
	}
	logger.Info("wrote proof", "path", outPath, "bytes", len(data))
	return nil
}
