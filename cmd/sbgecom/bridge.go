package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/sbgecom/internal/bridge"
	"github.com/muurk/sbgecom/internal/config"
	"github.com/muurk/sbgecom/internal/logging"
	"github.com/muurk/sbgecom/internal/monitor"
	"github.com/muurk/sbgecom/internal/server"
)

var bridgeFlags struct {
	device   string
	nats     string
	redis    string
	redisDB  int
	listen   string
	encoding string
}

func init() {
	rootCmd.AddCommand(bridgeCmd)

	f := bridgeCmd.Flags()
	f.StringVar(&bridgeFlags.device, "device-name", "", "Device name used in subjects and keys")
	f.StringVar(&bridgeFlags.nats, "nats", "", "NATS server URL, e.g. nats://localhost:4222 (env "+config.EnvNATSURL+")")
	f.StringVar(&bridgeFlags.redis, "redis", "", "Redis address, e.g. localhost:6379 (env "+config.EnvRedisAddr+")")
	f.IntVar(&bridgeFlags.redisDB, "redis-db", -1, "Redis database number")
	f.StringVar(&bridgeFlags.listen, "listen", "", "Serve a WebSocket feed on this address, e.g. :8080")
	f.StringVar(&bridgeFlags.encoding, "encoding", "", "Event encoding for NATS and Redis (json, cbor)")
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Forward device logs to NATS, Redis and WebSocket clients",
	Long: `Forward every log the device outputs as an event.

  NATS       publishes each event on <prefix>.<device>.<class>.<name>
  Redis      keeps the latest event per log in the hash <prefix>:<device>:latest
  WebSocket  broadcasts JSON events to clients of ws://<listen>/ws

Settings come from the bridge section of the configuration file, then the
environment, then these flags. At least one destination is required.`,
	Example: `  # Publish to a local NATS server and serve a WebSocket feed
  sbgecom bridge --port /dev/ttyUSB0 --nats nats://localhost:4222 --listen :8080

  # Shadow the latest values in Redis using CBOR
  SBGECOM_REDIS_ADDR=localhost:6379 sbgecom bridge --profile lab --encoding cbor`,
	Args: cobra.NoArgs,
	RunE: runBridge,
}

// bridgeConfig merges the file, environment and flag settings.
func bridgeConfig(reg *config.Registry) (*config.BridgeConfig, error) {
	if reg == nil {
		reg = config.NewRegistry()
	}
	reg.ApplyEnv()
	cfg := *reg.Bridge

	if bridgeFlags.device != "" {
		cfg.Device = bridgeFlags.device
	}
	if bridgeFlags.nats != "" {
		cfg.NATSURL = bridgeFlags.nats
	}
	if bridgeFlags.redis != "" {
		cfg.RedisAddr = bridgeFlags.redis
	}
	if bridgeFlags.redisDB >= 0 {
		cfg.RedisDB = bridgeFlags.redisDB
	}
	if bridgeFlags.listen != "" {
		cfg.Listen = bridgeFlags.listen
	}
	if bridgeFlags.encoding != "" {
		cfg.Encoding = bridgeFlags.encoding
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.NATSURL == "" && cfg.RedisAddr == "" && cfg.Listen == "" {
		return nil, errors.New("no destination: set --nats, --redis or --listen")
	}
	return &cfg, nil
}

func runBridge(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := config.LoadRegistry()
	if err != nil {
		logging.Warn("ignoring unreadable config", zap.Error(err))
		reg = nil
	}
	cfg, err := bridgeConfig(reg)
	if err != nil {
		return err
	}
	enc, err := bridge.NewEncoder(cfg.Encoding)
	if err != nil {
		return err
	}

	var sinks bridge.MultiSink
	if cfg.NATSURL != "" {
		conn, err := bridge.ConnectNATS(cfg.NATSURL, "sbgecom-"+cfg.Device)
		if err != nil {
			return err
		}
		defer func() {
			if err := conn.Drain(); err != nil {
				logging.Warn("NATS drain failed", zap.Error(err))
			}
		}()
		sinks = append(sinks, bridge.NewNATSSink(conn, cfg.SubjectPrefix, enc))
	}
	if cfg.RedisAddr != "" {
		client, err := bridge.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer client.Close()
		sinks = append(sinks, bridge.NewRedisSink(client, cfg.KeyPrefix, cfg.TTL, enc))
	}

	var hub *server.Hub
	if cfg.Listen != "" {
		hub = server.NewHub()
		sinks = append(sinks, hub)
	}

	return withSession(cmd, "Bridge", func(s *session) error {
		b := bridge.New(cfg.Device, sinks)
		b.Attach(s.Handle)

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		srvErr := make(chan error, 1)
		if hub != nil {
			srv := server.New(server.Config{Addr: cfg.Listen}, hub, func() any { return b.Stats() })
			go func() {
				srvErr <- srv.Run(ctx)
				cancel()
			}()
		} else {
			close(srvErr)
		}

		err := s.endOfStream(b.Run(ctx, s.Handle, monitor.DefaultPollInterval))
		cancel()
		if serr := <-srvErr; serr != nil && err == nil {
			err = serr
		}

		st := b.Stats()
		logging.Info("Bridge finished",
			zap.Uint64("events", st.Events),
			zap.Uint64("published", st.Published),
			zap.Uint64("failed", st.Failed))
		return err
	})
}
