package cmd

import (
	"time"

	"github.com/andresmejia3/sightline/internal/events"
	"github.com/andresmejia3/sightline/internal/server"
	"github.com/andresmejia3/sightline/internal/stream"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveOpts struct {
	Host      string
	Port      int
	StaticDir string
	Grace     time.Duration
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the annotated MJPEG stream and the web frontend",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("host") {
			Cfg.Server.Host = serveOpts.Host
		}
		if cmd.Flags().Changed("port") {
			Cfg.Server.Port = serveOpts.Port
		}
		if cmd.Flags().Changed("static") {
			Cfg.Server.StaticDir = serveOpts.StaticDir
		}
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveOpts.Host, "host", "0.0.0.0", "Interface to bind")
	serveCmd.Flags().IntVarP(&serveOpts.Port, "port", "p", 5000, "Port to bind")
	serveCmd.Flags().StringVar(&serveOpts.StaticDir, "static", "dist", "Directory holding the built frontend (index.html)")
	serveCmd.Flags().DurationVar(&serveOpts.Grace, "grace", 5*time.Second, "How long open streams get to finish on shutdown")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command) error {
	ctx := cmd.Context()

	// Bind first: a port conflict should fail before cameras and engines are started
	srv, err := server.Listen(Cfg.Server.Addr(), nil)
	if err != nil {
		return err
	}

	sinks, closeSinks := eventSinks(cmd)
	defer closeSinks()

	a, err := buildApp(Cfg, sinks...)
	if err != nil {
		srv.Close()
		return err
	}
	// Runs after Serve has drained every session, so the camera is released last
	defer a.Close()

	mux := stream.New(a.Orchestrator,
		stream.WithQuality(Cfg.Stream.JPEGQuality),
		stream.WithMaxFPS(Cfg.Stream.MaxFPS))
	srv.SetHandler(server.NewHandler(mux, server.Config{
		StaticDir: Cfg.Server.StaticDir,
		CORS:      Cfg.Server.CORS,
	}))

	log.Info().Str("run_id", a.Dispatcher.RunID()).Str("camera", Cfg.Camera.Backend).Msg("sightline ready")
	return srv.Serve(ctx, serveOpts.Grace)
}

// eventSinks opens the optional history store and MQTT sink. Either failing is logged and
// the server runs without it.
func eventSinks(cmd *cobra.Command) ([]events.Sink, func()) {
	var sinks []events.Sink
	var closers []func()

	db, err := openStore(cmd.Context(), false)
	if err != nil {
		log.Warn().Err(err).Msg("rep history disabled")
	} else if db != nil {
		sinks = append(sinks, db)
	}

	if Cfg.Events.MQTTBroker != "" {
		m, err := events.NewMQTTSink(events.MQTTConfig{
			Broker: Cfg.Events.MQTTBroker,
			Topic:  Cfg.Events.MQTTTopic,
		})
		if err != nil {
			log.Warn().Err(err).Msg("mqtt publishing disabled")
		} else {
			sinks = append(sinks, m)
			closers = append(closers, func() { m.Close() })
		}
	}
	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}
}
