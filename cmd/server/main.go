package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/belgrave/wastemap/internal/config"
	"github.com/belgrave/wastemap/internal/logger"
	"github.com/belgrave/wastemap/internal/server"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE"    description:"Path to configuration file"        default:"config.yaml"`
	Addr       string `short:"a" long:"addr"   env:"LISTEN_ADDRESS" description:"Address to listen on"              default:"0.0.0.0"`
	Port       int    `short:"p" long:"port"   env:"LISTEN_PORT"    description:"Port to listen on"                 default:"8080"`
	DataFile   string `short:"d" long:"data"   env:"DATA_FILE"      description:"Dataset path, overrides the config value"`
}

func main() {
	_ = godotenv.Load()

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.LoadOrDefault(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if opts.DataFile != "" {
		cfg.DataFile = opts.DataFile
	}

	srvCtx := server.NewServerContext(cfg)

	// Routes
	r := mux.NewRouter()
	r.HandleFunc("/api/view", srvCtx.HandleView)
	r.HandleFunc("/api/legend", srvCtx.HandleLegend)
	r.HandleFunc("/points.geojson", srvCtx.HandlePoints)
	r.HandleFunc("/favicon.svg", srvCtx.HandleFavicon)
	r.HandleFunc("/", srvCtx.HandleIndex)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	handler := server.RequestLogger(cors(r))

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Str("data", cfg.DataFile).
		Int("legend_entries", len(srvCtx.Legend)).
		Msg("Web server started")

	if err := http.ListenAndServe(listenAddr, handler); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
