// Package logger builds configured log/slog loggers for the kit.
//
// New applies functional options over production-safe defaults (JSON format,
// info level, stdout). NewFromConfig consumes a Config struct loaded from the
// environment — typically via the config package — so deployments can switch
// level and format without code changes:
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log := logger.NewFromConfig(cfg)
//	logger.SetAsDefault(log)
//
// Context extractors attach request- or actor-scoped values to every record
// logged with a context carrying them:
//
//	log := logger.New(logger.WithContextValue("actor_id", actorKey{}))
//
// The package produces plain *slog.Logger values; nothing in the kit depends
// on this package being the one that constructed the logger it is handed.
package logger
