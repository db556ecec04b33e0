// Package logger provides slog construction and a set of attribute helpers
// shared by the session store, the request pipeline and the CLI.
//
// Loggers are built with functional options:
//
//	log := logger.New(
//		logger.WithProduction("squadcart"),
//		logger.WithLevelString(os.Getenv("LOG_LEVEL")),
//	)
//
//	log.Info("token refreshed",
//		logger.Component("apiclient"),
//		logger.Attempt(1),
//		logger.UserID(sess.User.Subject()),
//	)
//
// Helpers return an empty slog.Attr for nil or empty values, which slog
// drops, so they are safe to pass unconditionally.
package logger
