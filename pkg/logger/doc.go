// Package logger builds *slog.Logger instances with environment presets,
// request-scoped attributes and a shared vocabulary of attribute keys.
//
// New takes functional options. WithEnvironment picks text output at debug
// level for development and JSON at info for staging and production, and tags
// every record with the service and env names. Context extractors run on each
// log call, so values stored by middleware (request id, environment) appear
// on every record written with a request context:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "moneylens"),
//		logger.WithLevelName(cfg.LogLevel),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "entitlement granted",
//		logger.UserID("123456789"),
//		logger.PlanID("monthly"),
//		logger.Outcome("granted"),
//	)
//
// The attribute helpers in attr.go keep key names consistent. Empty ids and
// nil errors produce an empty attribute, which slog drops:
//
//	log.Info("checkout created", logger.Error(err))
package logger
