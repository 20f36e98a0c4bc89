// Package logger provee un logger Zap singleton con scoping por contexto.
//
// # Diseño
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context Scoping: cada request lleva su propio logger "scoped" con
//     request_id, caller y tenant, sin crear un nuevo core.
//   - Entornos: "dev" usa consola con colores, "prod" usa JSON.
//
// # Uso
//
// Inicialización (una vez, en cmd/maildispatch):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// En servicios (con contexto):
//
//	log := logger.From(ctx).With(logger.Op("Dispatch"))
//	log.Info("mail sent", logger.Recipient(to))
package logger
