package router

import (
	"time"

	"micaja/internal/config"
	"micaja/internal/handler"
	"micaja/internal/infra"
	"micaja/internal/middleware"
	"micaja/internal/model"
	"micaja/internal/repository"
	"micaja/internal/service"
	"micaja/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb may be nil: closings then run without the distributed lock and
// alert jobs are not enqueued.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, metrics *infra.Metrics) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.Env, cfg.CORSAllowedOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// Both validated by config.Load.
	loc, _ := cfg.Location()
	umbral, _ := cfg.UmbralAlerta()

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	turnoRepo := repository.NewTurnoRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)
	transaccionRepo := repository.NewTransaccionRepository(db)
	cierreRepo := repository.NewCierreRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoStockRepo)
	miCajaSvc := service.NewMiCajaService(service.MiCajaDeps{
		Transacciones: transaccionRepo,
		Turnos:        turnoRepo,
		Productos:     productoRepo,
		Clientes:      clienteRepo,
		Usuarios:      usuarioRepo,
		Cierres:       cierreRepo,
		Inventario:    inventarioSvc,
		Metrics:       metrics,
		Location:      loc,
	})
	cierreSvc := service.NewCierreService(service.CierreDeps{
		Cierres:       cierreRepo,
		Transacciones: transaccionRepo,
		Locker:        infra.NewLocker(rdb),
		Dispatcher:    worker.NewDispatcher(rdb),
		Metrics:       metrics,
		Umbral:        umbral,
		LockTTL:       cfg.LockTTL(),
		Location:      loc,
	})
	exportSvc := service.NewExportService(miCajaSvc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	miCajaH := handler.NewMiCajaHandler(miCajaSvc, exportSvc)
	cierreH := handler.NewCierreHandler(cierreSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes: every role works its own register
	v1 := r.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	{
		mc := v1.Group("/mi-caja")
		{
			mc.GET("/turnos-pendientes-cobro", miCajaH.TurnosPendientes)
			mc.POST("/cobrar-turno", miCajaH.CobrarTurno)
			mc.POST("/vender-producto", miCajaH.VenderProducto)
			mc.POST("/venta-unificada", miCajaH.VentaUnificada)
			mc.GET("/mis-transacciones", miCajaH.MisTransacciones)
			mc.GET("/mis-transacciones/export", miCajaH.ExportarTransacciones)
			mc.GET("/resumen-dia", miCajaH.ResumenDia)
			mc.GET("/productos/:id", miCajaH.Producto)

			mc.POST("/cierre-caja", cierreH.Cerrar)
			mc.GET("/cierres", cierreH.Historial)
			mc.GET("/cierres/:id", cierreH.Obtener)
			mc.GET("/cierres/:id/pdf", cierreH.DescargarPDF)
		}

		usuarios := v1.Group("/usuarios", middleware.RequireRole(model.RolAdmin))
		{
			usuarios.POST("", usuariosH.Crear)
		}
	}

	// Swagger UI: only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
