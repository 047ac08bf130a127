package infra

import (
	"fmt"

	"micaja/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and migrates the
// schema. TranslateError makes unique violations surface as
// gorm.ErrDuplicatedKey so repositories can map them without parsing driver
// messages.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates or updates every table and then applies the DDL that
// AutoMigrate cannot express. Safe to run on every boot.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Usuario{},
		&model.Cliente{},
		&model.Servicio{},
		&model.Turno{},
		&model.Producto{},
		&model.Transaccion{},
		&model.MovimientoStock{},
		&model.CierreCaja{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements. Each statement is
// guarded by an existence check so re-running on a patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// Last line of defense for DescontarStockTx.
		{"check productos.stock_actual >= 0", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_productos_stock_no_negativo') THEN
    ALTER TABLE productos ADD CONSTRAINT chk_productos_stock_no_negativo CHECK (stock_actual >= 0);
  END IF;
END $$`},
		{"check cierres_caja.efectivo_contado >= 0", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cierres_caja_contado_no_negativo') THEN
    ALTER TABLE cierres_caja ADD CONSTRAINT chk_cierres_caja_contado_no_negativo CHECK (efectivo_contado >= 0);
  END IF;
END $$`},
		// One service charge per turno, even under concurrent cobrar-turno calls.
		{"unique ingreso de servicio por turno", `
CREATE UNIQUE INDEX IF NOT EXISTS uni_transacciones_turno_ingreso_servicio
    ON transacciones (turno_id)
 WHERE tipo = 'INGRESO_SERVICIO' AND turno_id IS NOT NULL`},
		// Partial index for the pending-charge query.
		{"idx turnos pendientes de cobro", `
CREATE INDEX IF NOT EXISTS idx_turnos_pendientes_cobro
    ON turnos (fecha_hora_inicio)
 WHERE estado = 'COMPLETADO' AND estado_pago <> 'PAGADO'`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
