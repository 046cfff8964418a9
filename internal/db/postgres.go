package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/listforge/listforge-backend/internal/logger"
	"github.com/listforge/listforge-backend/internal/types"
	"github.com/listforge/listforge-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "listforge", log)
	log.Debug("Environment variables loaded")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Project{},
		&types.Product{},
		&types.Agent{},
		&types.BrandKit{},
		&types.BrandKitPreset{},
		&types.Share{},
		&types.CanvasState{},
		&types.AICallLog{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		sql  string
	}{
		{"fk_user_token_user_id", `
			ALTER TABLE "user_token"
			ADD CONSTRAINT "fk_user_token_user_id"
			FOREIGN KEY ("user_id") REFERENCES "user"("id")
			ON DELETE CASCADE`},
		{"fk_product_project_id", `
			ALTER TABLE "product"
			ADD CONSTRAINT "fk_product_project_id"
			FOREIGN KEY ("project_id") REFERENCES "project"("id")
			ON DELETE CASCADE`},
		{"fk_agent_product_id", `
			ALTER TABLE "agent"
			ADD CONSTRAINT "fk_agent_product_id"
			FOREIGN KEY ("product_id") REFERENCES "product"("id")
			ON DELETE CASCADE`},
		{"fk_brand_kit_project_id", `
			ALTER TABLE "brand_kit"
			ADD CONSTRAINT "fk_brand_kit_project_id"
			FOREIGN KEY ("project_id") REFERENCES "project"("id")
			ON DELETE CASCADE`},
		{"fk_share_project_id", `
			ALTER TABLE "share"
			ADD CONSTRAINT "fk_share_project_id"
			FOREIGN KEY ("project_id") REFERENCES "project"("id")
			ON DELETE CASCADE`},
		{"fk_canvas_state_project_id", `
			ALTER TABLE "canvas_state"
			ADD CONSTRAINT "fk_canvas_state_project_id"
			FOREIGN KEY ("project_id") REFERENCES "project"("id")
			ON DELETE CASCADE`},
	}
	for _, c := range constraints {
		var count int64
		s.db.Raw(`SELECT COUNT(*) FROM pg_constraint WHERE conname = ?`, c.name).Scan(&count)
		if count > 0 {
			continue
		}
		if err := s.db.Exec(c.sql).Error; err != nil {
			return fmt.Errorf("Failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
