package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resumekit/internal/config"
)

// InitDatabase 根据配置打开 SQLite 或 PostgreSQL 连接，返回 GORM 数据库实例。
// TranslateError 开启后，驱动的唯一约束冲突会统一映射为 gorm.ErrDuplicatedKey。
func InitDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap db: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func openDialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		// _fk=1 打开外键约束，关联表的级联删除与 SET NULL 依赖它。
		return sqlite.Open(fmt.Sprintf("%s?_fk=1&_journal_mode=WAL", cfg.Path)), nil
	case config.DriverPostgres:
		return postgres.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate 为全部模型执行自动迁移。
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&SkillCategory{},
		&Skill{},
		&Experience{},
		&Education{},
		&Project{},
		&Contact{},
		&Social{},
		&Resume{},
		&ResumeSkill{},
		&ResumeExperience{},
		&ResumeEducation{},
		&ResumeProject{},
	)
}
