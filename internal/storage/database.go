package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"resume-match-go/internal/config"
	"resume-match-go/internal/storage/models"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateAnalysis 候选人已有分析结果，不允许重复分析
	ErrDuplicateAnalysis = errors.New("candidate already has an analysis result")
	// ErrInvalidEmail 邮箱格式不合法
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidInput 必填字段缺失或取值越界
	ErrInvalidInput = errors.New("invalid input")
)

// Database 关系数据库，承载岗位、候选人、分析结果和 outbox
type Database struct {
	db     *gorm.DB
	driver string
	name   string
}

// NewDatabase 按配置打开 sqlite 或 mysql 并自动迁移
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	if cfg == nil {
		return nil, fmt.Errorf("数据库配置不能为空")
	}

	var (
		dialector gorm.Dialector
		name      string
	)
	switch cfg.Driver {
	case "", "sqlite":
		dsn, dbName := sqliteDSN(cfg)
		dialector, name = sqlite.Open(dsn), dbName
	case "mysql":
		dialector, name = mysql.Open(mysqlDSN(cfg)), cfg.MySQL.Database
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", cfg.Driver)
	}

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		PrepareStmt:    true,
		TranslateError: true, // 唯一约束冲突转成 gorm.ErrDuplicatedKey
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	if cfg.Driver == "mysql" {
		sqlDB.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MySQL.ConnMaxLifetimeMinutes) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.MySQL.ConnMaxIdleTimeMinutes) * time.Minute)
	} else {
		// sqlite 单写者，串行化连接避免 database is locked
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	}

	d := &Database{db: db, driver: driverName(cfg.Driver), name: name}

	if err := db.Use(NewGormTracingPlugin(d.driver, name)); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	if err := d.autoMigrateSchema(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	log.Info().Str("driver", d.driver).Str("database", name).Msg("成功连接到数据库并完成迁移")
	return d, nil
}

func driverName(driver string) string {
	if driver == "" {
		return "sqlite"
	}
	return driver
}

func sqliteDSN(cfg *config.DatabaseConfig) (dsn string, name string) {
	if cfg.DSN != "" {
		return cfg.DSN, "sqlite"
	}
	path := cfg.SQLite.Path
	if path == "" || path == ":memory:" {
		// 每个实例独立的共享缓存内存库
		name = "mem_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name), name
	}
	return fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", path), path
}

func mysqlDSN(cfg *config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	m := cfg.MySQL
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		m.Username, m.Password, m.Host, m.Port, m.Database,
		m.ConnectTimeoutSeconds, m.ReadTimeoutSeconds, m.WriteTimeoutSeconds)
}

func gormLogLevel(level int) logger.LogLevel {
	switch level {
	case 1:
		return logger.Silent
	case 2:
		return logger.Error
	case 3:
		return logger.Warn
	case 4:
		return logger.Info
	default:
		return logger.Warn
	}
}

// autoMigrateSchema 迁移期间关闭 SQL 日志
func (d *Database) autoMigrateSchema() error {
	silentDB := d.db.Session(&gorm.Session{Logger: logger.Default.LogMode(logger.Silent)})

	err := silentDB.AutoMigrate(
		&models.Job{},
		&models.Candidate{},
		&models.AnalysisResult{},
		&models.OutboxMessage{},
	)
	if err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Transaction 在事务中执行 fn，fn 内只能使用传入的 tx
func (d *Database) Transaction(ctx context.Context, fn func(tx *Database) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Database{db: tx, driver: d.driver, name: d.name})
	})
}

// Driver sqlite 或 mysql
func (d *Database) Driver() string {
	return d.driver
}

// Ping 检查数据库连接
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭数据库连接
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// translateError 统一转换 gorm 错误
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}
