package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pregador/config"
	"pregador/models"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
	"go.uber.org/zap"
)

var conf config.Configuration

func SetConfigurations(configuration config.Configuration) {
	conf = configuration
}

// Connect abre conexão com DB (sqlite3 por padrão) e, se configurado, faz automigrate.
func Connect() (*gorm.DB, error) {
	database := conf.Database
	if database == "" {
		database = "sqlite3"
	}

	var (
		db  *gorm.DB
		err error
	)

	if database == "postgres" || database == "postgresql" {
		zap.L().Info("utilizando conexão com o postgresql", zap.String("host", conf.DbHost), zap.String("db", conf.DbName))
		path := "host=" + conf.DbHost + " port=" + conf.DbPort
		path += " user=" + conf.DbUser + " dbname=" + conf.DbName
		path += " password=" + conf.DbPass
		db, err = gorm.Open("postgres", path)
	} else {
		zap.L().Info("utilizando conexão com o sqlite3", zap.String("path", conf.DbPath))
		if err := os.MkdirAll(filepath.Dir(conf.DbPath), 0o755); err != nil {
			return nil, err
		}
		db, err = gorm.Open("sqlite3", SQLiteDSN(conf.DbPath))
	}
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.DB().SetMaxOpenConns(20)
	db.DB().SetMaxIdleConns(5)

	if conf.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	return db, nil
}

// SQLiteDSN abre as transações já com a trava de escrita (BEGIN IMMEDIATE)
// e faz as conexões concorrentes esperarem a trava em vez de falhar com SQLITE_BUSY.
func SQLiteDSN(path string) string {
	return path + "?_txlock=immediate&_busy_timeout=5000"
}

// Migrate cria/atualiza as tabelas do domínio.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Plan{},
		&models.Company{},
		&models.User{},
		&models.Invite{},
		&models.Church{},
		&models.Sermon{},
		&models.BibleStudy{},
	).Error
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

func IsPostgres(db *gorm.DB) bool {
	return strings.Contains(strings.ToLower(db.Dialect().GetName()), "postgres")
}

// ForUpdate trava as linhas lidas até o fim da transação (Postgres).
// No SQLite a transação inteira já detém a trava de escrita (ver SQLiteDSN).
func ForUpdate(tx *gorm.DB) *gorm.DB {
	if IsPostgres(tx) {
		return tx.Set("gorm:query_option", "FOR UPDATE")
	}
	return tx
}
