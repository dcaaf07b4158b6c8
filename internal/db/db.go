package db

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/JongGun06/dialx-back/internal/aichar"
	"github.com/JongGun06/dialx-back/internal/chat"
	"github.com/JongGun06/dialx-back/internal/models"
)

func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	return gdb
}

// Migrate is split out so tests can run it against in-memory sqlite.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&chat.Chat{},
		&chat.Participant{},
		&chat.Message{},
		&aichar.Character{},
		&aichar.Message{},
	)
}
