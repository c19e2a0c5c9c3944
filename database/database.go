package database

import (
	"strings"

	"github.com/vicradon/ytfetch/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the history database. "sqlite://path" selects sqlite, anything
// else is handed to the postgres driver.
func Init(dsn string) error {
	var dialector gorm.Dialector
	if path, ok := strings.CutPrefix(dsn, "sqlite://"); ok {
		dialector = sqlite.Open(path)
	} else {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(&models.Download{}); err != nil {
		return err
	}

	DB = db
	return nil
}

func LoadDownloads() ([]models.Download, error) {
	var downloads []models.Download
	if DB == nil {
		return downloads, nil
	}
	result := DB.Order("start_time desc").Find(&downloads)
	return downloads, result.Error
}

func SaveDownload(download *models.Download) error {
	if DB == nil {
		return nil
	}
	return DB.Save(download).Error
}
