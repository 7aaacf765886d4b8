package db

import (
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const ctxDBKey = "pregador_db"

// SetDBtoContext injeta o pool compartilhado em cada request.
func SetDBtoContext(database *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ctxDBKey, database)
		c.Next()
	}
}

// DBInstance devolve o pool do request; ok=false quando o middleware não rodou.
func DBInstance(c *gin.Context) (*gorm.DB, bool) {
	v, ok := c.Get(ctxDBKey)
	if !ok {
		return nil, false
	}
	database, ok := v.(*gorm.DB)
	return database, ok && database != nil
}
