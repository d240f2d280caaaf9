package devserver

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StorageUpload handles POST /storage/:bucket/:key. Re-uploading a key
// overwrites the object.
func (s *Server) StorageUpload(c *fiber.Ctx) error {
	bucket := c.Params("bucket")
	key := c.Params("key")
	data := c.Body()
	if len(data) == 0 {
		return respondStatus(c, fiber.StatusBadRequest, "Empty object body")
	}

	row := ObjectRow{
		Bucket:      bucket,
		Key:         key,
		ContentType: c.Get("Content-Type", "application/octet-stream"),
		Data:        append([]byte(nil), data...),
	}
	err := s.db.WithContext(c.Context()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "bucket"}, {Name: "key"}},
			UpdateAll: true,
		}).
		Create(&row).Error
	if err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Store failed")
	}
	return c.SendStatus(fiber.StatusCreated)
}

// StorageServe handles GET /storage/:bucket/:key.
func (s *Server) StorageServe(c *fiber.Ctx) error {
	var row ObjectRow
	err := s.db.WithContext(c.Context()).
		Where("bucket = ? AND key = ?", c.Params("bucket"), c.Params("key")).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respondStatus(c, fiber.StatusNotFound, "Object not found")
	}
	if err != nil {
		return respondStatus(c, fiber.StatusInternalServerError, "Read failed")
	}

	c.Set("Content-Type", row.ContentType)
	return c.Send(row.Data)
}
