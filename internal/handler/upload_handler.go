package handler

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

const maxUploadBytes = 5 << 20

var uploadExtensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
	"webp": ".webp",
}

// UploadImage 保存封面图片并返回访问地址与尺寸。
func (a *API) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		file, err = c.FormFile("file")
	}
	if err != nil {
		respondError(c, http.StatusBadRequest, "image file is required")
		return
	}
	if file.Size > maxUploadBytes {
		respondError(c, http.StatusBadRequest, "image must be 5MB or smaller")
		return
	}

	src, err := file.Open()
	if err != nil {
		respondServiceError(c, err, "failed to read upload")
		return
	}
	cfg, format, err := image.DecodeConfig(src)
	src.Close()
	if err != nil {
		respondError(c, http.StatusBadRequest, "only png, jpeg, gif and webp images are allowed")
		return
	}
	ext, ok := uploadExtensions[format]
	if !ok {
		respondError(c, http.StatusBadRequest, "only png, jpeg, gif and webp images are allowed")
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		respondServiceError(c, err, "failed to create upload directory")
		return
	}

	name := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.NewString(), ext)
	if err := c.SaveUploadedFile(file, filepath.Join(a.uploadDir, name)); err != nil {
		respondServiceError(c, err, "failed to save upload")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":    strings.TrimRight(a.uploadURL, "/") + "/" + name,
		"width":  cfg.Width,
		"height": cfg.Height,
	})
}
