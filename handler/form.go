package handler

import (
	"mime/multipart"

	"main/usecase"

	"github.com/gin-gonic/gin"
)

// formUpload opens a multipart file field as an upload. The returned closer
// must be deferred by the caller.
func formUpload(c *gin.Context, field string) (*usecase.Upload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}

	return &usecase.Upload{
		Name:        header.Filename,
		ContentType: contentType(header),
		Body:        file,
	}, func() { file.Close() }, nil
}

func contentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
