// Package testutil provides shared test doubles and fixtures for tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"sync/atomic"
	"testing"

	"yatube/internal/database"
	"yatube/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SmallGIF is a valid 2x1 GIF image.
var SmallGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x02, 0x00,
	0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00,
	0x02, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x0C,
	0x0A, 0x00, 0x3B,
}

var dbSeq atomic.Int64

// NewSQLiteDB opens a private in-memory sqlite database with the full schema.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_foreign_keys=on", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// MultipartFile is a file part for MultipartBody.
type MultipartFile struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// MultipartBody encodes fields and files as multipart/form-data and returns
// the body plus its Content-Type header value.
func MultipartBody(t testing.TB, fields map[string]string, files ...MultipartFile) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.Field, f.Filename))
		if f.ContentType != "" {
			h.Set("Content-Type", f.ContentType)
		}
		part, err := w.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(f.Content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return body, w.FormDataContentType()
}

// GroupRepoStub is an in-memory group lookup for form tests.
type GroupRepoStub struct {
	items map[uint]*models.Group
	Err   error
}

// NewGroupRepoStub creates a stub holding groups.
func NewGroupRepoStub(groups ...models.Group) *GroupRepoStub {
	s := &GroupRepoStub{items: make(map[uint]*models.Group)}
	for i := range groups {
		g := groups[i]
		s.items[g.ID] = &g
	}
	return s
}

// GetByID fetches a group by ID.
func (s *GroupRepoStub) GetByID(_ context.Context, id uint) (*models.Group, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	g, ok := s.items[id]
	if !ok {
		return nil, models.NewNotFoundError("Group", id)
	}
	return g, nil
}
