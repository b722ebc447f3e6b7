package services

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"image"
	"io"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/filex"
	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/contactbook/internal/server/storage"
)

type AvatarService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.AvatarStore
	size        int
	maxEdge     int
	log         logging.Logger
	now         func() time.Time
}

// NewAvatarService crops uploads to size x size. Uploads wider or taller than
// maxEdge are refused before any pixel is decoded.
func NewAvatarService(db *sql.DB, m repomanager.RepositoryManager, store storage.AvatarStore, size, maxEdge int, log logging.Logger) *AvatarService {
	return &AvatarService{
		db:          db,
		repomanager: m,
		store:       store,
		size:        size,
		maxEdge:     maxEdge,
		log:         log,
		now:         time.Now,
	}
}

// Ingest turns the uploaded file at tmpPath into a size x size PNG, stores
// it and points the account at it. tmpPath is removed whatever the outcome.
// Files that do not decode as images fail with common.ErrorValidation and
// leave the account untouched.
func (s *AvatarService) Ingest(ctx context.Context, user *models.User, tmpPath string) (string, error) {
	if user == nil {
		return "", common.ErrorUnauthorized
	}
	if tmpPath == "" {
		return "", fmt.Errorf("%w: no file uploaded", common.ErrorValidation)
	}
	defer func() {
		if err := filex.RemoveIfExists(tmpPath); err != nil {
			s.log.Warn(ctx, "temp upload not removed", "path", tmpPath, "error", err)
		}
	}()

	img, err := s.decode(tmpPath)
	if err != nil {
		return "", err
	}

	img = imaging.Fill(img, s.size, s.size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("error encoding avatar: %w", err)
	}

	name := fmt.Sprintf("%s-%d.png", user.ID, s.now().UnixMilli())
	avatarURL, err := s.store.Save(ctx, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		return "", fmt.Errorf("error storing avatar: %w", err)
	}

	if err := s.repomanager.Users(s.db).SetAvatarURL(ctx, user.ID, avatarURL); err != nil {
		if derr := s.store.Delete(ctx, name); derr != nil {
			s.log.Error(ctx, "orphaned avatar not deleted", "name", name, "error", derr)
		}
		return "", fmt.Errorf("error updating avatar url: %w", err)
	}
	user.AvatarURL = avatarURL

	s.log.Info(ctx, "avatar updated", "user_id", user.ID, "name", name)
	return avatarURL, nil
}

// decode reads the image header first so oversized uploads never get a
// pixel buffer.
func (s *AvatarService) decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening upload: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported image: %v", common.ErrorValidation, err)
	}
	if cfg.Width > s.maxEdge || cfg.Height > s.maxEdge {
		return nil, fmt.Errorf("%w: image is %dx%d, at most %dx%d allowed",
			common.ErrorValidation, cfg.Width, cfg.Height, s.maxEdge, s.maxEdge)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error rewinding upload: %w", err)
	}
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported image: %v", common.ErrorValidation, err)
	}
	return img, nil
}
