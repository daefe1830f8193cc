package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"LinkHub_Backend/internal/apperr"
)

const (
	defaultAvatarMaxBytes = 5 << 20
	defaultAvatarSize     = 400
	defaultAvatarPixels   = 25_000_000
	// maxAvatarSide bounds each edge regardless of MaxPixels
	maxAvatarSide     = 16384
	avatarJPEGQuality = 90
)

// AvatarOptions tunes avatar processing.
type AvatarOptions struct {
	// MaxBytes is the largest accepted upload.
	MaxBytes int64
	// Size is the edge length in pixels of the stored square avatar.
	Size int
	// MaxPixels caps width*height of the decoded upload; a small file can declare a huge canvas.
	MaxPixels int64
}

func (o AvatarOptions) withDefaults() AvatarOptions {
	if o.MaxBytes <= 0 {
		o.MaxBytes = defaultAvatarMaxBytes
	}
	if o.Size <= 0 {
		o.Size = defaultAvatarSize
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = defaultAvatarPixels
	}
	return o
}

// AvatarUpload is a file handed over by the upload layer.
type AvatarUpload struct {
	Filename string
	Body     io.Reader
}

type processedAvatar struct {
	key         string
	contentType string
	data        []byte
}

// processAvatar decodes the upload, crops it to a centered square and re-encodes it.
// PNG and GIF input is kept lossless as PNG, everything else becomes JPEG.
func processAvatar(upload *AvatarUpload, opts AvatarOptions) (*processedAvatar, error) {
	raw, err := io.ReadAll(io.LimitReader(upload.Body, opts.MaxBytes+1))
	if err != nil {
		return nil, apperr.NewInternal("failed to read upload", err)
	}
	if len(raw) == 0 {
		return nil, apperr.NewValidation("No file uploaded")
	}
	if int64(len(raw)) > opts.MaxBytes {
		return nil, apperr.NewValidation(fmt.Sprintf("File is too large (max %s)", humanize.IBytes(uint64(opts.MaxBytes))))
	}

	// header only; the full decode allocates width*height*4 bytes
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, apperr.NewValidation("Uploaded file is not a supported image")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxAvatarSide || cfg.Height > maxAvatarSide ||
		int64(cfg.Width)*int64(cfg.Height) > opts.MaxPixels {
		return nil, apperr.NewValidation(fmt.Sprintf("Image dimensions %dx%d are too large (max %s pixels)",
			cfg.Width, cfg.Height, humanize.Comma(opts.MaxPixels)))
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, apperr.NewValidation("Uploaded file is not a supported image")
	}

	square := imaging.Fill(img, opts.Size, opts.Size, imaging.Center, imaging.Lanczos)

	format, contentType, ext := imaging.JPEG, "image/jpeg", ".jpg"
	switch http.DetectContentType(raw) {
	case "image/png", "image/gif":
		format, contentType, ext = imaging.PNG, "image/png", ".png"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, square, format, imaging.JPEGQuality(avatarJPEGQuality)); err != nil {
		return nil, apperr.NewInternal("failed to encode avatar", err)
	}

	return &processedAvatar{
		key:         uuid.New().String() + ext,
		contentType: contentType,
		data:        buf.Bytes(),
	}, nil
}
