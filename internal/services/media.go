package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	FolderProjects = "projects"
	FolderProfile  = "profile"
)

// Upload is one file handed to object storage.
type Upload struct {
	Folder       string
	ResourceType string
	Filename     string
	ContentType  string
	Body         io.Reader
}

// Asset is what object storage returns for a stored file.
type Asset struct {
	URL       string `json:"url"`
	StorageID string `json:"public_id"`
	Bytes     int64  `json:"bytes"`
	SHA256    string `json:"sha256,omitempty"`
}

type MediaStore interface {
	Upload(ctx context.Context, upload Upload) (Asset, error)
}

func cleanFolder(folder string) (string, error) {
	folder = strings.TrimSpace(folder)
	if folder == "" || folder == "." || folder == ".." || strings.ContainsAny(folder, `/\`) {
		return "", ErrBadRequest("invalid upload folder")
	}
	return folder, nil
}

func EnsureStoragePath(base string, folder string) (string, error) {
	dir := filepath.Join(base, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// LocalMediaStore keeps uploads on disk under BasePath/<folder>/<key>.
type LocalMediaStore struct {
	BasePath      string
	PublicBaseURL string
}

func (s LocalMediaStore) Upload(ctx context.Context, upload Upload) (Asset, error) {
	folder, err := cleanFolder(upload.Folder)
	if err != nil {
		return Asset{}, err
	}
	dir, err := EnsureStoragePath(s.BasePath, folder)
	if err != nil {
		return Asset{}, err
	}
	key := uuid.NewString() + strings.ToLower(filepath.Ext(upload.Filename))
	target := filepath.Join(dir, key)

	file, err := os.Create(target)
	if err != nil {
		return Asset{}, err
	}
	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(file, hasher), upload.Body)
	_ = file.Close()
	if err != nil {
		_ = os.Remove(target)
		return Asset{}, err
	}
	if size == 0 {
		_ = os.Remove(target)
		return Asset{}, ErrBadRequest("The uploaded file is empty.")
	}
	storageID := folder + "/" + key
	return Asset{
		URL:       s.PublicBaseURL + BuildAssetURL(storageID),
		StorageID: storageID,
		Bytes:     size,
		SHA256:    hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// Open returns the stored file for a storage id produced by Upload.
func (s LocalMediaStore) Open(folder, key string) (*os.File, error) {
	folder, err := cleanFolder(folder)
	if err != nil {
		return nil, err
	}
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return nil, ErrNotFound("file not found")
	}
	file, err := os.Open(filepath.Join(s.BasePath, folder, key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound("file not found")
	}
	return file, err
}

func BuildAssetURL(storageID string) string {
	return "/media/" + storageID
}

// CloudinaryStore performs unsigned preset uploads.
type CloudinaryStore struct {
	CloudName    string
	UploadPreset string
	BaseURL      string
	Client       *http.Client
}

// cleanResourceType limits the upload URL segment to the resource types
// Cloudinary accepts.
func cleanResourceType(resourceType string) (string, error) {
	switch resourceType = strings.TrimSpace(resourceType); resourceType {
	case "":
		return "auto", nil
	case "image", "video", "raw", "auto":
		return resourceType, nil
	}
	return "", ErrBadRequest("resource_type must be one of: image, video, raw, auto")
}

func (s CloudinaryStore) endpoint(resourceType string) string {
	base := s.BaseURL
	if base == "" {
		base = "https://api.cloudinary.com"
	}
	return fmt.Sprintf("%s/v1_1/%s/%s/upload", strings.TrimRight(base, "/"), s.CloudName, resourceType)
}

func (s CloudinaryStore) Upload(ctx context.Context, upload Upload) (Asset, error) {
	folder, err := cleanFolder(upload.Folder)
	if err != nil {
		return Asset{}, err
	}
	resourceType, err := cleanResourceType(upload.ResourceType)
	if err != nil {
		return Asset{}, err
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	_ = writer.WriteField("upload_preset", s.UploadPreset)
	_ = writer.WriteField("folder", folder)
	part, err := writer.CreateFormFile("file", filepath.Base(upload.Filename))
	if err != nil {
		return Asset{}, err
	}
	size, err := io.Copy(part, upload.Body)
	if err != nil {
		return Asset{}, err
	}
	if size == 0 {
		return Asset{}, ErrBadRequest("The uploaded file is empty.")
	}
	if err := writer.Close(); err != nil {
		return Asset{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(resourceType), &body)
	if err != nil {
		return Asset{}, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Asset{}, WrapError(err, "cloudinary upload")
	}
	defer resp.Body.Close()

	var payload struct {
		SecureURL string `json:"secure_url"`
		PublicID  string `json:"public_id"`
		Bytes     int64  `json:"bytes"`
		Error     struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Asset{}, WrapError(err, "cloudinary response")
	}
	if resp.StatusCode >= 300 {
		msg := payload.Error.Message
		if msg == "" {
			msg = resp.Status
		}
		return Asset{}, ServiceError{Status: http.StatusBadGateway, Message: "upload failed: " + msg}
	}
	return Asset{URL: payload.SecureURL, StorageID: payload.PublicID, Bytes: payload.Bytes}, nil
}
