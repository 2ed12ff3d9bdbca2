package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chronon/photochron/internal/pkg/validate"
)

var (
	ErrInvalidMetadata      = errors.New("invalid metadata")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file too large")
	ErrBlobStoreUnavailable = errors.New("blob store unavailable")
	ErrBlobStoreRejected    = errors.New("blob store rejected request")
	ErrMetadataWriteFailed  = errors.New("failed to save image metadata")
	ErrInvalidAssetID       = errors.New("invalid image id")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("image not found")
	ErrMetadataDeleteFailed = errors.New("failed to delete image metadata")
)

const (
	maxFileSizeMB    = 10
	maxFileSizeBytes = maxFileSizeMB << 20
	pageSize         = 15
)

var allowedExtensions = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {}, "heic": {}, "svg": {},
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// AssetRecord is one row of the images table. The row is authoritative
// for ownership; the blob-store object carries no access control of its
// own.
type AssetRecord struct {
	ID       string
	Username string
	Name     string
	Caption  string
	Captured time.Time
	Uploaded time.Time
}

// MetadataStore is the relational side of the dual-store write. Point
// lookups return ErrNotFound when no row matches.
type MetadataStore interface {
	Insert(ctx context.Context, rec AssetRecord) error
	GetByIDForTenant(ctx context.Context, id, username string) (AssetRecord, error)
	GetByID(ctx context.Context, id string) (AssetRecord, error)
	GetByName(ctx context.Context, username, name string) (AssetRecord, error)
	Delete(ctx context.Context, id, username string) (int64, error)
	ListPage(ctx context.Context, username string, limit, offset int) ([]AssetRecord, error)
}

type BlobUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	Metadata    map[string]string
}

type BlobInfo struct {
	ID       string
	Filename string
}

// BlobStore is the external binary store. Implementations return
// ErrBlobStoreUnavailable for transport failures and ErrBlobStoreRejected
// for non-success responses.
type BlobStore interface {
	Upload(ctx context.Context, up BlobUpload) (BlobInfo, error)
	Delete(ctx context.Context, id string) error
}

// Service runs the media write pipelines over two stores with no shared
// coordinator. Uploads write the blob first so that the surviving half of
// a partial failure is an inert orphaned blob rather than a user-visible
// broken image.
type Service struct {
	store MetadataStore
	blobs BlobStore
	log   *zap.Logger
	now   func() time.Time
}

func NewService(store MetadataStore, blobs BlobStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store: store,
		blobs: blobs,
		log:   log,
		now:   time.Now,
	}
}

// Metadata is the caller-supplied description of an upload.
type Metadata struct {
	Name     string
	Caption  string
	Captured time.Time
}

type UploadInput struct {
	Filename     string
	ContentType  string
	Size         int64
	Body         io.Reader
	MetadataJSON string
}

type UploadResult struct {
	ID             string
	StoredFilename string
	Uploaded       time.Time
}

// Upload validates the file and metadata, writes the blob, then inserts
// the metadata row. Validation failures have no side effects. An insert
// failure after a successful blob write leaves an orphaned blob: it is
// logged for manual cleanup and never rolled back automatically, since a
// failed rollback would leave ambiguous state.
func (s *Service) Upload(ctx context.Context, username string, in UploadInput) (UploadResult, error) {
	if s.store == nil || s.blobs == nil {
		return UploadResult{}, fmt.Errorf("media dependencies are not configured")
	}

	meta, err := parseMetadata(in.MetadataJSON)
	if err != nil {
		return UploadResult{}, err
	}

	ext, err := fileExtension(in.Filename)
	if err != nil {
		return UploadResult{}, err
	}

	if in.Size > maxFileSizeBytes {
		return UploadResult{}, fmt.Errorf("%w: %.2f MB, maximum %d MB",
			ErrFileTooLarge, float64(in.Size)/1024/1024, maxFileSizeMB)
	}

	uploaded := s.now().UTC()
	storedFilename := fmt.Sprintf("%s_%s.%s", username, sanitizeAssetName(meta.Name), ext)

	blobMetadata := map[string]string{
		"name":     meta.Name,
		"captured": meta.Captured.Format(time.RFC3339),
		"username": username,
		"uploaded": uploaded.Format(time.RFC3339),
	}
	if meta.Caption != "" {
		blobMetadata["caption"] = meta.Caption
	}

	info, err := s.blobs.Upload(ctx, BlobUpload{
		Filename:    storedFilename,
		ContentType: in.ContentType,
		Size:        in.Size,
		Body:        in.Body,
		Metadata:    blobMetadata,
	})
	if err != nil {
		// Nothing has been persisted yet, fully recoverable.
		return UploadResult{}, fmt.Errorf("upload blob: %w", err)
	}

	rec := AssetRecord{
		ID:       info.ID,
		Username: username,
		Name:     meta.Name,
		Caption:  meta.Caption,
		Captured: meta.Captured,
		Uploaded: uploaded,
	}

	// The blob exists now. Run the insert to completion even if the
	// client disconnects, otherwise an abort mid-write would orphan the
	// blob without the failure below ever being observed.
	if err := s.store.Insert(context.WithoutCancel(ctx), rec); err != nil {
		s.log.Error("orphaned blob needs manual cleanup",
			zap.String("event", "orphaned_blob"),
			zap.String("image_id", info.ID),
			zap.String("tenant", username),
			zap.String("operation", "upload"),
			zap.Error(err),
		)
		return UploadResult{}, fmt.Errorf("%w: %v", ErrMetadataWriteFailed, err)
	}

	return UploadResult{ID: info.ID, StoredFilename: storedFilename, Uploaded: uploaded}, nil
}

type DeleteResult struct {
	ID              string
	MetadataDeleted bool
	BlobDeleted     bool
	Warning         string
}

// Delete verifies ownership, removes the metadata row, then best-effort
// deletes the blob. Once the row is gone the asset is deleted from the
// tenant's perspective; a blob-store failure afterwards only produces a
// warning for later reconciliation.
func (s *Service) Delete(ctx context.Context, username, assetID string) (DeleteResult, error) {
	if s.store == nil || s.blobs == nil {
		return DeleteResult{}, fmt.Errorf("media dependencies are not configured")
	}

	id := strings.TrimSpace(assetID)
	if !validate.Required(id) {
		return DeleteResult{}, ErrInvalidAssetID
	}

	if _, err := s.store.GetByIDForTenant(ctx, id, username); err != nil {
		if !errors.Is(err, ErrNotFound) {
			return DeleteResult{}, fmt.Errorf("verify image ownership: %w", err)
		}

		owner, lookupErr := s.store.GetByID(ctx, id)
		if lookupErr == nil {
			// The owning tenant stays server-side, never in the response.
			s.log.Warn("cross-tenant delete attempt",
				zap.String("image_id", id),
				zap.String("tenant", username),
				zap.String("owner", owner.Username),
			)
			return DeleteResult{}, ErrForbidden
		}
		if errors.Is(lookupErr, ErrNotFound) {
			return DeleteResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return DeleteResult{}, fmt.Errorf("check image existence: %w", lookupErr)
	}

	affected, err := s.store.Delete(ctx, id, username)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("%w: %v", ErrMetadataDeleteFailed, err)
	}
	if affected == 0 {
		return DeleteResult{}, fmt.Errorf("%w: no rows deleted for %s", ErrMetadataDeleteFailed, id)
	}

	result := DeleteResult{ID: id, MetadataDeleted: true}

	if err := s.blobs.Delete(ctx, id); err != nil {
		s.log.Error("blob deletion failed after metadata delete",
			zap.String("event", "orphaned_blob"),
			zap.String("image_id", id),
			zap.String("tenant", username),
			zap.String("operation", "delete"),
			zap.Error(err),
		)
		result.Warning = fmt.Sprintf("failed to delete from storage: %v", err)
		return result, nil
	}

	result.BlobDeleted = true
	return result, nil
}

// ListPage returns one DESC-ordered page of the tenant's gallery plus a
// flag for whether more rows follow, derived by fetching one extra row.
func (s *Service) ListPage(ctx context.Context, username string, offset int) ([]AssetRecord, bool, error) {
	if s.store == nil {
		return nil, false, fmt.Errorf("media dependencies are not configured")
	}
	if offset < 0 {
		offset = 0
	}

	records, err := s.store.ListPage(ctx, username, pageSize+1, offset)
	if err != nil {
		return nil, false, fmt.Errorf("list images: %w", err)
	}

	hasMore := len(records) > pageSize
	if hasMore {
		records = records[:pageSize]
	}
	return records, hasMore, nil
}

func (s *Service) GetByName(ctx context.Context, username, name string) (AssetRecord, error) {
	if s.store == nil {
		return AssetRecord{}, fmt.Errorf("media dependencies are not configured")
	}
	if !validate.Required(name) {
		return AssetRecord{}, fmt.Errorf("%w: empty name", ErrNotFound)
	}

	rec, err := s.store.GetByName(ctx, username, strings.TrimSpace(name))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return AssetRecord{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return AssetRecord{}, fmt.Errorf("lookup image by name: %w", err)
	}
	return rec, nil
}

func PageSize() int {
	return pageSize
}

func parseMetadata(raw string) (Metadata, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Metadata{}, fmt.Errorf("%w: not a JSON object", ErrInvalidMetadata)
	}

	name, ok := fields["name"].(string)
	if !ok || !validate.Required(name) {
		return Metadata{}, fmt.Errorf("%w: missing or invalid name", ErrInvalidMetadata)
	}

	capturedRaw, ok := fields["captured"].(string)
	if !ok {
		return Metadata{}, fmt.Errorf("%w: missing or invalid captured date", ErrInvalidMetadata)
	}
	captured, err := time.Parse(time.RFC3339, capturedRaw)
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: captured date is not ISO8601", ErrInvalidMetadata)
	}

	meta := Metadata{Name: name, Captured: captured}
	if captionRaw, ok := fields["caption"]; ok {
		caption, ok := captionRaw.(string)
		if !ok {
			return Metadata{}, fmt.Errorf("%w: caption must be a string", ErrInvalidMetadata)
		}
		meta.Caption = caption
	}

	return meta, nil
}

func fileExtension(filename string) (string, error) {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 || idx == len(filename)-1 {
		return "", fmt.Errorf("%w: no file extension", ErrUnsupportedFileType)
	}

	ext := strings.ToLower(filename[idx+1:])
	if _, ok := allowedExtensions[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}
	return ext, nil
}

// sanitizeAssetName keeps stored filenames free of path traversal and
// header injection characters before they reach the external store.
func sanitizeAssetName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}
