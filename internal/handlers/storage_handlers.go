package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/01moynul/brandstudio-golang/internal/models"
	"github.com/01moynul/brandstudio-golang/internal/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handlers) bucketParam(c *gin.Context) (string, bool) {
	bucket := c.Param("bucket")
	if !storage.ValidBucket(bucket) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Espace de stockage inconnu"})
		return "", false
	}
	return bucket, true
}

// UploadObject is the handler for POST /v1/storage/:bucket (multipart "file").
func (h *Handlers) UploadObject(c *gin.Context) {
	bucket, ok := h.bucketParam(c)
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Aucun fichier reçu"})
		return
	}
	if header.Size > storage.MaxObjectSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Fichier trop volumineux (10 Mo maximum)"})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.serverError(c, "open upload", err)
		return
	}
	defer file.Close()

	workspaceID := c.GetInt64("workspaceID")
	saved, err := h.Storage.Save(bucket, workspaceID, header.Filename, file)
	switch {
	case errors.Is(err, storage.ErrUnsupportedType):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "Type de fichier non accepté (images ou PDF)"})
		return
	case errors.Is(err, storage.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Fichier trop volumineux (10 Mo maximum)"})
		return
	case err != nil:
		h.serverError(c, "save upload", err)
		return
	}

	obj := &models.StorageObject{
		WorkspaceID:  workspaceID,
		Bucket:       bucket,
		Path:         saved.Path,
		OriginalName: header.Filename,
		ContentType:  saved.ContentType,
		SizeBytes:    saved.Size,
		CreatedAt:    time.Now(),
	}
	res, err := h.DB.ExecContext(c.Request.Context(), `
		INSERT INTO storage_objects (workspace_id, bucket, path, original_name, content_type, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		obj.WorkspaceID, obj.Bucket, obj.Path, obj.OriginalName, obj.ContentType, obj.SizeBytes, obj.CreatedAt)
	if err != nil {
		if rmErr := h.Storage.Delete(bucket, saved.Path); rmErr != nil {
			h.Log.Warn("orphan object left on disk", zap.String("path", saved.Path), zap.Error(rmErr))
		}
		h.serverError(c, "insert storage object", err)
		return
	}
	if obj.ID, err = res.LastInsertId(); err != nil {
		h.serverError(c, "storage object id", err)
		return
	}
	if obj.SignedURL, err = h.Storage.SignedURL(bucket, obj.Path); err != nil {
		h.serverError(c, "sign object url", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"object": obj})
}

// GetObjects is the handler for GET /v1/storage/:bucket.
// Every object comes with a fresh signed URL.
func (h *Handlers) GetObjects(c *gin.Context) {
	bucket, ok := h.bucketParam(c)
	if !ok {
		return
	}

	rows, err := h.DB.QueryContext(c.Request.Context(), `
		SELECT id, workspace_id, bucket, path, original_name, content_type, size_bytes, created_at
		FROM storage_objects WHERE workspace_id = ? AND bucket = ?
		ORDER BY created_at DESC, id DESC`, c.GetInt64("workspaceID"), bucket)
	if err != nil {
		h.serverError(c, "list storage objects", err)
		return
	}
	defer rows.Close()

	objects := []*models.StorageObject{}
	for rows.Next() {
		var o models.StorageObject
		if err := rows.Scan(&o.ID, &o.WorkspaceID, &o.Bucket, &o.Path, &o.OriginalName,
			&o.ContentType, &o.SizeBytes, &o.CreatedAt); err != nil {
			h.serverError(c, "scan storage object", err)
			return
		}
		if o.SignedURL, err = h.Storage.SignedURL(o.Bucket, o.Path); err != nil {
			h.serverError(c, "sign object url", err)
			return
		}
		objects = append(objects, &o)
	}
	if err := rows.Err(); err != nil {
		h.serverError(c, "iterate storage objects", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"objects": objects})
}

// DeleteObject is the handler for DELETE /v1/storage/:bucket/:id
func (h *Handlers) DeleteObject(c *gin.Context) {
	bucket, ok := h.bucketParam(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var path string
	err := h.DB.QueryRowContext(ctx,
		"SELECT path FROM storage_objects WHERE id = ? AND workspace_id = ? AND bucket = ?",
		id, c.GetInt64("workspaceID"), bucket).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fichier introuvable"})
		return
	}
	if err != nil {
		h.serverError(c, "load storage object", err)
		return
	}

	if _, err := h.DB.ExecContext(ctx, "DELETE FROM storage_objects WHERE id = ?", id); err != nil {
		h.serverError(c, "delete storage object", err)
		return
	}
	if err := h.Storage.Delete(bucket, path); err != nil {
		h.Log.Warn("failed to remove object file", zap.String("path", path), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"message": "Fichier supprimé"})
}

// ServeObject is the handler for GET /v1/files/:bucket/*path?token=.
// It is public: the signed token is the authorization.
func (h *Handlers) ServeObject(c *gin.Context) {
	bucket, ok := h.bucketParam(c)
	if !ok {
		return
	}
	name := strings.TrimPrefix(c.Param("path"), "/")

	if err := h.Storage.Verify(bucket, name, c.Query("token")); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Lien expiré ou invalide"})
		return
	}

	f, err := h.Storage.Open(bucket, name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fichier introuvable"})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.serverError(c, "stat object", err)
		return
	}
	c.Header("Cache-Control", "private, max-age=300")
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}
