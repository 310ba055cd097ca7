package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/tumcps/tupli/internal/db/models"
	"github.com/tumcps/tupli/internal/service/iam"
	"github.com/tumcps/tupli/pkg/schema"
)

// StoreArtifact stores a blob under its SHA-256. Re-uploading existing
// bytes returns the stored record unchanged, whoever uploaded it first.
func (s *registryService) StoreArtifact(ctx context.Context, caller *iam.Caller, data []byte, metadata schema.ArtifactMetadata) (schema.ArtifactMetadataItem, error) {
	if !caller.IsSuperuser() && !caller.HasInPersonal(schema.ArtifactCreate) {
		return schema.ArtifactMetadataItem{}, schema.Forbiddenf("Insufficient rights to store artifacts")
	}
	if len(data) == 0 {
		return schema.ArtifactMetadataItem{}, schema.Validationf("artifact data is empty")
	}

	sum := sha256.Sum256(data)
	username := caller.User.Username
	row := &models.Artifact{
		ID:          hex.EncodeToString(sum[:]),
		Name:        metadata.Name,
		Description: metadata.Description,
		CreatedBy:   username,
		PublishedIn: []string{username},
	}
	stored, err := s.artifacts.CreateWithBlob(ctx, row, data)
	if err != nil {
		return schema.ArtifactMetadataItem{}, err
	}
	return stored.ToSchema(), nil
}

// LoadArtifact returns metadata and blob. An existing artifact the
// caller has no read right on is forbidden, not missing.
func (s *registryService) LoadArtifact(ctx context.Context, caller *iam.Caller, id string) (schema.ArtifactMetadataItem, []byte, error) {
	row, err := s.artifacts.GetByID(ctx, id)
	if err != nil {
		return schema.ArtifactMetadataItem{}, nil, err
	}
	if !caller.CanOnResource(row.CreatedBy, row.PublishedIn, schema.ArtifactRead) {
		return schema.ArtifactMetadataItem{}, nil, schema.Forbiddenf("Insufficient rights to access this artifact")
	}
	data, err := s.artifacts.GetBlob(ctx, id)
	if err != nil {
		return schema.ArtifactMetadataItem{}, nil, err
	}
	return row.ToSchema(), data, nil
}

// ListArtifacts returns metadata matching the filter within the caller's
// visibility.
func (s *registryService) ListArtifacts(ctx context.Context, caller *iam.Caller, filter *schema.Filter) ([]schema.ArtifactMetadataItem, error) {
	rows, err := s.artifacts.List(ctx, filter, visibilityFor(caller, schema.ArtifactRead))
	if err != nil {
		return nil, err
	}
	items := make([]schema.ArtifactMetadataItem, len(rows))
	for i := range rows {
		items[i] = rows[i].ToSchema()
	}
	return items, nil
}

// PublishArtifact adds a publication scope.
func (s *registryService) PublishArtifact(ctx context.Context, caller *iam.Caller, id, group string) error {
	row, err := s.artifacts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanOnResource(row.CreatedBy, row.PublishedIn, schema.ArtifactRead) {
		return schema.Forbiddenf("Insufficient rights to access this artifact")
	}
	if !caller.IsSuperuser() && !caller.HasInScope(group, schema.ArtifactCreate) {
		return schema.Forbiddenf("Insufficient rights to publish into group %s", group)
	}
	if containsString(row.PublishedIn, group) {
		return nil
	}
	return s.artifacts.SetPublishedIn(ctx, id, append(row.PublishedIn, group))
}

// UnpublishArtifact removes a publication scope.
func (s *registryService) UnpublishArtifact(ctx context.Context, caller *iam.Caller, id, group string) error {
	row, err := s.artifacts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !caller.CanOnResource(row.CreatedBy, row.PublishedIn, schema.ArtifactRead) {
		return schema.Forbiddenf("Insufficient rights to access this artifact")
	}
	if !caller.IsSuperuser() && !caller.HasInScope(group, schema.ArtifactDelete) {
		return schema.Forbiddenf("Insufficient rights to unpublish from group %s", group)
	}
	if !containsString(row.PublishedIn, group) {
		return nil
	}
	return s.artifacts.SetPublishedIn(ctx, id, removeString(row.PublishedIn, group))
}

// DeleteArtifact removes metadata and blob. The creator may always delete
// their own artifact. Idempotent.
func (s *registryService) DeleteArtifact(ctx context.Context, caller *iam.Caller, id string) error {
	row, err := s.artifacts.GetByID(ctx, id)
	if err != nil {
		if schema.IsNotFound(err) {
			return nil
		}
		return err
	}
	if row.CreatedBy != caller.User.Username &&
		!caller.CanOnResource(row.CreatedBy, row.PublishedIn, schema.ArtifactDelete) {
		return schema.Forbiddenf("Insufficient rights to delete this artifact")
	}
	return s.artifacts.Delete(ctx, id)
}
