package store

import (
	"context"
	"fmt"
	"time"

	"dexter/pkg/domain"
)

// CreateDocumentVersion inserts an immutable version row. Its document may be
// inserted later in the same transaction; the reference is checked at commit.
func (s *GormStore) CreateDocumentVersion(ctx context.Context, v domain.DocumentVersion) (domain.DocumentVersion, error) {
	if err := validate(v); err != nil {
		return domain.DocumentVersion{}, s.metrics.reject(err)
	}
	v.ID = ensureID(v.ID)
	v.CreatedAt = stamp(v.CreatedAt)
	model := versionToModel(v)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return domain.DocumentVersion{}, s.fail(err)
	}
	return versionFromModel(model), nil
}

// CreateDocument inserts a document whose current version already exists and
// belongs to it.
func (s *GormStore) CreateDocument(ctx context.Context, d domain.Document) (domain.Document, error) {
	if d.Status == "" {
		d.Status = domain.DocumentDraft
	}
	if err := validate(d); err != nil {
		return domain.Document{}, s.metrics.reject(err)
	}
	d.ID = ensureID(d.ID)
	if err := s.checkVersionOwner(ctx, d.ID, d.CurrentVersionID); err != nil {
		return domain.Document{}, err
	}
	d.CreatedAt = stamp(d.CreatedAt)
	d.UpdatedAt = stamp(d.UpdatedAt)
	model := documentToModel(d)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return domain.Document{}, s.fail(err)
	}
	return documentFromModel(model), nil
}

// checkVersionOwner rejects pointing a document at another document's
// version. A missing version is left to the foreign key.
func (s *GormStore) checkVersionOwner(ctx context.Context, documentID, versionID string) error {
	var model DocumentVersionModel
	err := s.conn(ctx).Where("id = ?", versionID).Limit(1).Find(&model).Error
	if err != nil {
		return s.fail(err)
	}
	if model.ID != "" && model.DocumentID != documentID {
		return s.metrics.reject(versionOwnerError(versionID, documentID))
	}
	return nil
}

func versionOwnerError(versionID, documentID string) error {
	return fmt.Errorf("%w: version %s does not belong to document %s", ErrCheckViolation, versionID, documentID)
}

func (s *GormStore) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	var model DocumentModel
	if err := s.first(ctx, &model, "id = ?", id); err != nil {
		return domain.Document{}, err
	}
	return documentFromModel(model), nil
}

// SetCurrentVersion repoints a document at one of its own versions.
func (s *GormStore) SetCurrentVersion(ctx context.Context, documentID, versionID string) error {
	v, err := s.GetDocumentVersion(ctx, versionID)
	if err != nil {
		return err
	}
	if v.DocumentID != documentID {
		return s.metrics.reject(versionOwnerError(versionID, documentID))
	}
	return s.affected(s.conn(ctx).Model(&DocumentModel{}).Where("id = ?", documentID).Updates(map[string]any{
		"current_version_id": versionID,
		"updated_at":         time.Now().UTC(),
	}))
}

func (s *GormStore) SetDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus) error {
	if !status.Valid() {
		return s.metrics.reject(invalidEnum("document status", status))
	}
	return s.affected(s.conn(ctx).Model(&DocumentModel{}).Where("id = ?", id).Updates(map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}))
}

// ListDocumentVersions returns the version history oldest first.
func (s *GormStore) ListDocumentVersions(ctx context.Context, documentID string) ([]domain.DocumentVersion, error) {
	var models []DocumentVersionModel
	if err := s.conn(ctx).Where("document_id = ?", documentID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, s.fail(err)
	}
	out := make([]domain.DocumentVersion, 0, len(models))
	for _, m := range models {
		out = append(out, versionFromModel(m))
	}
	return out, nil
}

func (s *GormStore) GetDocumentVersion(ctx context.Context, id string) (domain.DocumentVersion, error) {
	var model DocumentVersionModel
	if err := s.first(ctx, &model, "id = ?", id); err != nil {
		return domain.DocumentVersion{}, err
	}
	return versionFromModel(model), nil
}

// DeleteDocument removes the document together with its versions, access
// grants, reviewers, reviews, mentions and notifications.
func (s *GormStore) DeleteDocument(ctx context.Context, id string) error {
	return s.affected(s.conn(ctx).Delete(&DocumentModel{}, "id = ?", id))
}

// GrantAccess inserts an access row for exactly one of a user or a team.
func (s *GormStore) GrantAccess(ctx context.Context, a domain.DocumentAccess) (domain.DocumentAccess, error) {
	if err := validate(a); err != nil {
		return domain.DocumentAccess{}, s.metrics.reject(err)
	}
	a.ID = ensureID(a.ID)
	a.GrantedAt = stamp(a.GrantedAt)
	model := accessToModel(a)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return domain.DocumentAccess{}, s.fail(err)
	}
	return accessFromModel(model), nil
}

func (s *GormStore) ListDocumentAccess(ctx context.Context, documentID string) ([]domain.DocumentAccess, error) {
	var models []DocumentAccessModel
	if err := s.conn(ctx).Where("document_id = ?", documentID).Order("granted_at ASC").Find(&models).Error; err != nil {
		return nil, s.fail(err)
	}
	out := make([]domain.DocumentAccess, 0, len(models))
	for _, m := range models {
		out = append(out, accessFromModel(m))
	}
	return out, nil
}

func (s *GormStore) AssignReviewer(ctx context.Context, r domain.DocumentReviewer) (domain.DocumentReviewer, error) {
	if r.Status == "" {
		r.Status = domain.ReviewerPending
	}
	if err := validate(r); err != nil {
		return domain.DocumentReviewer{}, s.metrics.reject(err)
	}
	r.ID = ensureID(r.ID)
	r.AssignedAt = stamp(r.AssignedAt)
	model := reviewerToModel(r)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return domain.DocumentReviewer{}, s.fail(err)
	}
	return reviewerFromModel(model), nil
}

func (s *GormStore) SetReviewerStatus(ctx context.Context, documentID, reviewerID string, status domain.ReviewerStatus) error {
	if !status.Valid() {
		return s.metrics.reject(invalidEnum("reviewer status", status))
	}
	return s.affected(s.conn(ctx).Model(&DocumentReviewerModel{}).
		Where("document_id = ? AND reviewer_id = ?", documentID, reviewerID).
		Update("status", string(status)))
}

func (s *GormStore) CreateReview(ctx context.Context, r domain.DocumentReview) (domain.DocumentReview, error) {
	if r.Status == "" {
		r.Status = domain.ReviewSubmitted
	}
	if err := validate(r); err != nil {
		return domain.DocumentReview{}, s.metrics.reject(err)
	}
	r.ID = ensureID(r.ID)
	r.CreatedAt = stamp(r.CreatedAt)
	r.UpdatedAt = stamp(r.UpdatedAt)
	model := reviewToModel(r)
	if err := s.conn(ctx).Create(&model).Error; err != nil {
		return domain.DocumentReview{}, s.fail(err)
	}
	return reviewFromModel(model), nil
}

func (s *GormStore) GetReview(ctx context.Context, id string) (domain.DocumentReview, error) {
	var model DocumentReviewModel
	if err := s.first(ctx, &model, "id = ?", id); err != nil {
		return domain.DocumentReview{}, err
	}
	return reviewFromModel(model), nil
}

func (s *GormStore) SetReviewStatus(ctx context.Context, id string, status domain.ReviewStatus) error {
	if !status.Valid() {
		return s.metrics.reject(invalidEnum("review status", status))
	}
	return s.affected(s.conn(ctx).Model(&DocumentReviewModel{}).Where("id = ?", id).Updates(map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}))
}
