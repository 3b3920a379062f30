package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"dexter/internal/util"
	"dexter/pkg/domain"
	"dexter/pkg/schema"
	"dexter/pkg/storage"
	"dexter/pkg/store"
)

var versionFormat = regexp.MustCompile(schema.VersionPattern)

// NewVersion describes a version file. When Body is set the file is uploaded
// to object storage under a key derived from the new version's id and
// FilePath is set from it; otherwise FilePath must name an existing object.
type NewVersion struct {
	Version       string
	FileType      domain.FileType
	FilePath      string
	FileSizeBytes int64
	Body          io.Reader
}

// Grantee is the target of a share: exactly one of UserID or TeamID.
type Grantee struct {
	UserID string
	TeamID string
}

// CreateDocument inserts a document together with its first version, in
// draft status.
func (a *App) CreateDocument(ctx context.Context, ownerID, title string, first NewVersion, aiGenerated bool) (domain.Document, domain.DocumentVersion, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Document{}, domain.DocumentVersion{}, ErrTitleRequired
	}
	docID := util.NewID()
	row, uploaded, err := a.upload(ctx, docID, ownerID, first)
	if err != nil {
		return domain.Document{}, domain.DocumentVersion{}, err
	}

	var doc domain.Document
	var ver domain.DocumentVersion
	err = a.inTx(ctx, func(tx store.Store, _ *outbox) error {
		var err error
		ver, err = tx.CreateDocumentVersion(ctx, row)
		if err != nil {
			return fmt.Errorf("create version: %w", err)
		}
		doc, err = tx.CreateDocument(ctx, domain.Document{
			ID:               docID,
			Title:            title,
			OwnerID:          ownerID,
			CurrentVersionID: ver.ID,
			IsAIGenerated:    aiGenerated,
			Status:           domain.DocumentDraft,
		})
		if err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		return nil
	})
	if err != nil {
		a.discard(ctx, uploaded)
		return domain.Document{}, domain.DocumentVersion{}, err
	}
	return doc, ver, nil
}

// PublishVersion adds a version and makes it current in one transaction.
// Earlier versions stay as history.
func (a *App) PublishVersion(ctx context.Context, actorID, documentID string, next NewVersion) (domain.DocumentVersion, error) {
	doc, err := a.store.GetDocument(ctx, documentID)
	if err != nil {
		return domain.DocumentVersion{}, err
	}
	if err := requireAccess(ctx, a.store, actorID, doc, domain.AccessWrite); err != nil {
		return domain.DocumentVersion{}, err
	}
	row, uploaded, err := a.upload(ctx, documentID, actorID, next)
	if err != nil {
		return domain.DocumentVersion{}, err
	}

	var ver domain.DocumentVersion
	err = a.inTx(ctx, func(tx store.Store, _ *outbox) error {
		existing, err := tx.ListDocumentVersions(ctx, documentID)
		if err != nil {
			return err
		}
		for _, v := range existing {
			if v.Version == row.Version {
				return fmt.Errorf("%w: version %s already exists", store.ErrConflict, row.Version)
			}
		}
		ver, err = tx.CreateDocumentVersion(ctx, row)
		if err != nil {
			return fmt.Errorf("create version: %w", err)
		}
		return tx.SetCurrentVersion(ctx, documentID, ver.ID)
	})
	if err != nil {
		a.discard(ctx, uploaded)
		return domain.DocumentVersion{}, err
	}
	return ver, nil
}

// SetStatus moves a document between draft, published and archived.
func (a *App) SetStatus(ctx context.Context, actorID, documentID string, status domain.DocumentStatus) error {
	doc, err := a.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if err := requireAccess(ctx, a.store, actorID, doc, domain.AccessAdmin); err != nil {
		return err
	}
	return a.store.SetDocumentStatus(ctx, documentID, status)
}

// ShareDocument grants access to a user or a team and notifies the people
// who gained it.
func (a *App) ShareDocument(ctx context.Context, senderID, documentID string, to Grantee, level domain.AccessLevel) (domain.DocumentAccess, error) {
	var grant domain.DocumentAccess
	err := a.inTx(ctx, func(tx store.Store, out *outbox) error {
		doc, err := tx.GetDocument(ctx, documentID)
		if err != nil {
			return err
		}
		if err := requireAccess(ctx, tx, senderID, doc, domain.AccessAdmin); err != nil {
			return err
		}
		grant, err = tx.GrantAccess(ctx, domain.DocumentAccess{
			DocumentID:  documentID,
			UserID:      to.UserID,
			TeamID:      to.TeamID,
			AccessLevel: level,
		})
		if err != nil {
			return fmt.Errorf("grant access: %w", err)
		}
		res := domain.DocumentResource{DocumentID: documentID}
		if to.UserID != "" {
			return out.notify(ctx, tx, senderID, []string{to.UserID}, domain.EventDocumentShare, res)
		}
		members, err := tx.ListTeamMembers(ctx, to.TeamID)
		if err != nil {
			return err
		}
		return out.notify(ctx, tx, senderID, memberIDs(members), domain.EventAccessGranted, res)
	})
	if err != nil {
		return domain.DocumentAccess{}, err
	}
	return grant, nil
}

// RequestReview assigns reviewerID and sends a review_request.
func (a *App) RequestReview(ctx context.Context, assignerID, documentID, reviewerID string) (domain.DocumentReviewer, error) {
	var r domain.DocumentReviewer
	err := a.inTx(ctx, func(tx store.Store, out *outbox) error {
		doc, err := tx.GetDocument(ctx, documentID)
		if err != nil {
			return err
		}
		if err := requireAccess(ctx, tx, assignerID, doc, domain.AccessWrite); err != nil {
			return err
		}
		r, err = tx.AssignReviewer(ctx, domain.DocumentReviewer{
			DocumentID: documentID,
			ReviewerID: reviewerID,
			AssignedBy: assignerID,
		})
		if err != nil {
			return fmt.Errorf("assign reviewer: %w", err)
		}
		return out.notify(ctx, tx, assignerID, []string{reviewerID}, domain.EventReviewRequest,
			domain.DocumentResource{DocumentID: documentID})
	})
	if err != nil {
		return domain.DocumentReviewer{}, err
	}
	return r, nil
}

// SubmitReview records a review of the current version by an assigned
// reviewer and notifies the owner and assigner.
func (a *App) SubmitReview(ctx context.Context, reviewerID, documentID, comments string) (domain.DocumentReview, error) {
	var review domain.DocumentReview
	err := a.inTx(ctx, func(tx store.Store, out *outbox) error {
		g, err := tx.LoadDocumentGraph(ctx, documentID)
		if err != nil {
			return err
		}
		var assignment *domain.DocumentReviewer
		for i := range g.Reviewers {
			if g.Reviewers[i].ReviewerID == reviewerID {
				assignment = &g.Reviewers[i]
				break
			}
		}
		if assignment == nil {
			return ErrNotReviewer
		}
		review, err = tx.CreateReview(ctx, domain.DocumentReview{
			DocumentID: documentID,
			ReviewerID: reviewerID,
			VersionID:  g.Document.CurrentVersionID,
			Comments:   comments,
		})
		if err != nil {
			return fmt.Errorf("create review: %w", err)
		}
		if err := tx.SetReviewerStatus(ctx, documentID, reviewerID, domain.ReviewerCompleted); err != nil {
			return err
		}
		return out.notify(ctx, tx, reviewerID, []string{g.Document.OwnerID, assignment.AssignedBy},
			domain.EventReviewSubmitted, domain.DocumentReviewResource{DocumentReviewID: review.ID})
	})
	if err != nil {
		return domain.DocumentReview{}, err
	}
	return review, nil
}

// DecideReview accepts or rejects a submitted review and tells the reviewer.
func (a *App) DecideReview(ctx context.Context, deciderID, reviewID string, accept bool) error {
	return a.inTx(ctx, func(tx store.Store, out *outbox) error {
		review, err := tx.GetReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if review.Status != domain.ReviewSubmitted {
			return fmt.Errorf("%w: review already %s", store.ErrCheckViolation, review.Status)
		}
		doc, err := tx.GetDocument(ctx, review.DocumentID)
		if err != nil {
			return err
		}
		if err := requireAccess(ctx, tx, deciderID, doc, domain.AccessAdmin); err != nil {
			return err
		}
		status, event := domain.ReviewRejected, domain.EventReviewRejected
		if accept {
			status, event = domain.ReviewAccepted, domain.EventReviewAccepted
		}
		if err := tx.SetReviewStatus(ctx, reviewID, status); err != nil {
			return err
		}
		return out.notify(ctx, tx, deciderID, []string{review.ReviewerID}, event,
			domain.DocumentReviewResource{DocumentReviewID: reviewID})
	})
}

// VersionDownloadURL presigns a GET for a version file the user can read.
func (a *App) VersionDownloadURL(ctx context.Context, userID, versionID string) (string, error) {
	if a.objects == nil {
		return "", ErrNoObjectStore
	}
	ver, err := a.store.GetDocumentVersion(ctx, versionID)
	if err != nil {
		return "", err
	}
	doc, err := a.store.GetDocument(ctx, ver.DocumentID)
	if err != nil {
		return "", err
	}
	if err := requireAccess(ctx, a.store, userID, doc, domain.AccessRead); err != nil {
		return "", err
	}
	name := storage.DownloadName(doc.Title, ver.Version, ver.FileType)
	return a.objects.PresignGet(ctx, ver.FilePath, name, a.downloadTTL)
}

// DeleteDocument removes a document with its history, then its files.
func (a *App) DeleteDocument(ctx context.Context, actorID, documentID string) error {
	doc, err := a.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.OwnerID != actorID {
		return ErrForbidden
	}
	versions, err := a.store.ListDocumentVersions(ctx, documentID)
	if err != nil {
		return err
	}
	if err := a.store.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	keys := make([]string, 0, len(versions))
	for _, v := range versions {
		keys = append(keys, v.FilePath)
	}
	a.discard(ctx, keys)
	return nil
}

// upload checks v, stores v.Body when present and returns the row to insert
// together with the keys written. Keys use the version id, so a version
// string never names an object.
func (a *App) upload(ctx context.Context, documentID, createdBy string, v NewVersion) (domain.DocumentVersion, []string, error) {
	if !versionFormat.MatchString(v.Version) {
		return domain.DocumentVersion{}, nil, fmt.Errorf("%w: version %q", store.ErrCheckViolation, v.Version)
	}
	if !v.FileType.Valid() {
		return domain.DocumentVersion{}, nil, fmt.Errorf("%w: file type %q", store.ErrInvalidInput, v.FileType)
	}
	row := domain.DocumentVersion{
		ID:            util.NewID(),
		DocumentID:    documentID,
		Version:       v.Version,
		FilePath:      v.FilePath,
		FileType:      v.FileType,
		FileSizeBytes: v.FileSizeBytes,
		CreatedBy:     createdBy,
	}
	if v.Body == nil {
		if strings.TrimSpace(v.FilePath) == "" {
			return domain.DocumentVersion{}, nil, fmt.Errorf("%w: file path or body required", store.ErrInvalidInput)
		}
		return row, nil, nil
	}
	if a.objects == nil {
		return domain.DocumentVersion{}, nil, ErrNoObjectStore
	}
	key := storage.VersionKey(documentID, row.ID, v.FileType)
	if err := a.objects.Put(ctx, key, v.Body, v.FileSizeBytes, storage.ContentType(v.FileType)); err != nil {
		return domain.DocumentVersion{}, nil, fmt.Errorf("save file: %w", err)
	}
	row.FilePath = key
	return row, []string{key}, nil
}

func (a *App) discard(ctx context.Context, keys []string) {
	if a.objects == nil {
		return
	}
	for _, key := range keys {
		if err := a.objects.Delete(ctx, key); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("app: delete object failed", "key", key, "err", err)
		}
	}
}
