package firestore

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/interfaces"
	"github.com/lheh1167/slack-pair-bot/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	directoryEntriesCollection  = "directory_entries"
	directoryMetadataCollection = "directory_metadata"
	refreshStatusDocument       = "refresh_status"
)

type directoryRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.DirectoryRepository = &directoryRepository{}

func newDirectoryRepository(client *firestore.Client) *directoryRepository {
	return &directoryRepository{
		client: client,
	}
}

// directoryEntryDoc is the Firestore persistence model. Position keeps the
// provider order; EmailLower backs the case-insensitive email lookup.
type directoryEntryDoc struct {
	ID          string    `firestore:"id"`
	Handle      string    `firestore:"handle"`
	DisplayName string    `firestore:"display_name"`
	RealName    string    `firestore:"real_name"`
	Email       string    `firestore:"email"`
	EmailLower  string    `firestore:"email_lower"`
	Deleted     bool      `firestore:"deleted"`
	IsAutomated bool      `firestore:"is_automated"`
	Position    int64     `firestore:"position"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

type directoryMetadataDoc struct {
	LastRefreshSuccess time.Time `firestore:"last_refresh_success"`
	LastRefreshAttempt time.Time `firestore:"last_refresh_attempt"`
	UserCount          int       `firestore:"user_count"`
}

// DirectoryEntriesCollection returns the entries collection name for prefix
func DirectoryEntriesCollection(prefix string) string {
	return prefixed(prefix, directoryEntriesCollection)
}

func prefixed(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

func (r *directoryRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(prefixed(r.collectionPrefix, directoryEntriesCollection))
}

func (r *directoryRepository) metadataCollection() *firestore.CollectionRef {
	return r.client.Collection(prefixed(r.collectionPrefix, directoryMetadataCollection))
}

func toDirectoryEntryDoc(entry *model.DirectoryEntry, position int64) *directoryEntryDoc {
	return &directoryEntryDoc{
		ID:          string(entry.ID),
		Handle:      entry.Handle,
		DisplayName: entry.DisplayName,
		RealName:    entry.RealName,
		Email:       entry.Email,
		EmailLower:  strings.ToLower(entry.Email),
		Deleted:     entry.Deleted,
		IsAutomated: entry.IsAutomated,
		Position:    position,
		UpdatedAt:   entry.UpdatedAt,
	}
}

func (d *directoryEntryDoc) toModel() *model.DirectoryEntry {
	return &model.DirectoryEntry{
		ID:          model.UserID(d.ID),
		Handle:      d.Handle,
		DisplayName: d.DisplayName,
		RealName:    d.RealName,
		Email:       d.Email,
		Deleted:     d.Deleted,
		IsAutomated: d.IsAutomated,
		UpdatedAt:   d.UpdatedAt,
	}
}

// GetAll retrieves all entries ordered by their saved position
func (r *directoryRepository) GetAll(ctx context.Context) ([]*model.DirectoryEntry, error) {
	iter := r.collection().OrderBy("position", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var entries []*model.DirectoryEntry
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate directory entries")
		}

		var entryDoc directoryEntryDoc
		if err := doc.DataTo(&entryDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal directory entry", goerr.V("docID", doc.Ref.ID))
		}

		entries = append(entries, entryDoc.toModel())
	}

	return entries, nil
}

// GetByEmail finds an entry by email, ignoring case. Shared addresses
// resolve to the earliest entry; the query needs the composite index created
// by the migrate command.
func (r *directoryRepository) GetByEmail(ctx context.Context, email string) (*model.DirectoryEntry, error) {
	if email == "" {
		return nil, nil
	}

	iter := r.collection().Where("email_lower", "==", strings.ToLower(email)).
		OrderBy("position", firestore.Asc).
		Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query directory entry by email", goerr.V("email", email))
	}

	var entryDoc directoryEntryDoc
	if err := doc.DataTo(&entryDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal directory entry", goerr.V("docID", doc.Ref.ID))
	}
	return entryDoc.toModel(), nil
}

// nextPosition returns the position after the current last entry
func (r *directoryRepository) nextPosition(ctx context.Context) (int64, error) {
	iter := r.collection().OrderBy("position", firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return 0, nil
	}
	if err != nil {
		return 0, goerr.Wrap(err, "failed to read last directory position")
	}

	var entryDoc directoryEntryDoc
	if err := doc.DataTo(&entryDoc); err != nil {
		return 0, goerr.Wrap(err, "failed to unmarshal directory entry", goerr.V("docID", doc.Ref.ID))
	}
	return entryDoc.Position + 1, nil
}

// SaveMany upserts entries after the ones already stored. BulkWriter takes
// care of Firestore's batch limits.
func (r *directoryRepository) SaveMany(ctx context.Context, entries []*model.DirectoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	base, err := r.nextPosition(ctx)
	if err != nil {
		return err
	}

	bulkWriter := r.client.BulkWriter(ctx)
	defer bulkWriter.End()

	for i, entry := range entries {
		docRef := r.collection().Doc(string(entry.ID))
		if _, err := bulkWriter.Set(docRef, toDirectoryEntryDoc(entry, base+int64(i))); err != nil {
			return goerr.Wrap(err, "failed to add Set operation to bulk writer", goerr.V("user_id", entry.ID))
		}
	}

	bulkWriter.Flush()

	return nil
}

// DeleteAll deletes all entries
func (r *directoryRepository) DeleteAll(ctx context.Context) error {
	iter := r.collection().Documents(ctx)
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate directory entries for deletion")
		}
		refs = append(refs, doc.Ref)
	}

	if len(refs) == 0 {
		return nil
	}

	bulkWriter := r.client.BulkWriter(ctx)
	defer bulkWriter.End()

	for _, ref := range refs {
		if _, err := bulkWriter.Delete(ref); err != nil {
			return goerr.Wrap(err, "failed to add Delete operation to bulk writer")
		}
	}

	bulkWriter.Flush()

	return nil
}

// GetMetadata retrieves refresh metadata
func (r *directoryRepository) GetMetadata(ctx context.Context) (*model.DirectoryMetadata, error) {
	doc, err := r.metadataCollection().Doc(refreshStatusDocument).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &model.DirectoryMetadata{}, nil
		}
		return nil, goerr.Wrap(err, "failed to get directory metadata")
	}

	var metadataDoc directoryMetadataDoc
	if err := doc.DataTo(&metadataDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal directory metadata")
	}

	return &model.DirectoryMetadata{
		LastRefreshSuccess: metadataDoc.LastRefreshSuccess,
		LastRefreshAttempt: metadataDoc.LastRefreshAttempt,
		UserCount:          metadataDoc.UserCount,
	}, nil
}

// SaveMetadata saves refresh metadata
func (r *directoryRepository) SaveMetadata(ctx context.Context, metadata *model.DirectoryMetadata) error {
	_, err := r.metadataCollection().Doc(refreshStatusDocument).Set(ctx, &directoryMetadataDoc{
		LastRefreshSuccess: metadata.LastRefreshSuccess,
		LastRefreshAttempt: metadata.LastRefreshAttempt,
		UserCount:          metadata.UserCount,
	})
	if err != nil {
		return goerr.Wrap(err, "failed to save directory metadata")
	}
	return nil
}
