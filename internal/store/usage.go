package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/GregMSThompson/swift-sage/internal/errs"
	"github.com/GregMSThompson/swift-sage/internal/models"
)

// usageStore keeps one document per provider in the usage collection and
// updates it with server-side increments, so concurrent instances never lose
// counts.
type usageStore struct {
	client *firestore.Client
}

func NewUsageStore(client *firestore.Client) *usageStore {
	return &usageStore{client: client}
}

func (s *usageStore) collection() *firestore.CollectionRef {
	return s.client.Collection("usage")
}

func (s *usageStore) Increment(ctx context.Context, provider string, cost float64) error {
	_, err := s.collection().Doc(provider).Set(ctx, map[string]any{
		"provider":  provider,
		"calls":     firestore.Increment(1),
		"cost":      firestore.Increment(cost),
		"updatedAt": firestore.ServerTimestamp,
	}, firestore.MergeAll)
	if err != nil {
		return errs.NewDatabaseError("update", "failed to record usage", err)
	}
	return nil
}

func (s *usageStore) Reset(ctx context.Context) error {
	iter := s.collection().Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return errs.NewDatabaseError("read", "failed to list usage", err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return errs.NewDatabaseError("delete", "failed to reset usage", err)
		}
	}
	return nil
}

func (s *usageStore) List(ctx context.Context) ([]models.UsageCounter, error) {
	iter := s.collection().OrderBy("provider", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var out []models.UsageCounter
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to list usage", err)
		}
		var counter models.UsageCounter
		if err := doc.DataTo(&counter); err != nil {
			return nil, errs.NewDatabaseError("read", "failed to parse usage data", err)
		}
		out = append(out, counter)
	}
	return out, nil
}
