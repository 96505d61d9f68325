package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"useradmin/internal/models"
)

// MongoStore handles account CRUD in MongoDB.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{col: db.Collection("users")}
}

// EnsureIndexes creates the unique email index. Email uniqueness is enforced
// here, at the store level, not in handler code.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	return nil
}

// Insert creates a new account. Status and RegistrationDate are set here so
// every account enters the collection active with a creation timestamp.
func (s *MongoStore) Insert(ctx context.Context, acc *models.Account) (string, error) {
	acc.Status = models.StatusActive
	acc.RegistrationDate = time.Now()
	res, err := s.col.InsertOne(ctx, acc)
	if err != nil {
		return "", fmt.Errorf("mongo insert: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	acc.ID = oid
	return oid.Hex(), nil
}

// IsDuplicateEmail reports whether err came from the unique email index.
func IsDuplicateEmail(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func (s *MongoStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var acc models.Account
	if err := s.col.FindOne(ctx, bson.M{"email": email}).Decode(&acc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

func (s *MongoStore) GetByID(ctx context.Context, id string) (*models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}
	var acc models.Account
	if err := s.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&acc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &acc, nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.Account, error) {
	opts := options.Find().SetSort(bson.D{{Key: "registrationDate", Value: 1}})
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var accs []models.Account
	if err := cur.All(ctx, &accs); err != nil {
		return nil, err
	}
	return accs, nil
}

// RecordLogin stamps lastLoginDate on a successful login.
func (s *MongoStore) RecordLogin(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	_, err = s.col.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"lastLoginDate": at}})
	return err
}

// SetBlocked marks every matched account blocked and records who blocked it.
// Ids that don't resolve to a document are skipped, not reported.
func (s *MongoStore) SetBlocked(ctx context.Context, ids []string, blockedBy primitive.ObjectID) (int64, error) {
	res, err := s.col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": objectIDs(ids)}},
		bson.M{"$set": bson.M{"status": models.StatusBlocked, "blockedBy": blockedBy}},
	)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// SetActive restores every matched account to active. blockedBy stays as-is;
// it only carries meaning while the account is blocked.
func (s *MongoStore) SetActive(ctx context.Context, ids []string) (int64, error) {
	res, err := s.col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": objectIDs(ids)}},
		bson.M{"$set": bson.M{"status": models.StatusActive}},
	)
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// Remove physically deletes every matched account, freeing its email for
// immediate re-registration.
func (s *MongoStore) Remove(ctx context.Context, ids []string) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": objectIDs(ids)}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func objectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}
