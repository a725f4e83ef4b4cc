package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/railfleet/fleet-state/internal/core/domain"
)

const sessionCollection = "client_sessions"

// CredentialRepository persists session credentials as one document per
// client profile.
type CredentialRepository struct {
	coll    *mongo.Collection
	profile string
}

func NewCredentialRepository(db *mongo.Database, profile string) *CredentialRepository {
	return &CredentialRepository{coll: db.Collection(sessionCollection), profile: profile}
}

type mongoSession struct {
	Profile   string `bson:"_id"`
	Token     string `bson:"auth_token"`
	Username  string `bson:"username"`
	UpdatedAt int64  `bson:"updated_at"`
}

func (r *CredentialRepository) Load(ctx context.Context) (domain.Credentials, error) {
	var doc mongoSession
	if err := r.coll.FindOne(ctx, bson.M{"_id": r.profile}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.Credentials{}, nil
		}
		return domain.Credentials{}, fmt.Errorf("find session: %w", err)
	}
	return domain.Credentials{Token: doc.Token, Username: doc.Username}, nil
}

func (r *CredentialRepository) Save(ctx context.Context, creds domain.Credentials) error {
	doc := mongoSession{
		Profile:   r.profile,
		Token:     creds.Token,
		Username:  creds.Username,
		UpdatedAt: time.Now().UTC().Unix(),
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": r.profile}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (r *CredentialRepository) Clear(ctx context.Context) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": r.profile}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
