package dbclient

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mongoKV stores each key as a document {_id: key, value: value}.
type mongoKV struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type kvDoc struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

func openMongoKV(ctx context.Context, o Options) (*mongoKV, error) {
	uri := buildMongoURI(o)
	dbName := o.Database
	if dbName == "" {
		dbName = "flowboard"
	}

	logURI := uri
	if o.Password != "" {
		logURI = strings.ReplaceAll(logURI, o.Password, "***")
	}
	log.Printf("[MONGO] Connecting with URI: %s", logURI)

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		log.Printf("[MONGO] Connect failed: %v", err)
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	kv := &mongoKV{client: client, coll: client.Database(dbName).Collection(o.table())}
	if err := kv.TestConnection(ctx); err != nil {
		kv.Close()
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return kv, nil
}

// buildMongoURI accepts a full mongodb:// or mongodb+srv:// string in DSN
// or Host and otherwise builds one from host and port.
func buildMongoURI(o Options) string {
	for _, s := range []string{o.DSN, o.Host} {
		if strings.HasPrefix(s, "mongodb+srv://") || strings.HasPrefix(s, "mongodb://") {
			if o.Password != "" {
				s = strings.ReplaceAll(s, "<password>", o.Password)
				s = strings.ReplaceAll(s, "<db_password>", o.Password)
			}
			return s
		}
	}
	port := o.Port
	if port == 0 {
		port = 27017
	}
	if o.Username != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%d", o.Username, o.Password, o.Host, port)
	}
	return fmt.Sprintf("mongodb://%s:%d", o.Host, port)
}

func (m *mongoKV) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

func (m *mongoKV) Get(ctx context.Context, key string) (string, bool, error) {
	var doc kvDoc
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("mongo get %s: %w", key, err)
	}
	return doc.Value, true, nil
}

func (m *mongoKV) Set(ctx context.Context, key, value string) error {
	_, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo set %s: %w", key, err)
	}
	return nil
}

func (m *mongoKV) Delete(ctx context.Context, key string) error {
	if _, err := m.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("mongo delete %s: %w", key, err)
	}
	return nil
}

func (m *mongoKV) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
