package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongo returns nil, nil when uri is empty. dbName falls back to the
// path component of the URI, then "algomancy".
func ConnectMongo(uri, dbName string) (*mongo.Database, error) {
	if uri == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	if dbName == "" {
		dbName = extractDBName(uri)
	}

	return client.Database(dbName), nil
}

func extractDBName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "algomancy"
	}
	if u.Path != "" && u.Path != "/" {
		return u.Path[1:]
	}
	return "algomancy"
}
